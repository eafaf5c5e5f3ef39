package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/JonMunkholm/batchingest/internal/report"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

var errRunInProgress = errors.New("run still in progress")

// handleRunProgress returns the current progress snapshot.
func (s *Server) handleRunProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.service.GetRunProgress(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// handleRunProgressStream streams progress via Server-Sent Events.
//
// The event ID is the progress percentage, so a reconnecting client that
// sends Last-Event-ID (or ?lastEventId=) skips updates it already saw.
// Terminal updates are always delivered.
func (s *Server) handleRunProgressStream(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	lastEventIDStr := r.Header.Get("Last-Event-ID")
	if lastEventIDStr == "" {
		lastEventIDStr = r.URL.Query().Get("lastEventId")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(runID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			if progress.Percent <= lastEventID && !progress.Phase.Done() {
				continue
			}
			lastEventID = progress.Percent

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Percent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleRunResult returns the final result. Unfinished runs answer 202 with
// their progress unless ?wait=true, which blocks until the run ends.
func (s *Server) handleRunResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	if r.URL.Query().Get("wait") != "true" {
		progress, err := s.service.GetRunProgress(runID)
		if err != nil {
			s.respondError(w, r, err, 0)
			return
		}
		if !progress.Phase.Done() {
			writeJSON(w, http.StatusAccepted, progress)
			return
		}
	}

	result, err := s.service.GetRunResult(r.Context(), runID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRunReport renders the finished run as an HTML fragment.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	result, ok := s.finishedResult(w, r)
	if !ok {
		return
	}

	var component templ.Component
	switch result.Kind {
	case core.RunMedia:
		component = report.MediaReportHTML(result.Media)
	default:
		component = report.ImportReportHTML(result.Import)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		logRequestError(r, "report render failed", err)
	}
}

// handleRunExport downloads the finished run as CSV (default) or JSON.
func (s *Server) handleRunExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		s.respondError(w, r, fmt.Errorf("unsupported export format %q", format), http.StatusBadRequest)
		return
	}

	result, ok := s.finishedResult(w, r)
	if !ok {
		return
	}

	var doc report.Document
	if result.Kind == core.RunMedia {
		doc = report.MediaDocument(result.Media)
	} else {
		doc = report.ImportDocument(result.Import)
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename(format)))
	var err error
	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		err = doc.WriteJSON(w)
	} else {
		w.Header().Set("Content-Type", "text/csv")
		err = doc.WriteCSV(w)
	}
	if err != nil {
		logRequestError(r, "export write failed", err)
	}
}

// handleCancelRun stops a run from starting further work.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelRun(chi.URLParam(r, "runID")); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// finishedResult returns the run's result, answering 409 while it is still
// running.
func (s *Server) finishedResult(w http.ResponseWriter, r *http.Request) (*core.RunResult, bool) {
	runID := chi.URLParam(r, "runID")

	progress, err := s.service.GetRunProgress(runID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return nil, false
	}
	if !progress.Phase.Done() {
		s.respondError(w, r, errRunInProgress, http.StatusConflict)
		return nil, false
	}

	result, err := s.service.GetRunResult(r.Context(), runID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return nil, false
	}
	return result, true
}
