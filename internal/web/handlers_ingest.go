package web

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/JonMunkholm/batchingest/internal/logging"
	"github.com/go-chi/chi/v5"
)

// runAccepted is the body returned when a background run starts.
type runAccepted struct {
	RunID string `json:"runId"`
	Kind  string `json:"kind"`
}

// handleMediaUpload starts a media run for the files in the multipart
// "files" field.
func (s *Server) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	limits := s.cfg.Upload

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFileSize*int64(limits.MaxFiles)+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondFormError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, r, core.ErrNoFiles, 0)
		return
	}
	if len(headers) > limits.MaxFiles {
		s.respondError(w, r, &tooLargeError{size: int64(len(headers)), limit: int64(limits.MaxFiles), count: true}, 0)
		return
	}

	files := make([]core.MediaFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > limits.MaxFileSize {
			s.respondError(w, r, &tooLargeError{what: fh.Filename, size: fh.Size, limit: limits.MaxFileSize}, 0)
			return
		}
		data, err := readPart(fh)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		files = append(files, core.MediaFile{Name: fh.Filename, Data: data, Size: fh.Size})
	}

	ctx := r.Context()
	runID, err := s.service.StartMediaUpload(ctx, core.FilterFromContext(ctx, eventID), files)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.WithFields(ctx, "run_id", runID, "event_id", eventID).
		Info("media upload accepted", "files", len(files))
	writeJSON(w, http.StatusAccepted, runAccepted{RunID: runID, Kind: string(core.RunMedia)})
}

// handleImport starts a participant import from the multipart "file" field.
// Header problems are reported synchronously with 400.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	maxSize := s.cfg.Import.MaxFileSize

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondFormError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrEmptyInput, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.respondError(w, r, &tooLargeError{what: header.Filename, size: header.Size, limit: maxSize}, 0)
		return
	}

	ctx := r.Context()
	runID, err := s.service.StartImport(ctx, core.ScopeFromContext(ctx, eventID), file)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.WithFields(ctx, "run_id", runID, "event_id", eventID).
		Info("participant import accepted", "filename", header.Filename)
	writeJSON(w, http.StatusAccepted, runAccepted{RunID: runID, Kind: string(core.RunImport)})
}

// handleExtractCode previews which participant code a filename carries.
func (s *Server) handleExtractCode(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	code, ok := core.ExtractCode(filename)
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": filename,
		"code":     code,
		"found":    ok,
	})
}

// handleStatus reports run slot usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleHealth reports liveness and, when configured, store reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			logging.FromContext(r.Context()).Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// respondFormError reports a multipart parse failure: 413 when the body
// limit was hit, 400 otherwise.
func (s *Server) respondFormError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.respondError(w, r, &tooLargeError{what: "request", size: maxErr.Limit + 1, limit: maxErr.Limit}, 0)
		return
	}
	s.respondError(w, r, err, http.StatusBadRequest)
}
