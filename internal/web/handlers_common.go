package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/JonMunkholm/batchingest/internal/logging"
	"github.com/dustin/go-humanize"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// tooLargeError reports an upload over a configured limit.
type tooLargeError struct {
	what  string
	size  int64
	limit int64
	count bool
}

func (e *tooLargeError) Error() string {
	if e.count {
		return fmt.Sprintf("too many files: %d exceeds limit of %d", e.size, e.limit)
	}
	return fmt.Sprintf("file too large: %s is %s, limit is %s",
		e.what, humanize.IBytes(uint64(e.size)), humanize.IBytes(uint64(e.limit)))
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// logRequestError logs a failure after the response has started.
func logRequestError(r *http.Request, msg string, err error) {
	logging.FromContext(r.Context()).Error(msg, "path", r.URL.Path, "error", err)
}
