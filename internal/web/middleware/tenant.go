package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/batchingest/internal/core"
)

// Tenant headers. Tenant resolution happens upstream; these headers carry
// its result.
const (
	TenantHeader = "X-Tenant-ID"
	SchoolHeader = "X-School-ID"
)

// RequireTenant stores the tenant and school headers in the request context
// via core.ContextWithTenant and rejects requests missing either.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
		schoolID := strings.TrimSpace(r.Header.Get(SchoolHeader))

		if tenantID == "" || schoolID == "" {
			slog.Warn("tenant: missing tenant headers",
				"path", r.URL.Path,
				"tenant_set", tenantID != "",
				"school_set", schoolID != "",
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"missing tenant: X-Tenant-ID and X-School-ID are required","code":"VAL002"}`))
			return
		}

		ctx := core.ContextWithTenant(r.Context(), tenantID, schoolID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
