package core

import "context"

type contextKey string

const (
	ctxKeyTenantID contextKey = "tenant_id"
	ctxKeySchoolID contextKey = "school_id"
)

// ContextWithTenant stores the tenant and school resolved for a request.
func ContextWithTenant(ctx context.Context, tenantID, schoolID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyTenantID, tenantID)
	return context.WithValue(ctx, ctxKeySchoolID, schoolID)
}

// TenantFromContext returns the tenant and school stored by ContextWithTenant.
func TenantFromContext(ctx context.Context) (tenantID, schoolID string) {
	tenantID, _ = ctx.Value(ctxKeyTenantID).(string)
	schoolID, _ = ctx.Value(ctxKeySchoolID).(string)
	return tenantID, schoolID
}

// ScopeFromContext builds the import scope for eventID from the request's
// tenant and school.
func ScopeFromContext(ctx context.Context, eventID string) ImportScope {
	tenantID, schoolID := TenantFromContext(ctx)
	return ImportScope{TenantID: tenantID, SchoolID: schoolID, EventID: eventID}
}

// FilterFromContext is the entity filter for eventID under the request's
// tenant and school.
func FilterFromContext(ctx context.Context, eventID string) EntityFilter {
	tenantID, schoolID := TenantFromContext(ctx)
	return EntityFilter{TenantID: tenantID, SchoolID: schoolID, EventID: eventID}
}
