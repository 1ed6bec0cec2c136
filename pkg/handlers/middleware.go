package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/database"
)

// TenantMiddleware wraps a handler with a tenant-scoped database connection
// derived from the {tid} path value. Repositories downstream pull the scope
// from the request context.
type TenantMiddleware func(http.HandlerFunc) http.HandlerFunc

// NewTenantMiddleware creates a TenantMiddleware over the given provider.
func NewTenantMiddleware(provider *database.TenantScopeProvider, logger *zap.Logger) TenantMiddleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := uuid.Parse(r.PathValue("tid"))
			if err != nil {
				if err := ErrorResponse(w, http.StatusBadRequest, "invalid_tenant_id", "Invalid tenant ID format"); err != nil {
					logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}

			ctx, cleanup, err := provider.WithTenantScope(r.Context(), tenantID)
			if err != nil {
				logger.Error("Failed to acquire tenant scope", zap.Error(err),
					zap.String("tenant_id", tenantID.String()))
				if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to acquire database connection"); err != nil {
					logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}
			defer cleanup()

			next(w, r.WithContext(ctx))
		}
	}
}
