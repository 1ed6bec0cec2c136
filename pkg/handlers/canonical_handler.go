package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/apperrors"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
	"github.com/unifieddata-ai/canon-engine/pkg/services"
)

// BuildRequest is the payload for POST .../canonical-schema/build.
type BuildRequest struct {
	ConnectorIDs        []uuid.UUID `json:"connector_ids,omitempty"`
	ConfidenceThreshold float64     `json:"confidence_threshold,omitempty"`
}

// SaveRequest is the payload for POST .../canonical-schema.
type SaveRequest struct {
	BaseSchemaIDs    []uuid.UUID           `json:"base_schema_ids,omitempty"`
	CanonicalGraph   models.CanonicalGraph `json:"canonical_graph"`
	Note             *string               `json:"note,omitempty"`
	ApprovedByUserID *uuid.UUID            `json:"approved_by_user_id,omitempty"`
	ExpectedVersion  int                   `json:"expected_version"`
}

// ConflictResponse is returned with 409 when a save loses to a newer version.
// The latest state comes back untouched so the client can re-merge its edits.
type ConflictResponse struct {
	Error         string                        `json:"error"`
	LatestVersion int                           `json:"latest_version"`
	LatestSchema  *models.GlobalCanonicalSchema `json:"latest_schema,omitempty"`
}

// ValidateResponse is the payload for POST .../canonical-schema/validate.
type ValidateResponse struct {
	OK     bool                       `json:"ok"`
	Errors []services.ValidationIssue `json:"errors"`
}

// CanonicalHandler exposes the build/save/latest/validate operations.
type CanonicalHandler struct {
	builder services.GraphBuildService
	store   services.CanonicalStoreService
	logger  *zap.Logger
}

// NewCanonicalHandler creates a new CanonicalHandler.
func NewCanonicalHandler(builder services.GraphBuildService, store services.CanonicalStoreService, logger *zap.Logger) *CanonicalHandler {
	return &CanonicalHandler{
		builder: builder,
		store:   store,
		logger:  logger.Named("canonical-handler"),
	}
}

// RegisterRoutes registers the canonical schema routes.
func (h *CanonicalHandler) RegisterRoutes(mux *http.ServeMux, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("POST /api/tenants/{tid}/canonical-schema/build", tenantMiddleware(h.Build))
	mux.HandleFunc("POST /api/tenants/{tid}/canonical-schema", tenantMiddleware(h.Save))
	mux.HandleFunc("GET /api/tenants/{tid}/canonical-schema/latest", tenantMiddleware(h.GetLatest))
	mux.HandleFunc("POST /api/tenants/{tid}/canonical-schema/validate", tenantMiddleware(h.Validate))
}

// Build runs the full unification pipeline and returns the transient graph.
// Nothing is persisted besides the review row; saving is a separate call.
func (h *CanonicalHandler) Build(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	var req BuildRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
			return
		}
	}

	result, err := h.builder.Build(r.Context(), tenantID, services.BuildOptions{
		ConnectorIDs:        req.ConnectorIDs,
		ConfidenceThreshold: req.ConfidenceThreshold,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEmptyManifest), errors.Is(err, apperrors.ErrNoConnectors):
			h.writeError(w, http.StatusBadRequest, "empty_manifest", err.Error())
		default:
			h.logger.Error("build failed", zap.Error(err), zap.String("tenant_id", tenantID.String()))
			// The review row already records the failure and snapshot.
			response := result
			if response == nil {
				h.writeError(w, http.StatusInternalServerError, "build_failed", err.Error())
				return
			}
			if err := WriteJSON(w, http.StatusBadGateway, response); err != nil {
				h.logger.Error("Failed to write response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Save persists a graph as the tenant's next version, guarded by the
// expected_version optimistic concurrency check.
func (h *CanonicalHandler) Save(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if issues := services.ValidateGraph(&req.CanonicalGraph); len(issues) > 0 {
		if err := WriteJSON(w, http.StatusUnprocessableEntity, ValidateResponse{OK: false, Errors: issues}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	result, err := h.store.Save(r.Context(), tenantID, services.SaveRequest{
		BaseSchemaIDs:    req.BaseSchemaIDs,
		Graph:            req.CanonicalGraph,
		Note:             req.Note,
		ApprovedByUserID: req.ApprovedByUserID,
		ExpectedVersion:  req.ExpectedVersion,
	})
	if err != nil {
		h.logger.Error("save failed", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		h.writeError(w, http.StatusInternalServerError, "save_failed", "Failed to save canonical schema")
		return
	}

	if result.Conflict != nil || result.Record == nil {
		response := ConflictResponse{Error: "version_conflict", LatestSchema: result.Conflict}
		if result.Conflict != nil {
			response.LatestVersion = result.Conflict.Version
		}
		if err := WriteJSON(w, http.StatusConflict, response); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, result.Record); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetLatest returns the tenant's latest persisted canonical schema version.
func (h *CanonicalHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.tenantID(w, r); !ok {
		return
	}

	record, err := h.store.GetLatest(r.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "No canonical schema saved yet")
			return
		}
		h.logger.Error("get latest failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load canonical schema")
		return
	}

	if err := WriteJSON(w, http.StatusOK, record); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Validate runs structural checks over a candidate graph. Always 200; the
// issues list is the result, not an error condition.
func (h *CanonicalHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.tenantID(w, r); !ok {
		return
	}

	var graph models.CanonicalGraph
	if err := json.NewDecoder(r.Body).Decode(&graph); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	issues := services.ValidateGraph(&graph)
	response := ValidateResponse{OK: len(issues) == 0, Errors: issues}
	if response.Errors == nil {
		response.Errors = []services.ValidationIssue{}
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *CanonicalHandler) tenantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tenantID, err := uuid.Parse(r.PathValue("tid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_tenant_id", "Invalid tenant ID format")
		return uuid.Nil, false
	}
	return tenantID, true
}

func (h *CanonicalHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
