package models

import (
	"time"

	"github.com/google/uuid"
)

// Build review status values.
const (
	ReviewStatusPending   = "pending"
	ReviewStatusSucceeded = "succeeded"
	ReviewStatusFailed    = "failed"
)

// SchemaReview records one build request: what was sent to the LLM
// (input_snapshot), what came back, accumulated token usage, and terminal
// status. Failed builds keep their snapshot so an operator can inspect what
// the model was asked. Stored in schema_reviews.
type SchemaReview struct {
	ID            uuid.UUID      `json:"review_id"`
	TenantID      uuid.UUID      `json:"tenant_id"`
	Provider      string         `json:"provider"`
	Model         string         `json:"model"`
	Status        string         `json:"status"`
	ErrorMessage  *string        `json:"error_message,omitempty"`
	InputSnapshot map[string]any `json:"input_snapshot"`
	TokenUsage    map[string]any `json:"token_usage,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// GlobalCanonicalSchema is one persisted, immutable version of a tenant's
// canonical graph. Versions are strictly increasing per tenant, starting at
// 1; superseded versions are retained for audit and rollback. Unique per
// (tenant_id, version). Stored in global_canonical_schemas.
type GlobalCanonicalSchema struct {
	ID               uuid.UUID      `json:"global_canonical_id"`
	TenantID         uuid.UUID      `json:"tenant_id"`
	Version          int            `json:"version"`
	BaseSchemaIDs    []uuid.UUID    `json:"base_schema_ids"`
	CanonicalGraph   CanonicalGraph `json:"canonical_graph"`
	Note             *string        `json:"note,omitempty"`
	ApprovedByUserID *uuid.UUID     `json:"approved_by_user_id,omitempty"`
	ApprovedAt       *time.Time     `json:"approved_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Connector is a tenant-owned data source registration. Connector CRUD is
// handled elsewhere; the engine only reads active connectors and their
// latest fetched schema documents.
type Connector struct {
	ID       uuid.UUID `json:"connector_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Status   string    `json:"status"`
}

// ConnectorSchema is one fetched raw schema document for a connector.
// The document may appear in any of the shapes pkg/adapters/schemadoc
// understands.
type ConnectorSchema struct {
	ID          uuid.UUID      `json:"schema_id"`
	ConnectorID uuid.UUID      `json:"connector_id"`
	TenantID    uuid.UUID      `json:"tenant_id"`
	RawSchema   map[string]any `json:"raw_schema"`
	FetchedAt   time.Time      `json:"fetched_at"`
}
