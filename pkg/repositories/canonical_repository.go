package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/unifieddata-ai/canon-engine/pkg/apperrors"
	"github.com/unifieddata-ai/canon-engine/pkg/database"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// CanonicalRepository provides data access for persisted canonical schema
// versions. Version rows are append-only: superseded versions are never
// mutated or deleted.
type CanonicalRepository interface {
	// GetLatest returns the highest-version record for the tenant in scope,
	// or apperrors.ErrNotFound if no version has been saved yet.
	GetLatest(ctx context.Context) (*models.GlobalCanonicalSchema, error)
	// Insert appends a new version row. The unique (tenant_id, version)
	// constraint makes concurrent saves race-safe: the loser's insert fails
	// with apperrors.ErrVersionConflict.
	Insert(ctx context.Context, record *models.GlobalCanonicalSchema) error
}

type canonicalRepository struct{}

// NewCanonicalRepository creates a new CanonicalRepository.
func NewCanonicalRepository() CanonicalRepository {
	return &canonicalRepository{}
}

var _ CanonicalRepository = (*canonicalRepository)(nil)

func (r *canonicalRepository) GetLatest(ctx context.Context) (*models.GlobalCanonicalSchema, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	var (
		record    models.GlobalCanonicalSchema
		graphJSON []byte
	)
	err := scope.Conn.QueryRow(ctx, `
		SELECT id, tenant_id, version, base_schema_ids, canonical_graph,
		       note, approved_by_user_id, approved_at, created_at
		FROM global_canonical_schemas
		ORDER BY version DESC
		LIMIT 1`).
		Scan(&record.ID, &record.TenantID, &record.Version, &record.BaseSchemaIDs,
			&graphJSON, &record.Note, &record.ApprovedByUserID, &record.ApprovedAt,
			&record.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest canonical schema: %w", err)
	}

	if err := json.Unmarshal(graphJSON, &record.CanonicalGraph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal canonical_graph: %w", err)
	}
	return &record, nil
}

func (r *canonicalRepository) Insert(ctx context.Context, record *models.GlobalCanonicalSchema) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	graphJSON, err := json.Marshal(record.CanonicalGraph)
	if err != nil {
		return fmt.Errorf("failed to marshal canonical_graph: %w", err)
	}

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO global_canonical_schemas (
			id, tenant_id, version, base_schema_ids, canonical_graph,
			note, approved_by_user_id, approved_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.TenantID, record.Version, record.BaseSchemaIDs,
		graphJSON, record.Note, record.ApprovedByUserID, record.ApprovedAt,
		record.CreatedAt)
	if err != nil {
		// Unique constraint violation (PostgreSQL error code 23505) on
		// (tenant_id, version) means a concurrent save won the race.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrVersionConflict
		}
		return fmt.Errorf("failed to insert canonical schema: %w", err)
	}
	return nil
}
