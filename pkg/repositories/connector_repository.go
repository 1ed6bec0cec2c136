package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/unifieddata-ai/canon-engine/pkg/database"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// ConnectorRepository provides data access for connectors and their fetched
// schema documents.
type ConnectorRepository interface {
	ListActive(ctx context.Context) ([]*models.Connector, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Connector, error)
	// GetLatestSchema returns the most recently fetched raw schema document
	// for a connector, or nil if none has been fetched yet.
	GetLatestSchema(ctx context.Context, connectorID uuid.UUID) (*models.ConnectorSchema, error)
	SaveSchema(ctx context.Context, schema *models.ConnectorSchema) error
}

type connectorRepository struct{}

// NewConnectorRepository creates a new ConnectorRepository.
func NewConnectorRepository() ConnectorRepository {
	return &connectorRepository{}
}

var _ ConnectorRepository = (*connectorRepository)(nil)

func (r *connectorRepository) ListActive(ctx context.Context) ([]*models.Connector, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, tenant_id, name, type, status
		FROM connectors
		WHERE status = 'active'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list connectors: %w", err)
	}
	defer rows.Close()

	var connectors []*models.Connector
	for rows.Next() {
		var c models.Connector
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Type, &c.Status); err != nil {
			return nil, fmt.Errorf("failed to scan connector: %w", err)
		}
		connectors = append(connectors, &c)
	}
	return connectors, rows.Err()
}

func (r *connectorRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Connector, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, tenant_id, name, type, status
		FROM connectors
		WHERE id = ANY($1)
		ORDER BY name`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get connectors: %w", err)
	}
	defer rows.Close()

	var connectors []*models.Connector
	for rows.Next() {
		var c models.Connector
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Type, &c.Status); err != nil {
			return nil, fmt.Errorf("failed to scan connector: %w", err)
		}
		connectors = append(connectors, &c)
	}
	return connectors, rows.Err()
}

func (r *connectorRepository) GetLatestSchema(ctx context.Context, connectorID uuid.UUID) (*models.ConnectorSchema, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	var (
		schema  models.ConnectorSchema
		rawJSON []byte
	)
	err := scope.Conn.QueryRow(ctx, `
		SELECT id, connector_id, tenant_id, raw_schema, fetched_at
		FROM connector_schemas
		WHERE connector_id = $1
		ORDER BY fetched_at DESC
		LIMIT 1`, connectorID).
		Scan(&schema.ID, &schema.ConnectorID, &schema.TenantID, &rawJSON, &schema.FetchedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest schema: %w", err)
	}

	if len(rawJSON) > 0 {
		if err := json.Unmarshal(rawJSON, &schema.RawSchema); err != nil {
			return nil, fmt.Errorf("failed to unmarshal raw_schema: %w", err)
		}
	}
	return &schema, nil
}

// SaveSchema stores a freshly fetched raw schema document.
func (r *connectorRepository) SaveSchema(ctx context.Context, schema *models.ConnectorSchema) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	if schema.ID == uuid.Nil {
		schema.ID = uuid.New()
	}
	rawJSON, err := json.Marshal(schema.RawSchema)
	if err != nil {
		return fmt.Errorf("failed to marshal raw_schema: %w", err)
	}

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO connector_schemas (id, connector_id, tenant_id, raw_schema, fetched_at)
		VALUES ($1, $2, $3, $4, $5)`,
		schema.ID, schema.ConnectorID, schema.TenantID, rawJSON, schema.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to save schema: %w", err)
	}
	return nil
}
