//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifieddata-ai/canon-engine/pkg/apperrors"
	"github.com/unifieddata-ai/canon-engine/pkg/database"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
	"github.com/unifieddata-ai/canon-engine/pkg/testhelpers"
)

func tenantContext(t *testing.T, tenantID uuid.UUID) (context.Context, func()) {
	t.Helper()

	engineDB := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	scope, err := engineDB.DB.WithTenant(ctx, tenantID)
	require.NoError(t, err)

	return database.SetTenantScope(ctx, scope), scope.Close
}

func testGraph() models.CanonicalGraph {
	return models.CanonicalGraph{
		Version: models.GraphVersionPilot,
		Entities: []models.CanonicalEntity{
			{Name: "Orders", Fields: []models.CanonicalField{
				{Name: "order_id", PrimaryKey: true, Mappings: []models.FieldMapping{
					{ConnectorID: "pg1", SourceEntity: "orders", SourceField: "order_id", Confidence: 1.0},
				}},
			}},
		},
	}
}

func TestCanonicalRepositoryRoundTrip(t *testing.T) {
	tenantID := uuid.New()
	ctx, cleanup := tenantContext(t, tenantID)
	defer cleanup()

	repo := NewCanonicalRepository()

	_, err := repo.GetLatest(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	v1 := &models.GlobalCanonicalSchema{
		TenantID:       tenantID,
		Version:        1,
		BaseSchemaIDs:  []uuid.UUID{uuid.New()},
		CanonicalGraph: testGraph(),
	}
	require.NoError(t, repo.Insert(ctx, v1))
	assert.NotEqual(t, uuid.Nil, v1.ID)

	v2 := &models.GlobalCanonicalSchema{
		TenantID:       tenantID,
		Version:        2,
		CanonicalGraph: testGraph(),
	}
	require.NoError(t, repo.Insert(ctx, v2))

	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	require.Len(t, latest.CanonicalGraph.Entities, 1)
	assert.Equal(t, "Orders", latest.CanonicalGraph.Entities[0].Name)
	require.Len(t, latest.CanonicalGraph.Entities[0].Fields, 1)
	assert.Equal(t, 1.0, latest.CanonicalGraph.Entities[0].Fields[0].Mappings[0].Confidence)
}

func TestCanonicalRepositoryVersionUniqueness(t *testing.T) {
	tenantID := uuid.New()
	ctx, cleanup := tenantContext(t, tenantID)
	defer cleanup()

	repo := NewCanonicalRepository()

	first := &models.GlobalCanonicalSchema{TenantID: tenantID, Version: 1, CanonicalGraph: testGraph()}
	require.NoError(t, repo.Insert(ctx, first))

	dup := &models.GlobalCanonicalSchema{TenantID: tenantID, Version: 1, CanonicalGraph: testGraph()}
	err := repo.Insert(ctx, dup)
	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)

	// The losing insert left no row behind.
	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)
}

func TestReviewRepositoryLifecycle(t *testing.T) {
	tenantID := uuid.New()
	ctx, cleanup := tenantContext(t, tenantID)
	defer cleanup()

	repo := NewReviewRepository()

	review := &models.SchemaReview{
		TenantID: tenantID,
		Provider: "anthropic",
		Model:    "claude-sonnet-4-20250514",
		InputSnapshot: map[string]any{
			"manifest": []any{"pg1|orders|order_id|int|0"},
		},
	}
	require.NoError(t, repo.Create(ctx, review))
	assert.Equal(t, models.ReviewStatusPending, review.Status)

	review.Status = models.ReviewStatusSucceeded
	review.TokenUsage = map[string]any{"input_tokens": float64(120)}
	require.NoError(t, repo.Complete(ctx, review))

	loaded, err := repo.GetByID(ctx, review.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, models.ReviewStatusSucceeded, loaded.Status)
	assert.NotNil(t, loaded.CompletedAt)
	assert.Equal(t, float64(120), loaded.TokenUsage["input_tokens"])
	assert.Contains(t, loaded.InputSnapshot, "manifest")
}

func TestConnectorRepositorySchemas(t *testing.T) {
	tenantID := uuid.New()
	ctx, cleanup := tenantContext(t, tenantID)
	defer cleanup()

	connectorID := seedConnector(t, ctx, tenantID, "main-db", "postgres")
	repo := NewConnectorRepository()

	// No schema fetched yet.
	schema, err := repo.GetLatestSchema(ctx, connectorID)
	require.NoError(t, err)
	assert.Nil(t, schema)

	older := &models.ConnectorSchema{
		ConnectorID: connectorID,
		TenantID:    tenantID,
		RawSchema:   map[string]any{"tables": []any{}},
		FetchedAt:   mustParseTime(t, "2026-01-01T00:00:00Z"),
	}
	require.NoError(t, repo.SaveSchema(ctx, older))

	newer := &models.ConnectorSchema{
		ConnectorID: connectorID,
		TenantID:    tenantID,
		RawSchema: map[string]any{
			"tables": []any{map[string]any{"name": "orders", "columns": []any{"order_id"}}},
		},
		FetchedAt: mustParseTime(t, "2026-02-01T00:00:00Z"),
	}
	require.NoError(t, repo.SaveSchema(ctx, newer))

	latest, err := repo.GetLatestSchema(ctx, connectorID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.ID, latest.ID)
	assert.Contains(t, latest.RawSchema, "tables")

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, active)
}
