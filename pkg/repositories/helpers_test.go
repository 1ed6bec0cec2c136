//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/unifieddata-ai/canon-engine/pkg/database"
)

func seedConnector(t *testing.T, ctx context.Context, tenantID uuid.UUID, name, connType string) uuid.UUID {
	t.Helper()

	scope, ok := database.GetTenantScope(ctx)
	require.True(t, ok)

	id := uuid.New()
	_, err := scope.Conn.Exec(ctx, `
		INSERT INTO connectors (id, tenant_id, name, type, status)
		VALUES ($1, $2, $3, $4, 'active')`,
		id, tenantID, name, connType)
	require.NoError(t, err)
	return id
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}
