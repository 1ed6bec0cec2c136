package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/adapters/schemadoc"
	"github.com/unifieddata-ai/canon-engine/pkg/apperrors"
)

func TestManifestBuilderAssignsSequentialIDs(t *testing.T) {
	builder := NewManifestBuilder(schemadoc.DefaultRegistry(), zap.NewNop())

	manifest, err := builder.Build([]ConnectorDocument{
		{
			ConnectorID:   "pg-main",
			ConnectorType: "postgres",
			Document: map[string]any{
				"tables": []any{
					map[string]any{"name": "orders", "columns": []any{"order_id", "total"}},
				},
			},
		},
		{
			ConnectorID:   "sheets-crm",
			ConnectorType: "gsheets",
			Document: map[string]any{
				"entities": []any{
					map[string]any{"name": "Contacts", "fields": []any{"Email"}},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3, manifest.Len())

	for i, entry := range manifest.Entries {
		assert.Equal(t, i, entry.MappingID)
	}
	assert.Equal(t, "pg-main", manifest.Entries[0].ConnectorID)
	assert.Equal(t, "sheets-crm", manifest.Entries[2].ConnectorID)
	assert.Equal(t, "Email", manifest.Lookup(2).SourceField)
}

func TestManifestBuilderSkipsUnrecognizedDocuments(t *testing.T) {
	builder := NewManifestBuilder(schemadoc.DefaultRegistry(), zap.NewNop())

	manifest, err := builder.Build([]ConnectorDocument{
		{ConnectorID: "bad", Document: map[string]any{"rows": []any{}}},
		{
			ConnectorID: "good",
			Document: map[string]any{
				"tables": []any{map[string]any{"name": "t", "columns": []any{"a"}}},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.Len())
	assert.Equal(t, "good", manifest.Entries[0].ConnectorID)
}

func TestManifestBuilderEmptyManifest(t *testing.T) {
	builder := NewManifestBuilder(schemadoc.DefaultRegistry(), zap.NewNop())

	_, err := builder.Build(nil)
	assert.ErrorIs(t, err, apperrors.ErrEmptyManifest)

	_, err = builder.Build([]ConnectorDocument{
		{ConnectorID: "c1", Document: map[string]any{"unrecognized": true}},
	})
	assert.ErrorIs(t, err, apperrors.ErrEmptyManifest)
}
