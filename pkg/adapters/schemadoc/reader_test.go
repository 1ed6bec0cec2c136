package schemadoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTablesShape(t *testing.T) {
	doc := map[string]any{
		"tables": []any{
			map[string]any{
				"name": "customers",
				"columns": []any{
					map[string]any{"name": "id", "type": "uuid"},
					map[string]any{"name": "email", "dtype": "text"},
					"created_at",
				},
			},
			map[string]any{
				"name":    "empty_table",
				"columns": []any{},
			},
		},
	}

	fields := DefaultRegistry().Extract(doc)
	require.Len(t, fields, 3)
	assert.Equal(t, SourceField{Entity: "customers", Field: "id", DeclaredType: "uuid"}, fields[0])
	assert.Equal(t, SourceField{Entity: "customers", Field: "email", DeclaredType: "text"}, fields[1])
	assert.Equal(t, SourceField{Entity: "customers", Field: "created_at", DeclaredType: "unknown"}, fields[2])
}

func TestExtractNestedSchemasShape(t *testing.T) {
	doc := map[string]any{
		"schemas": map[string]any{
			"public": map[string]any{
				"tables": map[string]any{
					"orders": []any{
						map[string]any{"name": "order_id", "data_type": "bigint"},
						"total",
					},
				},
			},
		},
	}

	fields := DefaultRegistry().Extract(doc)
	require.Len(t, fields, 2)
	byField := map[string]SourceField{}
	for _, f := range fields {
		byField[f.Field] = f
	}
	assert.Equal(t, "public.orders", byField["order_id"].Entity)
	assert.Equal(t, "bigint", byField["order_id"].DeclaredType)
	assert.Equal(t, "unknown", byField["total"].DeclaredType)
}

func TestExtractNestedSchemasDeterministicOrder(t *testing.T) {
	doc := map[string]any{
		"schemas": map[string]any{
			"sales": map[string]any{
				"tables": map[string]any{
					"orders":    []any{"id"},
					"invoices":  []any{"id"},
					"customers": []any{"id"},
				},
			},
			"public": map[string]any{
				"tables": map[string]any{
					"widgets": []any{"id"},
					"gadgets": []any{"id"},
				},
			},
		},
	}

	first := DefaultRegistry().Extract(doc)
	require.Len(t, first, 5)

	entities := make([]string, len(first))
	for i, f := range first {
		entities[i] = f.Entity
	}
	assert.Equal(t, []string{
		"public.gadgets",
		"public.widgets",
		"sales.customers",
		"sales.invoices",
		"sales.orders",
	}, entities)

	// Repeated extraction of the same document keeps the exact row order,
	// so mapping IDs assigned downstream are stable across builds.
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DefaultRegistry().Extract(doc))
	}
}

func TestExtractRelationsShape(t *testing.T) {
	doc := map[string]any{
		"relations": []any{
			map[string]any{
				"table":   "invoices",
				"columns": []any{"invoice_id", map[string]any{"name": "amount", "type": "numeric"}},
			},
		},
	}

	fields := DefaultRegistry().Extract(doc)
	require.Len(t, fields, 2)
	assert.Equal(t, "invoices", fields[0].Entity)
	assert.Equal(t, "invoice_id", fields[0].Field)
	assert.Equal(t, "numeric", fields[1].DeclaredType)
}

func TestExtractEntitiesShape(t *testing.T) {
	doc := map[string]any{
		"entities": []any{
			map[string]any{
				"id":     "sheet-1",
				"fields": []any{"Name", "Email"},
			},
			map[string]any{
				"name":   "Contacts",
				"fields": []any{map[string]any{"name": "phone"}},
			},
		},
	}

	fields := DefaultRegistry().Extract(doc)
	require.Len(t, fields, 3)
	assert.Equal(t, "sheet-1", fields[0].Entity)
	assert.Equal(t, "Contacts", fields[2].Entity)
	assert.Equal(t, "phone", fields[2].Field)
}

func TestExtractUnwrapsSchemaEnvelope(t *testing.T) {
	doc := map[string]any{
		"schema": map[string]any{
			"tables": []any{
				map[string]any{"name": "t", "columns": []any{"a"}},
			},
		},
		"fetched_at": "2026-01-02T03:04:05Z",
	}

	fields := DefaultRegistry().Extract(doc)
	require.Len(t, fields, 1)
	assert.Equal(t, "t", fields[0].Entity)
}

func TestExtractNoShapeMatches(t *testing.T) {
	assert.Nil(t, DefaultRegistry().Extract(map[string]any{"rows": []any{}}))
	assert.Nil(t, DefaultRegistry().Extract(nil))
}

func TestExtractShapeMatchWithNoFields(t *testing.T) {
	// A matching shape with zero usable columns is still a match, not a
	// fallthrough to later readers.
	doc := map[string]any{
		"tables":   []any{map[string]any{"name": "bare"}},
		"entities": []any{map[string]any{"name": "e", "fields": []any{"x"}}},
	}
	fields := DefaultRegistry().Extract(doc)
	assert.Empty(t, fields)
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry(entitiesReader{}, tablesReader{})
	doc := map[string]any{
		"tables":   []any{map[string]any{"name": "t", "columns": []any{"a"}}},
		"entities": []any{map[string]any{"name": "e", "fields": []any{"x"}}},
	}
	fields := r.Extract(doc)
	require.Len(t, fields, 1)
	assert.Equal(t, "e", fields[0].Entity)
}
