package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

func TestRepairCoverageFullCoverageIsNoop(t *testing.T) {
	manifest := testManifest()
	graph := &models.CanonicalGraph{
		Entities: []models.CanonicalEntity{
			{Name: "Orders", Fields: []models.CanonicalField{
				{Name: "order_id", Mappings: []models.FieldMapping{{ConnectorID: "pg1", SourceEntity: "orders", SourceField: "order_id", Confidence: 1.0}}},
				{Name: "customer_id", Mappings: []models.FieldMapping{{ConnectorID: "pg1", SourceEntity: "orders", SourceField: "customer_id", Confidence: 1.0}}},
			}},
			{Name: "Customers", Fields: []models.CanonicalField{
				{Name: "customer_id", Mappings: []models.FieldMapping{{ConnectorID: "pg1", SourceEntity: "customers", SourceField: "customer_id", Confidence: 1.0}}},
			}},
		},
	}

	repaired := RepairCoverage(graph, manifest)
	assert.Nil(t, repaired.FindEntity(models.UnassignedEntityName))
	assert.Len(t, repaired.CoveredTriples(), manifest.Len())
}

func TestRepairCoverageSynthesizesFallbackFields(t *testing.T) {
	manifest := testManifest()
	// Clustering placed only mapping 0; 1 and 2 were dropped.
	graph := &models.CanonicalGraph{
		Entities: []models.CanonicalEntity{
			{Name: "Orders", Fields: []models.CanonicalField{
				{Name: "order_id", Mappings: []models.FieldMapping{{ConnectorID: "pg1", SourceEntity: "orders", SourceField: "order_id", Confidence: 1.0}}},
			}},
		},
	}

	repaired := RepairCoverage(graph, manifest)
	assert.Len(t, repaired.CoveredTriples(), manifest.Len())

	unassigned := repaired.FindEntity(models.UnassignedEntityName)
	require.NotNil(t, unassigned)

	ordersRaw := unassigned.FindField("orders (raw)")
	require.NotNil(t, ordersRaw)
	require.Len(t, ordersRaw.Mappings, 1)
	assert.Equal(t, "customer_id", ordersRaw.Mappings[0].SourceField)
	assert.Equal(t, 0.5, ordersRaw.Mappings[0].Confidence)

	customersRaw := unassigned.FindField("customers (raw)")
	require.NotNil(t, customersRaw)
	assert.Equal(t, 0.5, customersRaw.Mappings[0].Confidence)
}

func TestRepairCoverageEmptyClusteringResponse(t *testing.T) {
	// Worst case: the model returned nothing usable. Every manifest entry
	// must still be reachable afterwards.
	manifest := testManifest()
	repaired := RepairCoverage(&models.CanonicalGraph{}, manifest)

	assert.Len(t, repaired.CoveredTriples(), manifest.Len())
	require.Len(t, repaired.Entities, 1)
	assert.Equal(t, models.UnassignedEntityName, repaired.Entities[0].Name)
}
