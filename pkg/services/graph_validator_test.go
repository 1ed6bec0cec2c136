package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

func validGraph() *models.CanonicalGraph {
	return &models.CanonicalGraph{
		Version: models.GraphVersionPilot,
		Entities: []models.CanonicalEntity{
			{Name: "Orders", Fields: []models.CanonicalField{
				{Name: "order_id", PII: models.PIINone, Mappings: []models.FieldMapping{mapping("pg1", "orders", "order_id")}},
				{Name: "customer_id", Mappings: []models.FieldMapping{mapping("pg1", "orders", "customer_id")}},
			}},
			{Name: "Customers", Fields: []models.CanonicalField{
				{Name: "customer_id", Mappings: []models.FieldMapping{mapping("pg1", "customers", "customer_id")}},
			}},
		},
		Relationships: []models.Relationship{
			{
				Type:       models.RelManyToOne,
				FromEntity: "Orders",
				ToEntity:   "Customers",
				JoinOn:     []models.JoinColumn{{FromField: "customer_id", ToField: "customer_id"}},
				Confidence: 0.9,
			},
		},
	}
}

func issuePaths(issues []ValidationIssue) []string {
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	return paths
}

func TestValidateGraphAcceptsSoundGraph(t *testing.T) {
	assert.Empty(t, ValidateGraph(validGraph()))
}

func TestValidateGraphNil(t *testing.T) {
	issues := ValidateGraph(nil)
	require.Len(t, issues, 1)
}

func TestValidateGraphDuplicateNames(t *testing.T) {
	graph := validGraph()
	graph.Entities = append(graph.Entities, models.CanonicalEntity{
		Name: "orders", // case-insensitive duplicate
		Fields: []models.CanonicalField{
			{Name: "x", Mappings: []models.FieldMapping{mapping("pg1", "t", "x")}},
		},
	})
	graph.Entities[0].Fields = append(graph.Entities[0].Fields, models.CanonicalField{Name: "ORDER_ID"})

	issues := ValidateGraph(graph)
	paths := issuePaths(issues)
	assert.Contains(t, paths, "entities[2].name")
	assert.Contains(t, paths, "entities[0].fields[2].name")
}

func TestValidateGraphEnumDomains(t *testing.T) {
	graph := validGraph()
	graph.Entities[0].Fields[0].PII = "severe"
	graph.Relationships[0].Type = "belongs_to"
	graph.Relationships[0].Confidence = 1.5

	issues := ValidateGraph(graph)
	paths := issuePaths(issues)
	assert.Contains(t, paths, "entities[0].fields[0].pii")
	assert.Contains(t, paths, "relationships[0].type")
	assert.Contains(t, paths, "relationships[0].confidence")
}

func TestValidateGraphRelationshipReferences(t *testing.T) {
	graph := validGraph()
	graph.Relationships = append(graph.Relationships, models.Relationship{
		Type:       models.RelOneToOne,
		FromEntity: "Orders",
		ToEntity:   "Ghost",
		JoinOn:     []models.JoinColumn{{FromField: "nope", ToField: "customer_id"}},
		Confidence: 0.8,
	})

	issues := ValidateGraph(graph)
	paths := issuePaths(issues)
	assert.Contains(t, paths, "relationships[1].to_entity")
	assert.Contains(t, paths, "relationships[1].join_on[0].from_field")
	// to_field is not checkable when the target entity is unknown.
	assert.NotContains(t, paths, "relationships[1].join_on[0].to_field")
}

func TestValidateGraphRequiredFields(t *testing.T) {
	graph := &models.CanonicalGraph{
		Entities: []models.CanonicalEntity{
			{Name: "", Fields: []models.CanonicalField{
				{Name: "", Mappings: []models.FieldMapping{{Confidence: 2.0}}},
			}},
		},
		Relationships: []models.Relationship{
			{Type: models.RelOneToOne, FromEntity: "Missing", ToEntity: "AlsoMissing", Confidence: 0.8},
		},
	}

	issues := ValidateGraph(graph)
	paths := issuePaths(issues)
	assert.Contains(t, paths, "entities[0].name")
	assert.Contains(t, paths, "entities[0].fields[0].name")
	assert.Contains(t, paths, "entities[0].fields[0].mappings[0].connector_id")
	assert.Contains(t, paths, "entities[0].fields[0].mappings[0].confidence")
	assert.Contains(t, paths, "relationships[0].join_on")
}
