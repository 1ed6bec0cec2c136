package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

func TestBuildFieldClusteringPrompt(t *testing.T) {
	manifest := models.NewManifest([]models.ManifestEntry{
		{MappingID: 0, ConnectorID: "pg-main", SourceEntity: "customers", SourceField: "id", DeclaredType: "uuid"},
		{MappingID: 1, ConnectorID: "sheets-crm", SourceEntity: "Contacts", SourceField: "Email", DeclaredType: "unknown"},
	})

	prompt := BuildFieldClusteringPrompt(manifest)

	assert.Contains(t, prompt, "connector_id|source_entity|source_field|declared_type|mapping_id")
	assert.Contains(t, prompt, "pg-main|customers|id|uuid|0")
	assert.Contains(t, prompt, "sheets-crm|Contacts|Email|unknown|1")
	assert.Contains(t, prompt, `"mapping_ids"`)
	assert.Contains(t, prompt, "exactly one canonical field")
	// PII vocabulary must be spelled out so the model doesn't invent levels.
	assert.Contains(t, prompt, "none, low, medium, high")
}

func TestBuildRelationshipClassificationPrompt(t *testing.T) {
	candidates := []models.Relationship{
		{
			Type:       models.RelUnknown,
			FromEntity: "Order",
			ToEntity:   "Customer",
			JoinOn:     []models.JoinColumn{{FromField: "customer_id", ToField: "id"}},
			Confidence: 0.85,
		},
		{
			Type:       models.RelOneToMany,
			FromEntity: "Customer",
			ToEntity:   "Invoice",
			JoinOn:     []models.JoinColumn{{FromField: "id", ToField: "customer_id"}},
			Confidence: 0.7,
		},
	}

	prompt := BuildRelationshipClassificationPrompt(candidates)

	assert.Contains(t, prompt, "0|Order.customer_id|Customer.id|unknown|0.85")
	assert.Contains(t, prompt, "1|Customer.id|Invoice.customer_id|one_to_many|0.70")
	assert.Contains(t, prompt, `"pair_id"`)
	assert.Contains(t, prompt, "Do not add pairs that are not listed")
}

func TestSystemMessagesForbidProse(t *testing.T) {
	assert.Contains(t, FieldClusteringSystem, "single JSON object")
	assert.Contains(t, RelationshipClassificationSystem, "single JSON object")
}
