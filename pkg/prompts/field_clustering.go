package prompts

import (
	"fmt"
	"strings"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// FieldClusteringSystem is the system message for the clustering call. It
// pins the response to a bare JSON object so the repair chain rarely runs.
const FieldClusteringSystem = `You are a data architect unifying heterogeneous source schemas into a single canonical model. Respond with a single JSON object and nothing else: no markdown fences, no commentary.`

// BuildFieldClusteringPrompt renders the manifest as pipe-delimited lines and
// asks for canonical entities whose fields reference source fields by
// mapping_id only. Literal source names in the response are ignored, so the
// contract keeps both the prompt and the validation exact.
func BuildFieldClusteringPrompt(manifest *models.Manifest) string {
	var prompt strings.Builder

	prompt.WriteString("# Canonical Schema Unification\n\n")
	prompt.WriteString("Below is every source field discovered across this tenant's connectors, one per line:\n\n")
	prompt.WriteString("```\nconnector_id|source_entity|source_field|declared_type|mapping_id\n")
	for i := range manifest.Entries {
		prompt.WriteString(manifest.Entries[i].Line())
		prompt.WriteString("\n")
	}
	prompt.WriteString("```\n\n")

	prompt.WriteString("## Task\n\n")
	prompt.WriteString("Group these source fields into canonical business entities. Fields from different connectors that represent the same concept (e.g. a customer email) must merge into one canonical field.\n\n")
	prompt.WriteString("Rules:\n")
	prompt.WriteString("- Every canonical field references its source fields ONLY via mapping_ids. Never restate connector or column names.\n")
	prompt.WriteString("- Assign every mapping_id to exactly one canonical field. Do not invent mapping_ids.\n")
	prompt.WriteString("- Use singular PascalCase entity names (Customer, Order, Invoice).\n")
	prompt.WriteString(fmt.Sprintf("- pii is one of: %s.\n", strings.Join(models.ValidPIILevels, ", ")))
	prompt.WriteString("- Mark primary_key and is_join_key where the field identifies rows or is used to join entities.\n\n")

	prompt.WriteString("## Response format\n\n")
	prompt.WriteString("Return exactly this JSON structure:\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "version": "pilot-1",
  "generated_at": "2026-01-01T00:00:00Z",
  "entities": [
    {
      "name": "Customer",
      "description": "A person or organization that buys from the tenant",
      "tags": ["core"],
      "fields": [
        {
          "name": "email",
          "description": "Primary contact email",
          "semantic_type": "email",
          "pii": "high",
          "primary_key": false,
          "is_join_key": false,
          "nullable": true,
          "mapping_ids": [3, 17]
        }
      ]
    }
  ]
}`)
	prompt.WriteString("\n```\n")

	return prompt.String()
}
