package prompts

import (
	"fmt"
	"strings"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// RelationshipClassificationSystem is the system message for the classifier
// call.
const RelationshipClassificationSystem = `You are a data architect reviewing proposed joins between canonical entities. Respond with a single JSON object and nothing else: no markdown fences, no commentary.`

// BuildRelationshipClassificationPrompt renders deterministic relationship
// candidates as pair_id-addressed lines. The model may only accept, reject,
// or relabel listed pairs; it cannot introduce new ones.
func BuildRelationshipClassificationPrompt(candidates []models.Relationship) string {
	var prompt strings.Builder

	prompt.WriteString("# Relationship Classification\n\n")
	prompt.WriteString("The following join candidates were derived from key-shaped fields in a canonical schema, one per line:\n\n")
	prompt.WriteString("```\npair_id|from_entity.from_field|to_entity.to_field|proposed_type|score\n")
	for i, c := range candidates {
		from, to := "", ""
		if len(c.JoinOn) > 0 {
			from = c.JoinOn[0].FromField
			to = c.JoinOn[0].ToField
		}
		prompt.WriteString(fmt.Sprintf("%d|%s.%s|%s.%s|%s|%.2f\n",
			i, c.FromEntity, from, c.ToEntity, to, c.Type, c.Confidence))
	}
	prompt.WriteString("```\n\n")

	prompt.WriteString("## Task\n\n")
	prompt.WriteString("For each pair_id decide whether the join is semantically real, and if so give its cardinality.\n\n")
	prompt.WriteString("Rules:\n")
	prompt.WriteString("- Reference candidates ONLY by pair_id. Do not add pairs that are not listed.\n")
	prompt.WriteString(fmt.Sprintf("- type is one of: %s.\n", strings.Join(models.ValidRelationshipTypes, ", ")))
	prompt.WriteString("- confidence is your own belief in [0,1], independent of the listed score.\n")
	prompt.WriteString("- note briefly explains rejections and low-confidence accepts.\n\n")

	prompt.WriteString("## Response format\n\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "relationships": [
    {"pair_id": 0, "accept": true, "type": "one_to_many", "confidence": 0.9, "note": ""},
    {"pair_id": 1, "accept": false, "type": "unknown", "confidence": 0.2, "note": "coincidental name overlap"}
  ]
}`)
	prompt.WriteString("\n```\n")

	return prompt.String()
}
