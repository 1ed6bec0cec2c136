package services

import (
	"fmt"
	"sort"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// repairConfidence marks mappings that were reconstructed rather than
// clustered, so reviewers can find them.
const repairConfidence = 0.5

// RepairCoverage guarantees that every manifest entry is reachable through
// some canonical field's mappings. Entries the clustering stage dropped are
// grouped by source entity and attached as one "<source_entity> (raw)"
// fallback field each, under a dedicated Unassigned entity. The result always
// covers the full manifest, whatever the clustering output looked like.
func RepairCoverage(graph *models.CanonicalGraph, manifest *models.Manifest) *models.CanonicalGraph {
	covered := graph.CoveredTriples()

	missingByEntity := make(map[string][]*models.ManifestEntry)
	for i := range manifest.Entries {
		entry := &manifest.Entries[i]
		if _, ok := covered[entry.Triple()]; ok {
			continue
		}
		missingByEntity[entry.SourceEntity] = append(missingByEntity[entry.SourceEntity], entry)
	}

	if len(missingByEntity) == 0 {
		return graph
	}

	// Deterministic field order regardless of map iteration.
	names := make([]string, 0, len(missingByEntity))
	for name := range missingByEntity {
		names = append(names, name)
	}
	sort.Strings(names)

	unassigned := graph.FindEntity(models.UnassignedEntityName)
	if unassigned == nil {
		graph.Entities = append(graph.Entities, models.CanonicalEntity{
			Name:        models.UnassignedEntityName,
			Description: "Source fields the clustering pass did not place; needs human review.",
		})
		unassigned = &graph.Entities[len(graph.Entities)-1]
	}

	for _, name := range names {
		fieldName := fmt.Sprintf("%s (raw)", name)
		field := unassigned.FindField(fieldName)
		if field == nil {
			unassigned.Fields = append(unassigned.Fields, models.CanonicalField{Name: fieldName})
			field = &unassigned.Fields[len(unassigned.Fields)-1]
		}
		for _, entry := range missingByEntity[name] {
			field.Mappings = append(field.Mappings, models.FieldMapping{
				ConnectorID:  entry.ConnectorID,
				SourceEntity: entry.SourceEntity,
				SourceField:  entry.SourceField,
				Confidence:   repairConfidence,
			})
		}
	}

	return graph
}
