package services

import (
	"fmt"
	"strings"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// ValidationIssue locates one structural problem in a candidate graph.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidateGraph runs structural checks over a user-edited graph: required
// names, enum domains, duplicate entity/field detection, and relationship
// references. It never rejects by raising; issues come back as a list so an
// editing UI can annotate them in place. An empty list means the graph is
// structurally sound.
func ValidateGraph(graph *models.CanonicalGraph) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if graph == nil {
		return []ValidationIssue{{Path: "", Message: "graph is required"}}
	}

	entityNames := make(map[string]struct{})
	for ei, entity := range graph.Entities {
		entityPath := fmt.Sprintf("entities[%d]", ei)

		if entity.Name == "" {
			add(entityPath+".name", "entity name is required")
		} else {
			lower := strings.ToLower(entity.Name)
			if _, dup := entityNames[lower]; dup {
				add(entityPath+".name", "duplicate entity name %q", entity.Name)
			}
			entityNames[lower] = struct{}{}
		}

		fieldNames := make(map[string]struct{})
		for fi, field := range entity.Fields {
			fieldPath := fmt.Sprintf("%s.fields[%d]", entityPath, fi)

			if field.Name == "" {
				add(fieldPath+".name", "field name is required")
			} else {
				lower := strings.ToLower(field.Name)
				if _, dup := fieldNames[lower]; dup {
					add(fieldPath+".name", "duplicate field name %q in entity %q", field.Name, entity.Name)
				}
				fieldNames[lower] = struct{}{}
			}

			if field.PII != "" && !contains(models.ValidPIILevels, field.PII) {
				add(fieldPath+".pii", "invalid pii level %q, expected one of %s",
					field.PII, strings.Join(models.ValidPIILevels, ", "))
			}

			for mi, m := range field.Mappings {
				mappingPath := fmt.Sprintf("%s.mappings[%d]", fieldPath, mi)
				if m.ConnectorID == "" {
					add(mappingPath+".connector_id", "connector_id is required")
				}
				if m.SourceEntity == "" {
					add(mappingPath+".source_entity", "source_entity is required")
				}
				if m.SourceField == "" {
					add(mappingPath+".source_field", "source_field is required")
				}
				if m.Confidence < 0 || m.Confidence > 1 {
					add(mappingPath+".confidence", "confidence %v out of range [0,1]", m.Confidence)
				}
			}
		}
	}

	for ri, rel := range graph.Relationships {
		relPath := fmt.Sprintf("relationships[%d]", ri)

		if !contains(models.ValidRelationshipTypes, rel.Type) {
			add(relPath+".type", "invalid relationship type %q, expected one of %s",
				rel.Type, strings.Join(models.ValidRelationshipTypes, ", "))
		}
		if rel.Confidence < 0 || rel.Confidence > 1 {
			add(relPath+".confidence", "confidence %v out of range [0,1]", rel.Confidence)
		}

		fromEntity := graph.FindEntity(rel.FromEntity)
		if fromEntity == nil {
			add(relPath+".from_entity", "unknown entity %q", rel.FromEntity)
		}
		toEntity := graph.FindEntity(rel.ToEntity)
		if toEntity == nil {
			add(relPath+".to_entity", "unknown entity %q", rel.ToEntity)
		}

		if len(rel.JoinOn) == 0 {
			add(relPath+".join_on", "at least one join column pair is required")
		}
		for ji, jc := range rel.JoinOn {
			joinPath := fmt.Sprintf("%s.join_on[%d]", relPath, ji)
			if fromEntity != nil && fromEntity.FindField(jc.FromField) == nil {
				add(joinPath+".from_field", "field %q not found in entity %q", jc.FromField, rel.FromEntity)
			}
			if toEntity != nil && toEntity.FindField(jc.ToField) == nil {
				add(joinPath+".to_field", "field %q not found in entity %q", jc.ToField, rel.ToEntity)
			}
		}
	}

	return issues
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
