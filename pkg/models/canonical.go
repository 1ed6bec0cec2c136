package models

import (
	"strings"
	"time"
)

// GraphVersionPilot is the default canonical graph version stamped by the
// assembler when the clustering stage omits one.
const GraphVersionPilot = "pilot-1"

// PII sensitivity levels for canonical fields.
const (
	PIINone   = "none"
	PIILow    = "low"
	PIIMedium = "medium"
	PIIHigh   = "high"
)

// ValidPIILevels enumerates the accepted pii values.
var ValidPIILevels = []string{PIINone, PIILow, PIIMedium, PIIHigh}

// Relationship types between canonical entities.
const (
	RelOneToOne   = "one_to_one"
	RelOneToMany  = "one_to_many"
	RelManyToOne  = "many_to_one"
	RelManyToMany = "many_to_many"
	RelUnknown    = "unknown"
)

// ValidRelationshipTypes enumerates the accepted relationship type values.
var ValidRelationshipTypes = []string{RelOneToOne, RelOneToMany, RelManyToOne, RelManyToMany, RelUnknown}

// UnassignedEntityName is the dedicated entity that holds fallback fields
// synthesized by the coverage repairer for source fields the clustering
// stage dropped.
const UnassignedEntityName = "Unassigned"

// FieldMapping links a canonical field back to one source field.
// Confidence is 1.0 for LLM-clustered mappings and 0.5 for repair-synthesized
// ones, signalling "not clustered, needs human review" downstream.
type FieldMapping struct {
	ConnectorID  string  `json:"connector_id"`
	SourceEntity string  `json:"source_entity"`
	SourceField  string  `json:"source_field"`
	Confidence   float64 `json:"confidence"`
}

// Triple returns the value-equality key for this mapping.
func (m *FieldMapping) Triple() Triple {
	return Triple{
		ConnectorID:  m.ConnectorID,
		SourceEntity: m.SourceEntity,
		SourceField:  m.SourceField,
	}
}

// CanonicalField is a unified field within a canonical entity. Its mappings
// list is the only link back to manifest entries.
type CanonicalField struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	SemanticType string         `json:"semantic_type,omitempty"`
	PII          string         `json:"pii,omitempty"`
	PrimaryKey   bool           `json:"primary_key"`
	IsJoinKey    bool           `json:"is_join_key"`
	Nullable     bool           `json:"nullable"`
	Mappings     []FieldMapping `json:"mappings"`
}

// CanonicalEntity groups canonical fields under one unified business
// concept. Entity names are the clustering key; uniqueness is
// case-insensitive.
type CanonicalEntity struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Fields      []CanonicalField `json:"fields"`
}

// FindField returns the field with the given name (case-insensitive),
// or nil if absent.
func (e *CanonicalEntity) FindField(name string) *CanonicalField {
	for i := range e.Fields {
		if strings.EqualFold(e.Fields[i].Name, name) {
			return &e.Fields[i]
		}
	}
	return nil
}

// JoinColumn is one from/to field pair a relationship joins on.
type JoinColumn struct {
	FromField string `json:"from_field"`
	ToField   string `json:"to_field"`
}

// Relationship is an inferred cross-entity join, either a deterministic
// candidate or a classifier-confirmed edge.
type Relationship struct {
	Type       string       `json:"type"`
	FromEntity string       `json:"from_entity"`
	ToEntity   string       `json:"to_entity"`
	JoinOn     []JoinColumn `json:"join_on"`
	Confidence float64      `json:"confidence"`
	Note       string       `json:"note,omitempty"`
}

// CanonicalGraph is the unified, deduplicated schema produced by one build.
// It is transient until explicitly saved as a GlobalCanonicalSchema version.
type CanonicalGraph struct {
	Version       string            `json:"version"`
	GeneratedAt   time.Time         `json:"generated_at"`
	Entities      []CanonicalEntity `json:"entities"`
	Relationships []Relationship    `json:"relationships"`
}

// FindEntity returns the entity with the given name (case-insensitive),
// or nil if absent.
func (g *CanonicalGraph) FindEntity(name string) *CanonicalEntity {
	for i := range g.Entities {
		if strings.EqualFold(g.Entities[i].Name, name) {
			return &g.Entities[i]
		}
	}
	return nil
}

// CoveredTriples collects every (connector_id, source_entity, source_field)
// triple reachable through the graph's field mappings.
func (g *CanonicalGraph) CoveredTriples() map[Triple]struct{} {
	covered := make(map[Triple]struct{})
	for i := range g.Entities {
		for j := range g.Entities[i].Fields {
			for _, m := range g.Entities[i].Fields[j].Mappings {
				covered[m.Triple()] = struct{}{}
			}
		}
	}
	return covered
}
