package services

import (
	"strings"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// ResolveAnchors collapses accidental splits of one physical source table
// across multiple canonical entities. For each source entity the canonical
// entity holding the most of its mapping rows becomes its anchor; mapping
// sub-groups sitting elsewhere are moved to a same-named field under the
// anchor. Entities emptied by the moves are dropped.
//
// The pass is deterministic and idempotent: its output is a fixed point.
func ResolveAnchors(graph *models.CanonicalGraph) *models.CanonicalGraph {
	anchors := anchorTally(graph)

	type relocation struct {
		anchor    string
		fieldName string
		mappings  []models.FieldMapping
	}
	var moves []relocation

	for ei := range graph.Entities {
		entity := &graph.Entities[ei]
		for fi := range entity.Fields {
			field := &entity.Fields[fi]

			var kept []models.FieldMapping
			bySource := make(map[string][]models.FieldMapping)
			var sourceOrder []string
			for _, m := range field.Mappings {
				anchor := anchors[strings.ToLower(m.SourceEntity)]
				if strings.EqualFold(anchor, entity.Name) || anchor == "" {
					kept = append(kept, m)
					continue
				}
				if _, seen := bySource[anchor]; !seen {
					sourceOrder = append(sourceOrder, anchor)
				}
				bySource[anchor] = append(bySource[anchor], m)
			}

			if len(bySource) == 0 {
				continue
			}
			field.Mappings = kept
			for _, anchor := range sourceOrder {
				moves = append(moves, relocation{
					anchor:    anchor,
					fieldName: field.Name,
					mappings:  bySource[anchor],
				})
			}
		}
	}

	for _, mv := range moves {
		target := graph.FindEntity(mv.anchor)
		if target == nil {
			// Anchors are tallied from entities present in the graph, so
			// this only happens if the anchor itself was emptied below.
			graph.Entities = append(graph.Entities, models.CanonicalEntity{Name: mv.anchor})
			target = &graph.Entities[len(graph.Entities)-1]
		}
		field := target.FindField(mv.fieldName)
		if field == nil {
			target.Fields = append(target.Fields, models.CanonicalField{Name: mv.fieldName})
			field = &target.Fields[len(target.Fields)-1]
		}
		field.Mappings = append(field.Mappings, mv.mappings...)
	}

	// Drop fields left without mappings, then entities left without fields.
	pruned := graph.Entities[:0]
	for _, entity := range graph.Entities {
		fields := entity.Fields[:0]
		for _, f := range entity.Fields {
			if len(f.Mappings) > 0 {
				fields = append(fields, f)
			}
		}
		entity.Fields = fields
		if len(entity.Fields) > 0 {
			pruned = append(pruned, entity)
		}
	}
	graph.Entities = pruned

	return graph
}

// anchorTally maps each lowercased source entity to the canonical entity
// name holding the most of its mapping rows. Ties resolve to the entity
// appearing first in the graph, keeping the pass deterministic.
func anchorTally(graph *models.CanonicalGraph) map[string]string {
	type count struct {
		entity string
		rows   int
		order  int
	}
	best := make(map[string]count)

	for ei := range graph.Entities {
		entity := &graph.Entities[ei]
		perSource := make(map[string]int)
		for fi := range entity.Fields {
			for _, m := range entity.Fields[fi].Mappings {
				perSource[strings.ToLower(m.SourceEntity)]++
			}
		}
		for source, rows := range perSource {
			cur, ok := best[source]
			if !ok || rows > cur.rows || (rows == cur.rows && ei < cur.order) {
				best[source] = count{entity: entity.Name, rows: rows, order: ei}
			}
		}
	}

	anchors := make(map[string]string, len(best))
	for source, c := range best {
		anchors[source] = c.entity
	}
	return anchors
}
