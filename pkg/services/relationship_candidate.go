package services

import (
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// CandidateConfig bounds the deterministic relationship candidate search.
type CandidateConfig struct {
	MinScore   float64
	MaxPerPair int
	MaxGlobal  int
}

// DefaultCandidateConfig returns the standard bounds: score floor 0.7,
// 5 candidates per entity pair, 300 globally. The caps keep the classifier
// prompt inside a predictable context size.
func DefaultCandidateConfig() CandidateConfig {
	return CandidateConfig{
		MinScore:   0.7,
		MaxPerPair: 5,
		MaxGlobal:  300,
	}
}

// keyField is one join-key-like canonical field flattened for pairing.
type keyField struct {
	entity     string
	field      *models.CanonicalField
	names      []string // canonical name plus source field names
	idShaped   bool
	primaryKey bool
	joinKey    bool
}

// GenerateRelationshipCandidates proposes joins between join-key-like fields
// of different canonical entities. Purely deterministic, no LLM call; it runs
// on the post-anchoring graph so repaired fallback fields participate too.
//
// Pair score:
//
//	0.75 * max(exact_name_match, token_jaccard)
//	+ 0.20 if one side is a primary key and the other a join key
//	+ 0.05 if both sides look identifier-shaped
func GenerateRelationshipCandidates(graph *models.CanonicalGraph, cfg CandidateConfig) []models.Relationship {
	keys := collectKeyFields(graph)

	type scored struct {
		rel   models.Relationship
		score float64
		order int
	}
	var candidates []scored

	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			a, b := keys[i], keys[j]
			if strings.EqualFold(a.entity, b.entity) {
				continue
			}

			nameScore := bestNameScore(a.names, b.names)
			score := 0.75 * nameScore
			pkJoin := (a.primaryKey && b.joinKey) || (b.primaryKey && a.joinKey)
			if pkJoin {
				score += 0.20
			}
			if a.idShaped && b.idShaped {
				score += 0.05
			}
			if score < cfg.MinScore {
				continue
			}

			rel := models.Relationship{
				Type:       models.RelUnknown,
				FromEntity: a.entity,
				ToEntity:   b.entity,
				JoinOn:     []models.JoinColumn{{FromField: a.field.Name, ToField: b.field.Name}},
				Confidence: score,
			}
			// Primary-key side is the "one" side.
			if a.primaryKey && b.joinKey {
				rel.Type = models.RelOneToMany
			} else if b.primaryKey && a.joinKey {
				rel.Type = models.RelOneToMany
				rel.FromEntity, rel.ToEntity = b.entity, a.entity
				rel.JoinOn = []models.JoinColumn{{FromField: b.field.Name, ToField: a.field.Name}}
			}

			candidates = append(candidates, scored{rel: rel, score: score, order: len(candidates)})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	perPair := make(map[string]int)
	var out []models.Relationship
	for _, c := range candidates {
		if len(out) >= cfg.MaxGlobal {
			break
		}
		pairKey := entityPairKey(c.rel.FromEntity, c.rel.ToEntity)
		if perPair[pairKey] >= cfg.MaxPerPair {
			continue
		}
		perPair[pairKey]++
		out = append(out, c.rel)
	}
	return out
}

// entityPairKey keys an unordered entity pair, case-insensitive.
func entityPairKey(a, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// collectKeyFields selects fields worth pairing: primary keys, declared join
// keys, and anything identifier-shaped by name or semantic type. Source field
// names count as names too, so repaired "<table> (raw)" fallback fields keep
// their underlying key columns discoverable.
func collectKeyFields(graph *models.CanonicalGraph) []keyField {
	var keys []keyField
	for ei := range graph.Entities {
		entity := &graph.Entities[ei]
		for fi := range entity.Fields {
			field := &entity.Fields[fi]

			names := []string{field.Name}
			for _, m := range field.Mappings {
				names = append(names, m.SourceField)
			}

			idShaped := identifierSemanticType(field.SemanticType)
			for _, n := range names {
				if identifierShapedName(n) {
					idShaped = true
					break
				}
			}

			if !field.PrimaryKey && !field.IsJoinKey && !idShaped {
				continue
			}
			keys = append(keys, keyField{
				entity:     entity.Name,
				field:      field,
				names:      names,
				idShaped:   idShaped,
				primaryKey: field.PrimaryKey,
				joinKey:    field.IsJoinKey,
			})
		}
	}
	return keys
}

func identifierShapedName(name string) bool {
	n := strings.ToLower(name)
	return n == "id" || strings.HasSuffix(n, "_id") || strings.HasSuffix(n, "id")
}

func identifierSemanticType(semanticType string) bool {
	switch strings.ToLower(semanticType) {
	case "identifier", "id", "key":
		return true
	}
	return false
}

// bestNameScore returns the highest name-similarity across the cross product
// of both fields' names: 1.0 for a case-insensitive exact match, otherwise
// the Jaccard overlap of singularized name tokens.
func bestNameScore(aNames, bNames []string) float64 {
	best := 0.0
	for _, a := range aNames {
		for _, b := range bNames {
			var s float64
			if strings.EqualFold(a, b) {
				s = 1.0
			} else {
				s = tokenJaccard(a, b)
			}
			if s > best {
				best = s
			}
		}
	}
	return best
}

// tokenJaccard computes set overlap of lowercased, singularized name tokens,
// so "customer_id" and "customers" still intersect on "customer".
func tokenJaccard(a, b string) float64 {
	ta := nameTokens(a)
	tb := nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func nameTokens(name string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' ' || r == '(' || r == ')'
	}) {
		tokens[inflection.Singular(tok)] = struct{}{}
	}
	return tokens
}
