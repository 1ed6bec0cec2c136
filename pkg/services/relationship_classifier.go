package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/llm"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
	"github.com/unifieddata-ai/canon-engine/pkg/prompts"
)

// DefaultConfidenceThreshold filters classifier output when the tenant has
// not configured one.
const DefaultConfidenceThreshold = 0.6

// classifierResponse mirrors the classification call's output contract.
type classifierResponse struct {
	Relationships []struct {
		PairID     int     `json:"pair_id"`
		Accept     bool    `json:"accept"`
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
		Note       string  `json:"note"`
	} `json:"relationships"`
}

// ClassifyResult is the classifier's output.
type ClassifyResult struct {
	Relationships []models.Relationship
	Usage         llm.Usage
}

// RelationshipClassifier confirms or rejects deterministic candidates via one
// LLM call. It only ever filters and relabels pairs from the candidate list,
// which bounds hallucination risk: no pair can appear that was not proposed.
type RelationshipClassifier interface {
	Classify(ctx context.Context, candidates []models.Relationship, threshold float64) (*ClassifyResult, error)
}

type relationshipClassifier struct {
	client llm.Client
	logger *zap.Logger
}

// NewRelationshipClassifier creates a new RelationshipClassifier.
func NewRelationshipClassifier(client llm.Client, logger *zap.Logger) RelationshipClassifier {
	return &relationshipClassifier{
		client: client,
		logger: logger.Named("relationship-classifier"),
	}
}

var _ RelationshipClassifier = (*relationshipClassifier)(nil)

func (s *relationshipClassifier) Classify(ctx context.Context, candidates []models.Relationship, threshold float64) (*ClassifyResult, error) {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	if len(candidates) == 0 {
		return &ClassifyResult{Usage: llm.Usage{}}, nil
	}

	prompt := prompts.BuildRelationshipClassificationPrompt(candidates)
	completion, err := s.client.CompleteJSON(ctx, prompt, prompts.RelationshipClassificationSystem, 0)
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	parsed, ok := llm.ParseJSONResponse[classifierResponse](completion.Content)
	if !ok {
		s.logger.Warn("classifier response unparseable, keeping zero relationships",
			zap.Int("candidates", len(candidates)))
	}

	seen := make(map[string]struct{})
	var out []models.Relationship
	for _, row := range parsed.Relationships {
		if row.PairID < 0 || row.PairID >= len(candidates) {
			continue
		}
		if !row.Accept || row.Confidence < threshold {
			continue
		}
		rel := candidates[row.PairID]
		if validRelationshipType(row.Type) {
			rel.Type = row.Type
		}
		rel.Confidence = row.Confidence
		rel.Note = row.Note

		key := dedupKey(&rel)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rel)
	}

	s.logger.Info("classification complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("accepted", len(out)))

	return &ClassifyResult{Relationships: out, Usage: completion.Usage}, nil
}

// dedupKey is the case-insensitive (from_entity, from_field, to_entity,
// to_field) 4-tuple. First occurrence wins.
func dedupKey(rel *models.Relationship) string {
	from, to := "", ""
	if len(rel.JoinOn) > 0 {
		from = rel.JoinOn[0].FromField
		to = rel.JoinOn[0].ToField
	}
	return strings.ToLower(strings.Join([]string{rel.FromEntity, from, rel.ToEntity, to}, "\x00"))
}

func validRelationshipType(t string) bool {
	for _, v := range models.ValidRelationshipTypes {
		if t == v {
			return true
		}
	}
	return false
}
