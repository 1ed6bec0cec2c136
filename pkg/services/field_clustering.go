package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/llm"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
	"github.com/unifieddata-ai/canon-engine/pkg/prompts"
)

// clusteringResponse mirrors the clustering call's output contract. Fields
// reference manifest entries by mapping_ids only.
type clusteringResponse struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
	Entities    []struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
		Fields      []struct {
			Name         string `json:"name"`
			Description  string `json:"description"`
			SemanticType string `json:"semantic_type"`
			PII          string `json:"pii"`
			PrimaryKey   bool   `json:"primary_key"`
			IsJoinKey    bool   `json:"is_join_key"`
			Nullable     bool   `json:"nullable"`
			MappingIDs   []int  `json:"mapping_ids"`
		} `json:"fields"`
	} `json:"entities"`
}

// ClusterResult is the clustering stage's output before repair and anchoring.
type ClusterResult struct {
	Graph *models.CanonicalGraph
	Usage llm.Usage
}

// FieldClusteringService groups manifest entries into canonical entities via
// one LLM call. Temperature is pinned to 0 for reproducibility.
type FieldClusteringService interface {
	Cluster(ctx context.Context, manifest *models.Manifest) (*ClusterResult, error)
}

type fieldClusteringService struct {
	client llm.Client
	logger *zap.Logger
}

// NewFieldClusteringService creates a new FieldClusteringService.
func NewFieldClusteringService(client llm.Client, logger *zap.Logger) FieldClusteringService {
	return &fieldClusteringService{
		client: client,
		logger: logger.Named("field-clustering"),
	}
}

var _ FieldClusteringService = (*fieldClusteringService)(nil)

func (s *fieldClusteringService) Cluster(ctx context.Context, manifest *models.Manifest) (*ClusterResult, error) {
	prompt := prompts.BuildFieldClusteringPrompt(manifest)

	completion, err := s.client.CompleteJSON(ctx, prompt, prompts.FieldClusteringSystem, 0)
	if err != nil {
		return nil, fmt.Errorf("clustering call failed: %w", err)
	}

	// A response no repair strategy can parse degrades to zero entities;
	// the coverage repairer then reconstructs every field under Unassigned.
	parsed, ok := llm.ParseJSONResponse[clusteringResponse](completion.Content)
	if !ok {
		s.logger.Warn("clustering response unparseable, treating as zero entities discovered",
			zap.Int("response_len", len(completion.Content)))
	}

	graph := s.resolve(&parsed, manifest)

	s.logger.Info("clustering complete",
		zap.Int("manifest_entries", manifest.Len()),
		zap.Int("entities", len(graph.Entities)))

	return &ClusterResult{Graph: graph, Usage: completion.Usage}, nil
}

// resolve expands mapping_ids into full mappings with confidence 1.0.
// Hallucinated or out-of-range IDs are dropped without error; fields that
// resolve to zero mappings are kept only if the model named them, since the
// repairer works purely off covered IDs.
func (s *fieldClusteringService) resolve(resp *clusteringResponse, manifest *models.Manifest) *models.CanonicalGraph {
	graph := &models.CanonicalGraph{
		Version: resp.Version,
	}
	if ts, err := time.Parse(time.RFC3339, resp.GeneratedAt); err == nil {
		graph.GeneratedAt = ts
	}

	dropped := 0
	for _, re := range resp.Entities {
		if re.Name == "" {
			continue
		}
		entity := models.CanonicalEntity{
			Name:        re.Name,
			Description: re.Description,
			Tags:        re.Tags,
		}
		for _, rf := range re.Fields {
			if rf.Name == "" {
				continue
			}
			field := models.CanonicalField{
				Name:         rf.Name,
				Description:  rf.Description,
				SemanticType: rf.SemanticType,
				PII:          rf.PII,
				PrimaryKey:   rf.PrimaryKey,
				IsJoinKey:    rf.IsJoinKey,
				Nullable:     rf.Nullable,
			}
			for _, id := range rf.MappingIDs {
				entry := manifest.Lookup(id)
				if entry == nil {
					dropped++
					continue
				}
				field.Mappings = append(field.Mappings, models.FieldMapping{
					ConnectorID:  entry.ConnectorID,
					SourceEntity: entry.SourceEntity,
					SourceField:  entry.SourceField,
					Confidence:   1.0,
				})
			}
			entity.Fields = append(entity.Fields, field)
		}
		if len(entity.Fields) > 0 {
			graph.Entities = append(graph.Entities, entity)
		}
	}

	if dropped > 0 {
		s.logger.Warn("dropped unresolvable mapping ids from clustering response",
			zap.Int("count", dropped))
	}

	return graph
}
