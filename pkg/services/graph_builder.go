package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/apperrors"
	"github.com/unifieddata-ai/canon-engine/pkg/llm"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
	"github.com/unifieddata-ai/canon-engine/pkg/repositories"
)

// BuildOptions tunes one build request.
type BuildOptions struct {
	// ConnectorIDs restricts the build to specific connectors. Empty means
	// every active connector.
	ConnectorIDs []uuid.UUID
	// ConfidenceThreshold filters classifier output. Zero means the
	// service's configured default.
	ConfidenceThreshold float64
}

// BuildResult is what a completed build hands back to the caller. The graph
// is transient: it is not persisted until an explicit save.
type BuildResult struct {
	ReviewID   uuid.UUID              `json:"review_id"`
	Graph      *models.CanonicalGraph `json:"canonical_graph"`
	TokenUsage llm.Usage              `json:"token_usage"`
	Status     string                 `json:"status"`
}

// GraphBuildService runs the full unification pipeline: manifest, clustering,
// coverage repair, anchoring, candidate generation, classification. The two
// LLM calls run sequentially within the request; everything between them is
// pure in-memory transformation.
type GraphBuildService interface {
	Build(ctx context.Context, tenantID uuid.UUID, opts BuildOptions) (*BuildResult, error)
}

type graphBuildService struct {
	connectorRepo repositories.ConnectorRepository
	reviewRepo    repositories.ReviewRepository
	manifests     ManifestBuilder
	clustering    FieldClusteringService
	classifier    RelationshipClassifier
	client        llm.Client
	candidateCfg  CandidateConfig
	// defaultThreshold applies when a build request carries no explicit
	// confidence threshold.
	defaultThreshold float64
	logger           *zap.Logger
}

// NewGraphBuildService creates a new GraphBuildService.
func NewGraphBuildService(
	connectorRepo repositories.ConnectorRepository,
	reviewRepo repositories.ReviewRepository,
	manifests ManifestBuilder,
	clustering FieldClusteringService,
	classifier RelationshipClassifier,
	client llm.Client,
	candidateCfg CandidateConfig,
	confidenceThreshold float64,
	logger *zap.Logger,
) GraphBuildService {
	return &graphBuildService{
		connectorRepo:    connectorRepo,
		reviewRepo:       reviewRepo,
		manifests:        manifests,
		clustering:       clustering,
		classifier:       classifier,
		client:           client,
		candidateCfg:     candidateCfg,
		defaultThreshold: confidenceThreshold,
		logger:           logger.Named("graph-builder"),
	}
}

var _ GraphBuildService = (*graphBuildService)(nil)

func (s *graphBuildService) Build(ctx context.Context, tenantID uuid.UUID, opts BuildOptions) (*BuildResult, error) {
	docs, err := s.collectDocuments(ctx, opts.ConnectorIDs)
	if err != nil {
		return nil, err
	}

	manifest, err := s.manifests.Build(docs)
	if err != nil {
		return nil, err
	}

	// The review row is created before the first LLM call so a failed build
	// still carries its input snapshot for inspection.
	review := &models.SchemaReview{
		TenantID: tenantID,
		Provider: s.client.Provider(),
		Model:    s.client.Model(),
		Status:   models.ReviewStatusPending,
		InputSnapshot: map[string]any{
			"connectors": connectorSnapshot(docs),
			"manifest":   manifestLines(manifest),
		},
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	usage := llm.Usage{}
	graph, err := s.runPipeline(ctx, manifest, opts, review, usage)
	if err != nil {
		s.failReview(ctx, review, usage, err)
		return &BuildResult{
			ReviewID:   review.ID,
			TokenUsage: usage,
			Status:     models.ReviewStatusFailed,
		}, err
	}

	review.Status = models.ReviewStatusSucceeded
	review.TokenUsage = usage
	if err := s.reviewRepo.Complete(ctx, review); err != nil {
		s.logger.Error("failed to mark review succeeded", zap.Error(err),
			zap.String("review_id", review.ID.String()))
	}

	return &BuildResult{
		ReviewID:   review.ID,
		Graph:      graph,
		TokenUsage: usage,
		Status:     models.ReviewStatusSucceeded,
	}, nil
}

// runPipeline executes the stages between manifest and final graph,
// accumulating token usage into usage and extending the review snapshot as
// later stages produce prompt inputs.
func (s *graphBuildService) runPipeline(
	ctx context.Context,
	manifest *models.Manifest,
	opts BuildOptions,
	review *models.SchemaReview,
	usage llm.Usage,
) (*models.CanonicalGraph, error) {
	clusterResult, err := s.clustering.Cluster(ctx, manifest)
	if err != nil {
		return nil, err
	}
	usage.Merge(clusterResult.Usage)

	graph := RepairCoverage(clusterResult.Graph, manifest)
	graph = ResolveAnchors(graph)

	candidates := GenerateRelationshipCandidates(graph, s.candidateCfg)
	review.InputSnapshot["candidates"] = candidates

	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}
	classifyResult, err := s.classifier.Classify(ctx, candidates, threshold)
	if err != nil {
		return nil, err
	}
	usage.Merge(classifyResult.Usage)
	graph.Relationships = classifyResult.Relationships

	if graph.Version == "" {
		graph.Version = models.GraphVersionPilot
	}
	if graph.GeneratedAt.IsZero() {
		graph.GeneratedAt = time.Now().UTC()
	}

	s.logger.Info("build complete",
		zap.Int("manifest_entries", manifest.Len()),
		zap.Int("entities", len(graph.Entities)),
		zap.Int("relationships", len(graph.Relationships)))

	return graph, nil
}

func (s *graphBuildService) collectDocuments(ctx context.Context, connectorIDs []uuid.UUID) ([]ConnectorDocument, error) {
	var (
		connectors []*models.Connector
		err        error
	)
	if len(connectorIDs) == 0 {
		connectors, err = s.connectorRepo.ListActive(ctx)
	} else {
		connectors, err = s.connectorRepo.GetByIDs(ctx, connectorIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve connectors: %w", err)
	}
	if len(connectors) == 0 {
		return nil, apperrors.ErrNoConnectors
	}

	var docs []ConnectorDocument
	for _, c := range connectors {
		schema, err := s.connectorRepo.GetLatestSchema(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema for connector %s: %w", c.ID, err)
		}
		if schema == nil {
			s.logger.Warn("connector has no fetched schema, skipping",
				zap.String("connector_id", c.ID.String()),
				zap.String("connector", c.Name))
			continue
		}
		docs = append(docs, ConnectorDocument{
			ConnectorID:   c.ID.String(),
			SchemaID:      schema.ID.String(),
			ConnectorType: c.Type,
			Document:      schema.RawSchema,
		})
	}
	return docs, nil
}

func (s *graphBuildService) failReview(ctx context.Context, review *models.SchemaReview, usage llm.Usage, buildErr error) {
	msg := buildErr.Error()
	review.Status = models.ReviewStatusFailed
	review.ErrorMessage = &msg
	review.TokenUsage = usage
	if err := s.reviewRepo.Complete(ctx, review); err != nil {
		s.logger.Error("failed to mark review failed", zap.Error(err),
			zap.String("review_id", review.ID.String()))
	}
}

func connectorSnapshot(docs []ConnectorDocument) []map[string]string {
	entries := make([]map[string]string, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, map[string]string{
			"connector_id": d.ConnectorID,
			"schema_id":    d.SchemaID,
		})
	}
	return entries
}

func manifestLines(manifest *models.Manifest) []string {
	lines := make([]string, 0, manifest.Len())
	for i := range manifest.Entries {
		lines = append(lines, manifest.Entries[i].Line())
	}
	return lines
}
