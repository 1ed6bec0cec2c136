package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/apperrors"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
	"github.com/unifieddata-ai/canon-engine/pkg/repositories"
)

// SaveRequest captures an explicit save of a (possibly user-edited) graph.
// ExpectedVersion is the optimistic concurrency token: the tenant's latest
// persisted version the caller based its edits on, 0 for a first save.
type SaveRequest struct {
	BaseSchemaIDs    []uuid.UUID
	Graph            models.CanonicalGraph
	Note             *string
	ApprovedByUserID *uuid.UUID
	ExpectedVersion  int
}

// SaveResult reports either the newly appended version or, on a version
// conflict, the untouched current latest so the caller can re-merge.
type SaveResult struct {
	Record   *models.GlobalCanonicalSchema
	Conflict *models.GlobalCanonicalSchema
}

// CanonicalStoreService persists canonical graph versions with optimistic
// concurrency. A stale ExpectedVersion never creates a row; the insert-time
// unique constraint on (tenant_id, version) closes the read-then-insert race
// that the version check alone would leave open.
type CanonicalStoreService interface {
	Save(ctx context.Context, tenantID uuid.UUID, req SaveRequest) (*SaveResult, error)
	GetLatest(ctx context.Context) (*models.GlobalCanonicalSchema, error)
}

type canonicalStoreService struct {
	repo   repositories.CanonicalRepository
	logger *zap.Logger
}

// NewCanonicalStoreService creates a new CanonicalStoreService.
func NewCanonicalStoreService(repo repositories.CanonicalRepository, logger *zap.Logger) CanonicalStoreService {
	return &canonicalStoreService{
		repo:   repo,
		logger: logger.Named("canonical-store"),
	}
}

var _ CanonicalStoreService = (*canonicalStoreService)(nil)

func (s *canonicalStoreService) Save(ctx context.Context, tenantID uuid.UUID, req SaveRequest) (*SaveResult, error) {
	latest, err := s.repo.GetLatest(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	latestVersion := 0
	if latest != nil {
		latestVersion = latest.Version
	}
	if req.ExpectedVersion != latestVersion {
		s.logger.Info("save rejected, stale expected version",
			zap.Int("expected", req.ExpectedVersion),
			zap.Int("latest", latestVersion))
		return &SaveResult{Conflict: latest}, nil
	}

	record := &models.GlobalCanonicalSchema{
		TenantID:         tenantID,
		Version:          latestVersion + 1,
		BaseSchemaIDs:    req.BaseSchemaIDs,
		CanonicalGraph:   req.Graph,
		Note:             req.Note,
		ApprovedByUserID: req.ApprovedByUserID,
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		if errors.Is(err, apperrors.ErrVersionConflict) {
			// Lost the insert race; surface the winner's state unchanged.
			current, getErr := s.repo.GetLatest(ctx)
			if getErr != nil {
				return nil, fmt.Errorf("failed to reload after version conflict: %w", getErr)
			}
			return &SaveResult{Conflict: current}, nil
		}
		return nil, err
	}

	s.logger.Info("canonical schema version saved",
		zap.Int("version", record.Version),
		zap.Int("entities", len(record.CanonicalGraph.Entities)))

	return &SaveResult{Record: record}, nil
}

func (s *canonicalStoreService) GetLatest(ctx context.Context) (*models.GlobalCanonicalSchema, error) {
	return s.repo.GetLatest(ctx)
}
