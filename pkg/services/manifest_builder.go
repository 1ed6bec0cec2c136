package services

import (
	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/adapters/schemadoc"
	"github.com/unifieddata-ai/canon-engine/pkg/apperrors"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// ConnectorDocument pairs a connector with the raw schema document its
// fetcher stored.
type ConnectorDocument struct {
	ConnectorID   string
	SchemaID      string
	ConnectorType string
	Document      map[string]any
}

// ManifestBuilder flattens raw schema documents into the ID-addressed
// manifest that drives the rest of a build.
type ManifestBuilder interface {
	Build(docs []ConnectorDocument) (*models.Manifest, error)
}

type manifestBuilder struct {
	registry *schemadoc.Registry
	logger   *zap.Logger
}

// NewManifestBuilder creates a new ManifestBuilder.
func NewManifestBuilder(registry *schemadoc.Registry, logger *zap.Logger) ManifestBuilder {
	return &manifestBuilder{
		registry: registry,
		logger:   logger.Named("manifest-builder"),
	}
}

var _ ManifestBuilder = (*manifestBuilder)(nil)

// Build assigns mapping IDs in document order, strictly increasing from 0.
// Documents no registered shape reader recognizes are skipped with a warning;
// a build with zero discovered fields fails with apperrors.ErrEmptyManifest.
func (b *manifestBuilder) Build(docs []ConnectorDocument) (*models.Manifest, error) {
	var entries []models.ManifestEntry
	nextID := 0

	for _, doc := range docs {
		fields := b.registry.Extract(doc.Document)
		if fields == nil {
			b.logger.Warn("schema document matched no known shape",
				zap.String("connector_id", doc.ConnectorID),
				zap.String("connector_type", doc.ConnectorType))
			continue
		}

		for _, f := range fields {
			entries = append(entries, models.ManifestEntry{
				MappingID:    nextID,
				ConnectorID:  doc.ConnectorID,
				SourceEntity: f.Entity,
				SourceField:  f.Field,
				DeclaredType: f.DeclaredType,
			})
			nextID++
		}
	}

	if len(entries) == 0 {
		return nil, apperrors.ErrEmptyManifest
	}

	b.logger.Debug("manifest built",
		zap.Int("connectors", len(docs)),
		zap.Int("entries", len(entries)))

	return models.NewManifest(entries), nil
}
