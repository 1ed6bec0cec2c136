package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

type mockConnectorRepo struct {
	ListActiveFunc      func(ctx context.Context) ([]*models.Connector, error)
	GetByIDsFunc        func(ctx context.Context, ids []uuid.UUID) ([]*models.Connector, error)
	GetLatestSchemaFunc func(ctx context.Context, connectorID uuid.UUID) (*models.ConnectorSchema, error)
	SaveSchemaFunc      func(ctx context.Context, schema *models.ConnectorSchema) error
}

func (m *mockConnectorRepo) ListActive(ctx context.Context) ([]*models.Connector, error) {
	return m.ListActiveFunc(ctx)
}

func (m *mockConnectorRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Connector, error) {
	return m.GetByIDsFunc(ctx, ids)
}

func (m *mockConnectorRepo) GetLatestSchema(ctx context.Context, connectorID uuid.UUID) (*models.ConnectorSchema, error) {
	return m.GetLatestSchemaFunc(ctx, connectorID)
}

func (m *mockConnectorRepo) SaveSchema(ctx context.Context, schema *models.ConnectorSchema) error {
	if m.SaveSchemaFunc != nil {
		return m.SaveSchemaFunc(ctx, schema)
	}
	return nil
}

type mockReviewRepo struct {
	Created   []*models.SchemaReview
	Completed []*models.SchemaReview
	CreateErr error
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.SchemaReview) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	m.Created = append(m.Created, review)
	return nil
}

func (m *mockReviewRepo) Complete(ctx context.Context, review *models.SchemaReview) error {
	m.Completed = append(m.Completed, review)
	return nil
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SchemaReview, error) {
	for _, r := range m.Created {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

type mockCanonicalRepo struct {
	Latest    *models.GlobalCanonicalSchema
	GetErr    error
	InsertErr error
	Inserted  []*models.GlobalCanonicalSchema
}

func (m *mockCanonicalRepo) GetLatest(ctx context.Context) (*models.GlobalCanonicalSchema, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Latest, nil
}

func (m *mockCanonicalRepo) Insert(ctx context.Context, record *models.GlobalCanonicalSchema) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.Inserted = append(m.Inserted, record)
	m.Latest = record
	return nil
}
