package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/unifieddata-ai/canon-engine/pkg/database"
	"github.com/unifieddata-ai/canon-engine/pkg/models"
)

// ReviewRepository provides data access for build reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.SchemaReview) error
	// Complete moves a review to a terminal status, attaching the input
	// snapshot, accumulated token usage and, for failures, the error message.
	Complete(ctx context.Context, review *models.SchemaReview) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SchemaReview, error)
}

type reviewRepository struct{}

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository() ReviewRepository {
	return &reviewRepository{}
}

var _ ReviewRepository = (*reviewRepository)(nil)

func (r *reviewRepository) Create(ctx context.Context, review *models.SchemaReview) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	if review.Status == "" {
		review.Status = models.ReviewStatusPending
	}

	snapshotJSON, err := json.Marshal(review.InputSnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal input_snapshot: %w", err)
	}
	if review.InputSnapshot == nil {
		snapshotJSON = []byte("{}")
	}

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO schema_reviews (id, tenant_id, provider, model, status, input_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.TenantID, review.Provider, review.Model,
		review.Status, snapshotJSON, review.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) Complete(ctx context.Context, review *models.SchemaReview) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	snapshotJSON, err := json.Marshal(review.InputSnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal input_snapshot: %w", err)
	}
	usageJSON, err := json.Marshal(review.TokenUsage)
	if err != nil {
		return fmt.Errorf("failed to marshal token_usage: %w", err)
	}

	now := time.Now().UTC()
	review.CompletedAt = &now

	tag, err := scope.Conn.Exec(ctx, `
		UPDATE schema_reviews
		SET status = $2, error_message = $3, input_snapshot = $4, token_usage = $5, completed_at = $6
		WHERE id = $1`,
		review.ID, review.Status, review.ErrorMessage, snapshotJSON, usageJSON, review.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to complete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review %s not found", review.ID)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SchemaReview, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	var (
		review       models.SchemaReview
		snapshotJSON []byte
		usageJSON    []byte
	)
	err := scope.Conn.QueryRow(ctx, `
		SELECT id, tenant_id, provider, model, status, error_message,
		       input_snapshot, token_usage, created_at, completed_at
		FROM schema_reviews
		WHERE id = $1`, id).
		Scan(&review.ID, &review.TenantID, &review.Provider, &review.Model,
			&review.Status, &review.ErrorMessage, &snapshotJSON, &usageJSON,
			&review.CreatedAt, &review.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if len(snapshotJSON) > 0 {
		if err := json.Unmarshal(snapshotJSON, &review.InputSnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal input_snapshot: %w", err)
		}
	}
	if len(usageJSON) > 0 {
		if err := json.Unmarshal(usageJSON, &review.TokenUsage); err != nil {
			return nil, fmt.Errorf("failed to unmarshal token_usage: %w", err)
		}
	}
	return &review, nil
}
