package contributions

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/models"
)

const (
	// AnonymousReviewer is stored when the caller supplies no reviewer label.
	AnonymousReviewer = "Anonymous"

	maxReviewLength = 1000
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	AddMetadata(ctx context.Context, shopID uuid.UUID, req models.AddMetadataRequest) (uuid.UUID, error)
	AddReview(ctx context.Context, shopID uuid.UUID, req models.AddReviewRequest, userID *uuid.UUID) (uuid.UUID, error)
	ListForShop(ctx context.Context, shopID uuid.UUID) ([]models.ShopMetadata, []models.Review, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// ValidateMetadata checks an incoming metadata contribution. At least one
// field must carry a value and the community rating, when given, is 1-5.
func ValidateMetadata(req models.AddMetadataRequest) error {
	if req.Rating == nil && req.Items == nil && req.SellsRestricted == nil {
		return fmt.Errorf("metadata contribution must set at least one field: %w", models.ErrValidation)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return fmt.Errorf("rating must be between 1 and 5: %w", models.ErrValidation)
	}
	return nil
}

func (s *ServiceImpl) AddMetadata(ctx context.Context, shopID uuid.UUID, req models.AddMetadataRequest) (uuid.UUID, error) {
	if err := ValidateMetadata(req); err != nil {
		return uuid.Nil, err
	}

	meta := models.ShopMetadata{
		Rating:      req.Rating,
		Items:       req.Items,
		Contributor: req.Contributor,
	}
	if req.SellsRestricted != nil {
		meta.SellsRestricted = *req.SellsRestricted
	}

	id, err := s.repo.AddMetadata(ctx, shopID, meta)
	if err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("Metadata contribution recorded",
		zap.String("shop_id", shopID.String()),
		zap.String("contribution_id", id.String()))
	return id, nil
}

func (s *ServiceImpl) AddReview(ctx context.Context, shopID uuid.UUID, req models.AddReviewRequest, userID *uuid.UUID) (uuid.UUID, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return uuid.Nil, fmt.Errorf("review text cannot be empty: %w", models.ErrValidation)
	}
	if utf8.RuneCountInString(body) > maxReviewLength {
		return uuid.Nil, fmt.Errorf("review text exceeds %d characters: %w", maxReviewLength, models.ErrValidation)
	}

	reviewer := AnonymousReviewer
	if req.Reviewer != nil && strings.TrimSpace(*req.Reviewer) != "" {
		reviewer = strings.TrimSpace(*req.Reviewer)
	}

	id, err := s.repo.AddReview(ctx, models.Review{
		ShopID:   shopID,
		Body:     body,
		Reviewer: reviewer,
		UserID:   userID,
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("Review recorded",
		zap.String("shop_id", shopID.String()),
		zap.String("review_id", id.String()))
	return id, nil
}

func (s *ServiceImpl) ListForShop(ctx context.Context, shopID uuid.UUID) ([]models.ShopMetadata, []models.Review, error) {
	history, err := s.repo.ListMetadata(ctx, shopID)
	if err != nil {
		return nil, nil, err
	}
	reviews, err := s.repo.ListReviews(ctx, shopID)
	if err != nil {
		return nil, nil, err
	}
	return history, reviews, nil
}
