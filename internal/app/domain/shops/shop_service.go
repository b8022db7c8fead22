package shops

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/domain/contributions"
	"github.com/anoopems/chaikada/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Create upserts a shop by place identifier, atomically recording the
	// optional initial metadata contribution.
	Create(ctx context.Context, req models.CreateShopRequest) (uuid.UUID, error)
	// GetDetail returns the shop with its current metadata, full metadata
	// history and reviews.
	GetDetail(ctx context.Context, id uuid.UUID) (*models.ShopDetail, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	ledger contributions.Service
}

func NewService(repo Repository, ledger contributions.Service, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		ledger: ledger,
	}
}

// ValidateCoordinates rejects latitudes outside [-90, 90] and longitudes
// outside [-180, 180].
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %.4f out of range: %w", lat, models.ErrValidation)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %.4f out of range: %w", lon, models.ErrValidation)
	}
	return nil
}

func (s *ServiceImpl) Create(ctx context.Context, req models.CreateShopRequest) (uuid.UUID, error) {
	if req.PlaceID == "" || req.Name == "" {
		return uuid.Nil, fmt.Errorf("place_id and name are required: %w", models.ErrValidation)
	}
	if req.Latitude == nil || req.Longitude == nil {
		return uuid.Nil, fmt.Errorf("latitude and longitude are required: %w", models.ErrValidation)
	}
	if err := ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
		return uuid.Nil, err
	}

	var meta *models.ShopMetadata
	if req.Metadata != nil {
		if err := contributions.ValidateMetadata(*req.Metadata); err != nil {
			return uuid.Nil, err
		}
		meta = &models.ShopMetadata{
			Rating:      req.Metadata.Rating,
			Items:       req.Metadata.Items,
			Contributor: req.Metadata.Contributor,
		}
		if req.Metadata.SellsRestricted != nil {
			meta.SellsRestricted = *req.Metadata.SellsRestricted
		}
	}

	id, err := s.repo.CreateWithMetadata(ctx, models.Shop{
		PlaceID:   req.PlaceID,
		Name:      req.Name,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Address:   req.Address,
		Rating:    req.Rating,
		PhotoRefs: req.PhotoRefs,
	}, meta)
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Shop upserted",
		zap.String("shop_id", id.String()),
		zap.String("place_id", req.PlaceID),
		zap.Bool("with_metadata", meta != nil))
	return id, nil
}

func (s *ServiceImpl) GetDetail(ctx context.Context, id uuid.UUID) (*models.ShopDetail, error) {
	shop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	history, reviews, err := s.ledger.ListForShop(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.ShopDetail{
		Shop:            *shop,
		MetadataHistory: history,
		Reviews:         reviews,
	}
	// History is newest-first, so the current metadata is the head.
	if len(history) > 0 {
		detail.Current = &history[0]
	}
	return detail, nil
}
