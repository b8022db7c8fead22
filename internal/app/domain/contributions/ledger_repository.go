package contributions

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the append-only contribution ledger. Metadata and reviews
// are never updated or deleted individually; history is retained in full.
type Repository interface {
	AddMetadata(ctx context.Context, shopID uuid.UUID, meta models.ShopMetadata) (uuid.UUID, error)
	AddReview(ctx context.Context, review models.Review) (uuid.UUID, error)
	ListMetadata(ctx context.Context, shopID uuid.UUID) ([]models.ShopMetadata, error)
	ListReviews(ctx context.Context, shopID uuid.UUID) ([]models.Review, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
	sb     sq.StatementBuilderType
}

func NewRepository(pgpool *pgxpool.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *RepositoryImpl) AddMetadata(ctx context.Context, shopID uuid.UUID, meta models.ShopMetadata) (uuid.UUID, error) {
	query, args, err := r.sb.
		Insert("shop_metadata").
		Columns("shop_id", "rating", "items", "sells_restricted", "contributor").
		Values(shopID, meta.Rating, meta.Items, meta.SellsRestricted, meta.Contributor).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build metadata insert: %w", err)
	}

	var id uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		r.logger.Error("Error inserting metadata contribution", zap.Error(err), zap.String("shop_id", shopID.String()))
		return uuid.Nil, mapConstraintErr(err)
	}
	return id, nil
}

func (r *RepositoryImpl) AddReview(ctx context.Context, review models.Review) (uuid.UUID, error) {
	query, args, err := r.sb.
		Insert("reviews").
		Columns("shop_id", "body", "reviewer", "user_id").
		Values(review.ShopID, review.Body, review.Reviewer, review.UserID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build review insert: %w", err)
	}

	var id uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		r.logger.Error("Error inserting review", zap.Error(err), zap.String("shop_id", review.ShopID.String()))
		return uuid.Nil, mapConstraintErr(err)
	}
	return id, nil
}

func (r *RepositoryImpl) ListMetadata(ctx context.Context, shopID uuid.UUID) ([]models.ShopMetadata, error) {
	query, args, err := r.sb.
		Select("id", "shop_id", "rating", "items", "sells_restricted", "contributor", "contributed_at").
		From("shop_metadata").
		Where(sq.Eq{"shop_id": shopID}).
		OrderBy("contributed_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata history: %w", err)
	}
	defer rows.Close()

	history := []models.ShopMetadata{}
	for rows.Next() {
		var m models.ShopMetadata
		if err := rows.Scan(&m.ID, &m.ShopID, &m.Rating, &m.Items, &m.SellsRestricted, &m.Contributor, &m.ContributedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		history = append(history, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metadata rows: %w", err)
	}
	return history, nil
}

func (r *RepositoryImpl) ListReviews(ctx context.Context, shopID uuid.UUID) ([]models.Review, error) {
	query, args, err := r.sb.
		Select("id", "shop_id", "body", "reviewer", "user_id", "created_at").
		From("reviews").
		Where(sq.Eq{"shop_id": shopID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build review query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.ShopID, &rv.Body, &rv.Reviewer, &rv.UserID, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}
	return reviews, nil
}

func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("shop reference: %w", models.ErrConstraint)
	}
	return fmt.Errorf("database error: %w", err)
}
