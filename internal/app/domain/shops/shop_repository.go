package shops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/models"
)

// MaxCandidates caps the radius query so a single search never feeds more
// than this many destinations into the enrichment call.
const MaxCandidates = 50

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// FindNear returns shops within radiusMeters of the origin, ordered by
	// ascending straight-line distance, each with its newest metadata
	// contribution (nil when the shop has none).
	FindNear(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]models.Candidate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	// Upsert inserts a shop or, on place_id conflict, updates
	// name/address/rating of the existing row. Returns the row id either way.
	Upsert(ctx context.Context, shop models.Shop) (uuid.UUID, error)
	// CreateWithMetadata runs Upsert and the optional initial metadata
	// insert in one transaction; either both commit or neither does.
	CreateWithMetadata(ctx context.Context, shop models.Shop, meta *models.ShopMetadata) (uuid.UUID, error)
}

// DBPool is the slice of pgxpool.Pool the repository needs; satisfied by
// pgxmock in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool DBPool
}

func NewRepository(pgpool DBPool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

const candidateQuery = `
    SELECT s.id, s.place_id, s.name,
           ST_Y(s.location::geometry) AS latitude,
           ST_X(s.location::geometry) AS longitude,
           s.address, s.rating, s.photo_refs, s.created_at,
           ST_Distance(s.location, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance,
           m.id, m.rating, m.items, m.sells_restricted, m.contributor, m.contributed_at
    FROM shops s
    LEFT JOIN LATERAL (
        SELECT id, rating, items, sells_restricted, contributor, contributed_at
        FROM shop_metadata
        WHERE shop_id = s.id
        ORDER BY contributed_at DESC
        LIMIT 1
    ) m ON TRUE
    WHERE ST_DWithin(s.location, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
    ORDER BY distance ASC
    LIMIT $4
`

func (r *RepositoryImpl) FindNear(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]models.Candidate, error) {
	tracer := otel.Tracer("chaikada")
	ctx, span := tracer.Start(ctx, "ShopRepository.FindNear", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.Float64("search.radius_meters", radiusMeters),
		attribute.Int("search.limit", limit),
	))
	defer span.End()

	if limit <= 0 || limit > MaxCandidates {
		limit = MaxCandidates
	}

	rows, err := r.pgpool.Query(ctx, candidateQuery, lat, lon, radiusMeters, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query nearby shops")
		return nil, fmt.Errorf("failed to query nearby shops: %w", err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		var c models.Candidate
		// Shops without contributions come back with a NULL metadata row.
		var metaID uuid.NullUUID
		var metaRating *int
		var metaItems, metaContributor *string
		var metaRestricted sql.NullBool
		var metaAt sql.NullTime
		err := rows.Scan(
			&c.Shop.ID, &c.Shop.PlaceID, &c.Shop.Name,
			&c.Shop.Latitude, &c.Shop.Longitude,
			&c.Shop.Address, &c.Shop.Rating, &c.Shop.PhotoRefs, &c.Shop.CreatedAt,
			&c.StraightLineMeters,
			&metaID, &metaRating, &metaItems, &metaRestricted, &metaContributor, &metaAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop row: %w", err)
		}
		if metaID.Valid {
			c.Current = &models.ShopMetadata{
				ID:              metaID.UUID,
				ShopID:          c.Shop.ID,
				Rating:          metaRating,
				Items:           metaItems,
				SellsRestricted: metaRestricted.Bool,
				Contributor:     metaContributor,
				ContributedAt:   metaAt.Time,
			}
		}
		candidates = append(candidates, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shop rows: %w", err)
	}

	span.SetAttributes(attribute.Int("search.candidates", len(candidates)))
	return candidates, nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	query := `
        SELECT id, place_id, name,
               ST_Y(location::geometry), ST_X(location::geometry),
               address, rating, photo_refs, created_at
        FROM shops WHERE id = $1
    `
	var s models.Shop
	err := r.pgpool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.PlaceID, &s.Name, &s.Latitude, &s.Longitude,
		&s.Address, &s.Rating, &s.PhotoRefs, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shop %s: %w", id, models.ErrNotFound)
		}
		r.logger.Error("Error fetching shop by ID", zap.Error(err), zap.String("shop_id", id.String()))
		return nil, fmt.Errorf("database error fetching shop: %w", err)
	}
	return &s, nil
}

const upsertQuery = `
    INSERT INTO shops (place_id, name, location, address, rating, photo_refs)
    VALUES ($1, $2, ST_SetSRID(ST_MakePoint($4, $3), 4326)::geography, $5, $6, $7)
    ON CONFLICT (place_id) DO UPDATE
        SET name = EXCLUDED.name,
            address = EXCLUDED.address,
            rating = EXCLUDED.rating
    RETURNING id
`

func (r *RepositoryImpl) Upsert(ctx context.Context, shop models.Shop) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, upsertQuery,
		shop.PlaceID, shop.Name, shop.Latitude, shop.Longitude,
		shop.Address, shop.Rating, shop.PhotoRefs,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Error upserting shop", zap.Error(err), zap.String("place_id", shop.PlaceID))
		return uuid.Nil, fmt.Errorf("database error upserting shop: %w", err)
	}
	return id, nil
}

func (r *RepositoryImpl) CreateWithMetadata(ctx context.Context, shop models.Shop, meta *models.ShopMetadata) (uuid.UUID, error) {
	tracer := otel.Tracer("chaikada")
	ctx, span := tracer.Start(ctx, "ShopRepository.CreateWithMetadata", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("shop.place_id", shop.PlaceID),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op once the transaction is committed.
		_ = tx.Rollback(ctx)
	}()

	var id uuid.UUID
	err = tx.QueryRow(ctx, upsertQuery,
		shop.PlaceID, shop.Name, shop.Latitude, shop.Longitude,
		shop.Address, shop.Rating, shop.PhotoRefs,
	).Scan(&id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upsert shop")
		return uuid.Nil, fmt.Errorf("database error upserting shop: %w", err)
	}

	if meta != nil {
		insertMeta := `
            INSERT INTO shop_metadata (shop_id, rating, items, sells_restricted, contributor)
            VALUES ($1, $2, $3, $4, $5)
        `
		_, err = tx.Exec(ctx, insertMeta, id, meta.Rating, meta.Items, meta.SellsRestricted, meta.Contributor)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to insert initial metadata")
			return uuid.Nil, mapConstraintErr(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return uuid.Nil, fmt.Errorf("failed to commit shop creation: %w", err)
	}

	span.SetStatus(codes.Ok, "Shop created")
	return id, nil
}

// mapConstraintErr converts a foreign-key violation into the domain
// constraint error so handlers can report it without retrying.
func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("shop reference: %w", models.ErrConstraint)
	}
	return fmt.Errorf("database error inserting metadata: %w", err)
}
