package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/models"
)

var _ Repo = (*PostgresRepo)(nil)

type Repo interface {
	// GetUserByUsername fetches user details needed for credential checks.
	GetUserByUsername(ctx context.Context, username string) (*models.UserAuth, error)
	// Register stores a new user with a HASHED password. Returns new user ID.
	Register(ctx context.Context, username, hashedPassword string) (uuid.UUID, error)
	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, userID uuid.UUID) error
}

type PostgresRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresRepo {
	return &PostgresRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT id, username, password_hash FROM users WHERE username = $1`
	err := r.pgpool.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", username, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by username", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return &user, nil
}

func (r *PostgresRepo) Register(ctx context.Context, username, hashedPassword string) (uuid.UUID, error) {
	var userID uuid.UUID
	query := `INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id`
	err := r.pgpool.QueryRow(ctx, query, username, hashedPassword, time.Now()).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, fmt.Errorf("username %s taken: %w", username, models.ErrConflict)
		}
		r.logger.Error("Error registering user", zap.Error(err), zap.String("username", username))
		return uuid.Nil, fmt.Errorf("database error registering user: %w", err)
	}
	return userID, nil
}

func (r *PostgresRepo) TouchLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	if err != nil {
		r.logger.Error("Error updating last login", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("database error updating last login: %w", err)
	}
	return nil
}
