package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anoopems/chaikada/internal/app/models"
	"github.com/anoopems/chaikada/internal/pkg/config"
)

var _ Service = (*ServiceImpl)(nil)

// Claims are the JWT claims issued on login.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type Service interface {
	Register(ctx context.Context, username, password string) (uuid.UUID, error)
	// Login validates credentials and returns a signed token.
	Login(ctx context.Context, username, password string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repo
	cfg    config.AuthConfig
}

func NewService(repo Repo, cfg config.AuthConfig, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo, cfg: cfg}
}

func (s *ServiceImpl) Register(ctx context.Context, username, password string) (uuid.UUID, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return uuid.Nil, fmt.Errorf("username is required: %w", models.ErrValidation)
	}
	if len(password) < 8 {
		return uuid.Nil, fmt.Errorf("password must be at least 8 characters: %w", models.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.repo.Register(ctx, username, string(hash))
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", userID.String()))
	return userID, nil
}

func (s *ServiceImpl) Login(ctx context.Context, username, password string) (string, error) {
	l := s.logger.With(zap.String("method", "Login"))

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		l.Warn("Login for unknown username", zap.String("username", username))
		// Don't reveal whether the user exists or the password is wrong.
		return "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.String("user_id", user.ID.String()))
		return "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		// Login still succeeds; the timestamp is best effort.
		l.Warn("Failed to record last login", zap.Error(err))
	}

	now := time.Now()
	claims := Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		l.Error("Failed to sign token", zap.Error(err))
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

func (s *ServiceImpl) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", models.ErrUnauthenticated)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", models.ErrUnauthenticated)
	}
	return claims, nil
}
