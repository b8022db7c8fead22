package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anoopems/chaikada/internal/app/models"
	"github.com/anoopems/chaikada/internal/pkg/config"
)

type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByUsername(ctx context.Context, username string) (*models.UserAuth, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) Register(ctx context.Context, username, hashedPassword string) (uuid.UUID, error) {
	args := m.Called(ctx, username, hashedPassword)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthRepo) TouchLastLogin(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "test-secret",
		TokenExpiration: time.Hour,
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewService(repo, testAuthConfig(), zap.NewNop())
	userID := uuid.New()

	repo.On("Register", mock.Anything, "anoop", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("kettle-black-1")) == nil
	})).Return(userID, nil)

	got, err := svc.Register(context.Background(), "anoop", "kettle-black-1")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	repo.AssertExpectations(t)
}

func TestRegisterValidation(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewService(repo, testAuthConfig(), zap.NewNop())

	_, err := svc.Register(context.Background(), "  ", "kettle-black-1")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Register(context.Background(), "anoop", "short")
	assert.ErrorIs(t, err, models.ErrValidation)

	repo.AssertNotCalled(t, "Register")
}

func TestLoginIssuesValidToken(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewService(repo, testAuthConfig(), zap.NewNop())

	userID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("kettle-black-1"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "anoop").Return(&models.UserAuth{
		ID:           userID,
		Username:     "anoop",
		PasswordHash: string(hash),
	}, nil)
	repo.On("TouchLastLogin", mock.Anything, userID).Return(nil)

	token, err := svc.Login(context.Background(), "anoop", "kettle-black-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "anoop", claims.Username)
	repo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewService(repo, testAuthConfig(), zap.NewNop())

	hash, err := bcrypt.GenerateFromPassword([]byte("kettle-black-1"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "anoop").Return(&models.UserAuth{
		ID:           uuid.New(),
		Username:     "anoop",
		PasswordHash: string(hash),
	}, nil)

	_, err = svc.Login(context.Background(), "anoop", "wrong-password")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
	repo.AssertNotCalled(t, "TouchLastLogin")
}

func TestLoginUnknownUser(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewService(repo, testAuthConfig(), zap.NewNop())

	repo.On("GetUserByUsername", mock.Anything, "ghost").
		Return(nil, models.ErrNotFound)

	_, err := svc.Login(context.Background(), "ghost", "whatever-pass")
	// Unknown user and bad password look the same to the caller.
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	repo := new(MockAuthRepo)
	svc := NewService(repo, testAuthConfig(), zap.NewNop())

	userID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("kettle-black-1"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "anoop").Return(&models.UserAuth{
		ID:           userID,
		Username:     "anoop",
		PasswordHash: string(hash),
	}, nil)
	repo.On("TouchLastLogin", mock.Anything, userID).Return(nil)

	token, err := svc.Login(context.Background(), "anoop", "kettle-black-1")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	other := NewService(repo, config.AuthConfig{JWTSecret: "other-secret", TokenExpiration: time.Hour}, zap.NewNop())
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}
