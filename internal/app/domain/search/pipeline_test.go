package search

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/domain/routing"
	"github.com/anoopems/chaikada/internal/app/models"
)

type MockGeoStore struct {
	mock.Mock
}

func (m *MockGeoStore) FindNear(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]models.Candidate, error) {
	args := m.Called(ctx, lat, lon, radiusMeters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Candidate), args.Error(1)
}

type MockEnricher struct {
	mock.Mock
}

func (m *MockEnricher) Enrich(ctx context.Context, origin routing.Point, dests []routing.Point) ([]routing.Leg, error) {
	args := m.Called(ctx, origin, dests)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]routing.Leg), args.Error(1)
}

func candidate(name string, lat, lon, straightLineMeters float64) models.Candidate {
	return models.Candidate{
		Shop: models.Shop{
			ID:        uuid.New(),
			PlaceID:   "place-" + name,
			Name:      name,
			Latitude:  lat,
			Longitude: lon,
		},
		StraightLineMeters: straightLineMeters,
	}
}

func ptrFloat(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name string
		req  models.SearchRequest
	}{
		{"latitude out of range", models.SearchRequest{Latitude: 91, Longitude: 76}},
		{"longitude out of range", models.SearchRequest{Latitude: 9.9, Longitude: -181}},
		{"max distance too small", models.SearchRequest{Latitude: 9.9, Longitude: 76.2, MaxDistanceKm: ptrFloat(0.05)}},
		{"max distance too large", models.SearchRequest{Latitude: 9.9, Longitude: 76.2, MaxDistanceKm: ptrFloat(150)}},
		{"walking time too small", models.SearchRequest{Latitude: 9.9, Longitude: 76.2, MaxWalkingTimeMin: ptrInt(0)}},
		{"walking time too large", models.SearchRequest{Latitude: 9.9, Longitude: 76.2, MaxWalkingTimeMin: ptrInt(500)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockGeoStore)
			enricher := new(MockEnricher)
			svc := NewService(store, enricher, zap.NewNop())

			_, err := svc.Search(context.Background(), tt.req)
			assert.ErrorIs(t, err, models.ErrValidation)
			// Validation failures never reach the data layer.
			store.AssertNotCalled(t, "FindNear")
			enricher.AssertNotCalled(t, "Enrich")
		})
	}
}

func TestSearchNoCandidatesSkipsEnrichment(t *testing.T) {
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	store.On("FindNear", mock.Anything, 9.9312, 76.2673, float64(DefaultRadiusMeters), 50).
		Return([]models.Candidate{}, nil)

	results, err := svc.Search(context.Background(), models.SearchRequest{Latitude: 9.9312, Longitude: 76.2673})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results, "zero results is a valid outcome, not an error")
	enricher.AssertNotCalled(t, "Enrich")
}

func TestSearchRadiusWidening(t *testing.T) {
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	// 2 km requested -> 3000 m spatial radius, walking distance is never
	// shorter than the straight line.
	store.On("FindNear", mock.Anything, 9.9312, 76.2673, float64(3000), 50).
		Return([]models.Candidate{}, nil)

	_, err := svc.Search(context.Background(), models.SearchRequest{
		Latitude:      9.9312,
		Longitude:     76.2673,
		MaxDistanceKm: ptrFloat(2),
	})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestSearchWalkingTimeFilterScenario(t *testing.T) {
	// Origin in Kochi, two shops at 400 m and 3000 m straight line, walking
	// times 6 and 40 minutes. A 30 minute cap keeps only the first shop.
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	near := candidate("thattukada", 9.9340, 76.2680, 400)
	far := candidate("highway-stall", 9.9550, 76.2900, 3000)

	store.On("FindNear", mock.Anything, 9.9312, 76.2673, float64(DefaultRadiusMeters), 50).
		Return([]models.Candidate{near, far}, nil)
	enricher.On("Enrich", mock.Anything, routing.Point{Lat: 9.9312, Lon: 76.2673}, mock.Anything).
		Return([]routing.Leg{
			{OK: true, DistanceMeters: 450, DurationSeconds: 6 * 60},
			{OK: true, DistanceMeters: 3300, DurationSeconds: 40 * 60},
		}, nil)

	results, err := svc.Search(context.Background(), models.SearchRequest{
		Latitude:          9.9312,
		Longitude:         76.2673,
		MaxWalkingTimeMin: ptrInt(30),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, near.Shop.ID, results[0].Shop.ID)
	assert.Equal(t, 6, results[0].WalkingMinutes)
	assert.Equal(t, 0.4, results[0].StraightLineKm)
	assert.Equal(t, 0.45, results[0].WalkingKm)
}

func TestSearchEnrichmentBatchFailure(t *testing.T) {
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	store.On("FindNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Candidate{
			candidate("a", 9.93, 76.26, 100),
			candidate("b", 9.94, 76.27, 200),
			candidate("c", 9.95, 76.28, 300),
		}, nil)
	enricher.On("Enrich", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused: "+models.ErrService.Error()))

	_, err := svc.Search(context.Background(), models.SearchRequest{Latitude: 9.9312, Longitude: 76.2673})
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrValidation)
}

func TestSearchEnrichmentBatchFailureIsServiceError(t *testing.T) {
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	store.On("FindNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Candidate{candidate("a", 9.93, 76.26, 100)}, nil)
	enricher.On("Enrich", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, models.ErrService)

	_, err := svc.Search(context.Background(), models.SearchRequest{Latitude: 9.9312, Longitude: 76.2673})
	assert.ErrorIs(t, err, models.ErrService)
}

func TestSearchStoreFailureIsServiceError(t *testing.T) {
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	store.On("FindNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	_, err := svc.Search(context.Background(), models.SearchRequest{Latitude: 9.9312, Longitude: 76.2673})
	assert.ErrorIs(t, err, models.ErrService)
	enricher.AssertNotCalled(t, "Enrich")
}

func TestSearchDropsFailedLegs(t *testing.T) {
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	a := candidate("a", 9.93, 76.26, 100)
	b := candidate("b", 9.94, 76.27, 200)

	store.On("FindNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Candidate{a, b}, nil)
	enricher.On("Enrich", mock.Anything, mock.Anything, mock.Anything).
		Return([]routing.Leg{
			{OK: false},
			{OK: true, DistanceMeters: 250, DurationSeconds: 180},
		}, nil)

	results, err := svc.Search(context.Background(), models.SearchRequest{Latitude: 9.9312, Longitude: 76.2673})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, b.Shop.ID, results[0].Shop.ID)
}

func TestSearchSortsByWalkingTime(t *testing.T) {
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	// Candidate order is straight-line ascending, but walking time can
	// disagree with it (rivers, highways, one-way footpaths).
	a := candidate("closest-line", 9.93, 76.26, 100)
	b := candidate("fastest-walk", 9.94, 76.27, 200)
	c := candidate("middle", 9.95, 76.28, 300)

	store.On("FindNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Candidate{a, b, c}, nil)
	enricher.On("Enrich", mock.Anything, mock.Anything, mock.Anything).
		Return([]routing.Leg{
			{OK: true, DistanceMeters: 900, DurationSeconds: 700},
			{OK: true, DistanceMeters: 240, DurationSeconds: 200},
			{OK: true, DistanceMeters: 400, DurationSeconds: 400},
		}, nil)

	results, err := svc.Search(context.Background(), models.SearchRequest{Latitude: 9.9312, Longitude: 76.2673})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].WalkingMinutes, results[i].WalkingMinutes,
			"walking time must be non-decreasing")
	}
	assert.Equal(t, b.Shop.ID, results[0].Shop.ID)
	assert.Equal(t, c.Shop.ID, results[1].Shop.ID)
	assert.Equal(t, a.Shop.ID, results[2].Shop.ID)
}

func TestSearchBothFiltersApply(t *testing.T) {
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	within := candidate("within-both", 9.93, 76.26, 500)
	tooFar := candidate("too-far", 9.94, 76.27, 1800)
	tooSlow := candidate("too-slow", 9.95, 76.28, 1900)

	store.On("FindNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Candidate{within, tooFar, tooSlow}, nil)
	enricher.On("Enrich", mock.Anything, mock.Anything, mock.Anything).
		Return([]routing.Leg{
			{OK: true, DistanceMeters: 600, DurationSeconds: 8 * 60},
			{OK: true, DistanceMeters: 2500, DurationSeconds: 15 * 60}, // over 2 km
			{OK: true, DistanceMeters: 1900, DurationSeconds: 25 * 60}, // over 20 min
		}, nil)

	results, err := svc.Search(context.Background(), models.SearchRequest{
		Latitude:          9.9312,
		Longitude:         76.2673,
		MaxDistanceKm:     ptrFloat(2),
		MaxWalkingTimeMin: ptrInt(20),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, within.Shop.ID, results[0].Shop.ID)
	for _, r := range results {
		assert.LessOrEqual(t, r.WalkingKm, 2.0)
		assert.LessOrEqual(t, r.WalkingMinutes, 20)
	}
}

func TestSearchRounding(t *testing.T) {
	store := new(MockGeoStore)
	enricher := new(MockEnricher)
	svc := NewService(store, enricher, zap.NewNop())

	a := candidate("a", 9.93, 76.26, 1234)

	store.On("FindNear", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Candidate{a}, nil)
	enricher.On("Enrich", mock.Anything, mock.Anything, mock.Anything).
		Return([]routing.Leg{
			{OK: true, DistanceMeters: 1567, DurationSeconds: 1111},
		}, nil)

	results, err := svc.Search(context.Background(), models.SearchRequest{Latitude: 9.9312, Longitude: 76.2673})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.23, results[0].StraightLineKm)
	assert.Equal(t, 1.57, results[0].WalkingKm)
	assert.Equal(t, 19, results[0].WalkingMinutes) // 1111 s = 18.52 min
}
