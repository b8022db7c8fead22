package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/anoopems/chaikada/internal/app/domain/routing"
	"github.com/anoopems/chaikada/internal/app/domain/shops"
	"github.com/anoopems/chaikada/internal/app/models"
	"github.com/anoopems/chaikada/internal/observability/metrics"
)

const (
	// DefaultRadiusMeters is the spatial query radius when the caller gives
	// no maximum walking distance.
	DefaultRadiusMeters = 5000

	// RadiusMetersPerKm widens the spatial radius to 1.5x the requested
	// walking distance. Walking distance is never shorter than the straight
	// line, so querying at exactly the requested distance would drop valid
	// shops before enrichment ever sees them.
	RadiusMetersPerKm = 1500

	minDistanceKm  = 0.1
	maxDistanceKm  = 100
	minWalkTimeMin = 1
	maxWalkTimeMin = 300
)

// GeoStore is the candidate source for the pipeline.
type GeoStore interface {
	FindNear(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]models.Candidate, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Search(ctx context.Context, req models.SearchRequest) ([]models.RankedResult, error)
}

// ServiceImpl orchestrates candidate retrieval, walking-distance enrichment,
// filtering and ranking.
type ServiceImpl struct {
	logger   *zap.Logger
	store    GeoStore
	enricher routing.Client
}

func NewService(store GeoStore, enricher routing.Client, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		store:    store,
		enricher: enricher,
	}
}

func validate(req models.SearchRequest) error {
	if err := shops.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return err
	}
	if req.MaxDistanceKm != nil && (*req.MaxDistanceKm < minDistanceKm || *req.MaxDistanceKm > maxDistanceKm) {
		return fmt.Errorf("max_distance_km must be between %.1f and %d: %w", minDistanceKm, maxDistanceKm, models.ErrValidation)
	}
	if req.MaxWalkingTimeMin != nil && (*req.MaxWalkingTimeMin < minWalkTimeMin || *req.MaxWalkingTimeMin > maxWalkTimeMin) {
		return fmt.Errorf("max_walking_time_min must be between %d and %d: %w", minWalkTimeMin, maxWalkTimeMin, models.ErrValidation)
	}
	return nil
}

// Search runs the full pipeline. Zero matches is a valid empty result;
// a store or enrichment failure fails the whole search with no partial
// results.
func (s *ServiceImpl) Search(ctx context.Context, req models.SearchRequest) ([]models.RankedResult, error) {
	tracer := otel.Tracer("chaikada")
	ctx, span := tracer.Start(ctx, "SearchPipeline.Search")
	defer span.End()

	start := time.Now()
	if m := metrics.Get(); m != nil {
		m.SearchRequestsTotal.Add(ctx, 1)
		defer func() {
			m.SearchDurationSeconds.Record(ctx, time.Since(start).Seconds())
		}()
	}

	if err := validate(req); err != nil {
		span.SetStatus(codes.Error, "Invalid search request")
		return nil, err
	}

	radius := float64(DefaultRadiusMeters)
	if req.MaxDistanceKm != nil {
		radius = *req.MaxDistanceKm * RadiusMetersPerKm
	}
	span.SetAttributes(attribute.Float64("search.radius_meters", radius))

	candidates, err := s.store.FindNear(ctx, req.Latitude, req.Longitude, radius, shops.MaxCandidates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Candidate retrieval failed")
		s.logger.Error("Candidate retrieval failed", zap.Error(err))
		return nil, fmt.Errorf("candidate retrieval failed: %v: %w", err, models.ErrService)
	}
	if len(candidates) == 0 {
		// Nothing to enrich; zero results is a valid outcome.
		return []models.RankedResult{}, nil
	}

	dests := make([]routing.Point, len(candidates))
	for i, c := range candidates {
		dests[i] = routing.Point{Lat: c.Shop.Latitude, Lon: c.Shop.Longitude}
	}

	enrichStart := time.Now()
	legs, err := s.enricher.Enrich(ctx, routing.Point{Lat: req.Latitude, Lon: req.Longitude}, dests)
	if m := metrics.Get(); m != nil {
		m.EnrichmentDurationSeconds.Record(ctx, time.Since(enrichStart).Seconds())
	}
	if err != nil {
		if m := metrics.Get(); m != nil {
			m.EnrichmentFailuresTotal.Add(ctx, 1)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Enrichment failed")
		s.logger.Error("Walking-distance enrichment failed", zap.Error(err), zap.Int("candidates", len(candidates)))
		return nil, fmt.Errorf("walking-distance enrichment failed: %w", err)
	}

	results := merge(candidates, legs, req.MaxDistanceKm, req.MaxWalkingTimeMin)

	span.SetAttributes(
		attribute.Int("search.candidates", len(candidates)),
		attribute.Int("search.results", len(results)),
	)
	return results, nil
}

type mergedResult struct {
	candidate models.Candidate
	leg       routing.Leg
}

// merge pairs each candidate with its same-index leg, drops candidates whose
// enrichment failed, applies the optional walking-distance and walking-time
// filters (both apply when both are present), and sorts ascending by walking
// time. Ties keep the candidate order, which is ascending straight-line
// distance.
func merge(candidates []models.Candidate, legs []routing.Leg, maxKm *float64, maxMin *int) []models.RankedResult {
	merged := make([]mergedResult, 0, len(candidates))
	for i, c := range candidates {
		if i >= len(legs) || !legs[i].OK {
			continue
		}
		leg := legs[i]
		if maxKm != nil && leg.DistanceMeters > *maxKm*1000 {
			continue
		}
		if maxMin != nil && leg.DurationSeconds > float64(*maxMin)*60 {
			continue
		}
		merged = append(merged, mergedResult{candidate: c, leg: leg})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].leg.DurationSeconds < merged[j].leg.DurationSeconds
	})

	results := make([]models.RankedResult, len(merged))
	for i, m := range merged {
		results[i] = models.RankedResult{
			Shop:           m.candidate.Shop,
			Current:        m.candidate.Current,
			StraightLineKm: roundKm(m.candidate.StraightLineMeters),
			WalkingKm:      roundKm(m.leg.DistanceMeters),
			WalkingMinutes: int(math.Round(m.leg.DurationSeconds / 60)),
		}
	}
	return results
}

func roundKm(meters float64) float64 {
	return math.Round(meters/10) / 100
}
