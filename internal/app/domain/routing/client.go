package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anoopems/chaikada/internal/app/models"
	"github.com/anoopems/chaikada/internal/pkg/config"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Leg is the walking route from the search origin to one destination. A
// destination OSRM cannot route to gets OK=false; the rest of the batch is
// unaffected.
type Leg struct {
	OK              bool
	DistanceMeters  float64
	DurationSeconds float64
}

var _ Client = (*OSRMClient)(nil)

// Client resolves walking distance and time for a batch of destinations in
// one logical round trip. The returned slice has the same length and order
// as dests.
type Client interface {
	Enrich(ctx context.Context, origin Point, dests []Point) ([]Leg, error)
}

// OSRMClient talks to an OSRM instance's table service using the foot
// profile.
type OSRMClient struct {
	logger   *zap.Logger
	baseURL  string
	maxBatch int
	http     *http.Client
}

func NewOSRMClient(cfg config.RoutingConfig, logger *zap.Logger) *OSRMClient {
	maxBatch := cfg.MaxBatch
	if maxBatch < 2 {
		maxBatch = 100
	}
	return &OSRMClient{
		logger:   logger,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxBatch: maxBatch,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

func (c *OSRMClient) Enrich(ctx context.Context, origin Point, dests []Point) ([]Leg, error) {
	if len(dests) == 0 {
		return []Leg{}, nil
	}

	legs := make([]Leg, len(dests))

	// The origin occupies one slot of every table call, so each chunk holds
	// at most maxBatch-1 destinations. Chunks run concurrently and write to
	// disjoint ranges of legs.
	chunkSize := c.maxBatch - 1
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(dests); start += chunkSize {
		end := min(start+chunkSize, len(dests))
		g.Go(func() error {
			chunk, err := c.table(ctx, origin, dests[start:end])
			if err != nil {
				return err
			}
			copy(legs[start:end], chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return legs, nil
}

func (c *OSRMClient) table(ctx context.Context, origin Point, dests []Point) ([]Leg, error) {
	var coords strings.Builder
	fmt.Fprintf(&coords, "%f,%f", origin.Lon, origin.Lat)
	destIdx := make([]string, len(dests))
	for i, d := range dests {
		fmt.Fprintf(&coords, ";%f,%f", d.Lon, d.Lat)
		destIdx[i] = strconv.Itoa(i + 1)
	}

	q := url.Values{}
	q.Set("sources", "0")
	q.Set("destinations", strings.Join(destIdx, ";"))
	q.Set("annotations", "duration,distance")

	reqURL := fmt.Sprintf("%s/table/v1/foot/%s?%s", c.baseURL, coords.String(), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build routing request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Routing service unreachable", zap.Error(err))
		return nil, fmt.Errorf("routing service unreachable: %v: %w", err, models.ErrService)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Routing service returned error status", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("routing service returned status %d: %w", resp.StatusCode, models.ErrService)
	}

	var table tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("failed to decode routing response: %v: %w", err, models.ErrService)
	}
	if table.Code != "Ok" {
		c.logger.Error("Routing service rejected table request",
			zap.String("code", table.Code),
			zap.String("message", table.Message))
		return nil, fmt.Errorf("routing service error %s: %w", table.Code, models.ErrService)
	}
	if len(table.Durations) != 1 || len(table.Durations[0]) != len(dests) ||
		len(table.Distances) != 1 || len(table.Distances[0]) != len(dests) {
		return nil, fmt.Errorf("routing response shape mismatch: %w", models.ErrService)
	}

	legs := make([]Leg, len(dests))
	for i := range dests {
		dur := table.Durations[0][i]
		dist := table.Distances[0][i]
		if dur == nil || dist == nil {
			// Unroutable destination: failed element, batch proceeds.
			continue
		}
		legs[i] = Leg{OK: true, DistanceMeters: *dist, DurationSeconds: *dur}
	}
	return legs, nil
}
