package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/wu-history-viewer/internal/domain"
	"github.com/couchcryptid/wu-history-viewer/internal/observability"
)

// ErrInvalidRequest is wrapped by every input validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// Fetcher returns the raw provider body for one station and day (YYYYMMDD).
type Fetcher interface {
	FetchHistory(ctx context.Context, stationID, date string) ([]byte, error)
}

// freshFetcher is implemented by caching fetchers that can tell a cached
// body from one just fetched upstream.
type freshFetcher interface {
	FetchHistoryFresh(ctx context.Context, stationID, date string) ([]byte, bool, error)
}

// Publisher forwards normalized observations to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, stationID string, observations []domain.Observation) error
}

// Result is one normalized station-day.
type Result struct {
	StationID    string               `json:"stationId"`
	Date         string               `json:"date"`
	Observations []domain.Observation `json:"observations"`
	Summary      domain.Summary       `json:"summary"`
}

// Service runs fetch, normalize, summarize and publish for one request.
type Service struct {
	fetcher    Fetcher
	normalizer *domain.Normalizer
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewService creates a Service. Pass a nil publisher to disable the sink.
func NewService(f Fetcher, n *domain.Normalizer, p Publisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		fetcher:    f,
		normalizer: n,
		publisher:  p,
		logger:     logger,
		metrics:    metrics,
	}
}

// ValidateRequest checks a station ID and a provider date (YYYYMMDD).
func ValidateRequest(stationID, date string) error {
	if strings.TrimSpace(stationID) == "" {
		return fmt.Errorf("%w: stationId is required", ErrInvalidRequest)
	}
	if !domain.ValidCompactDate(date) {
		return fmt.Errorf("%w: date must be YYYYMMDD", ErrInvalidRequest)
	}
	return nil
}

// History returns the provider body untouched, for the pass-through proxy.
// A body fetched upstream is also normalized and published, so the sink sees
// every station-day once per fetch whichever route triggered it.
func (s *Service) History(ctx context.Context, stationID, date string) ([]byte, error) {
	stationID = strings.TrimSpace(stationID)
	if err := ValidateRequest(stationID, date); err != nil {
		return nil, err
	}
	body, fresh, err := s.fetch(ctx, stationID, date)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil && fresh {
		observations, err := s.normalizer.NormalizeJSON(body)
		if err != nil {
			s.logger.Warn("skip publishing undecodable history", "station_id", stationID, "date", date, "error", err)
			return body, nil
		}
		s.publish(ctx, stationID, observations)
	}
	return body, nil
}

// Observations fetches and normalizes one station-day. Only days fetched from
// upstream are published; a failing sink is logged and counted but does not
// fail the request.
func (s *Service) Observations(ctx context.Context, stationID, date string) (Result, error) {
	stationID = strings.TrimSpace(stationID)
	if err := ValidateRequest(stationID, date); err != nil {
		return Result{}, err
	}

	start := time.Now()
	body, fresh, err := s.fetch(ctx, stationID, date)
	if err != nil {
		return Result{}, err
	}

	observations, err := s.normalizer.NormalizeJSON(body)
	if err != nil {
		return Result{}, err
	}

	empty := 0
	for _, ob := range observations {
		if !ob.HasData() {
			empty++
		}
	}
	s.metrics.ObservationsNormalized.Add(float64(len(observations)))
	s.metrics.EmptyObservations.Add(float64(empty))

	s.logger.Info("observations normalized",
		"station_id", stationID,
		"date", date,
		"count", len(observations),
		"empty", empty,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	// A cached day was already published when it was first fetched.
	if s.publisher != nil && fresh {
		s.publish(ctx, stationID, observations)
	}

	return Result{
		StationID:    stationID,
		Date:         date,
		Observations: observations,
		Summary:      domain.Summarize(observations),
	}, nil
}

func (s *Service) fetch(ctx context.Context, stationID, date string) ([]byte, bool, error) {
	if f, ok := s.fetcher.(freshFetcher); ok {
		return f.FetchHistoryFresh(ctx, stationID, date)
	}
	body, err := s.fetcher.FetchHistory(ctx, stationID, date)
	return body, true, err
}

func (s *Service) publish(ctx context.Context, stationID string, observations []domain.Observation) {
	if err := s.publisher.Publish(ctx, stationID, observations); err != nil {
		s.metrics.SinkErrors.Inc()
		s.logger.Warn("publish observations failed", "station_id", stationID, "error", err)
		return
	}
	s.metrics.SinkPublished.Add(float64(len(observations)))
}
