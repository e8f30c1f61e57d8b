package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wu-history-viewer/internal/domain"
	"github.com/couchcryptid/wu-history-viewer/internal/observability"
)

// stubSource returns queued results in order. When block is set, each call
// signals started and waits for release.
type stubSource struct {
	results []Result
	errs    []error
	calls   int
	gotDate string

	block   bool
	started chan struct{}
	release chan struct{}
}

func (s *stubSource) Observations(_ context.Context, _, date string) (Result, error) {
	i := s.calls
	s.calls++
	s.gotDate = date
	if s.block {
		s.started <- struct{}{}
		<-s.release
	}
	var res Result
	var err error
	if i < len(s.results) {
		res = s.results[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return res, err
}

func newTestLoader(src ObservationSource) (*Loader, *clockwork.FakeClock, *observability.Metrics) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()
	return NewLoader(src, clock, discardLogger(), metrics), clock, metrics
}

func TestLoader_InitialSnapshotIsIdle(t *testing.T) {
	l, _, _ := newTestLoader(&stubSource{})
	snap := l.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Result)
	assert.Equal(t, "idle", snap.State.String())
}

func TestLoader_LoadSuccess(t *testing.T) {
	src := &stubSource{results: []Result{{
		StationID:    "IMADRI123",
		Date:         "20240501",
		Observations: make([]domain.Observation, 2),
	}}}
	l, clock, metrics := newTestLoader(src)

	snap, err := l.Load(context.Background(), "IMADRI123", "2024-05-01")
	require.NoError(t, err)

	assert.Equal(t, "20240501", src.gotDate)
	assert.Equal(t, StateDone, snap.State)
	assert.Equal(t, "Ready (2 records)", snap.Status)
	assert.Equal(t, "2024-05-01", snap.Date)
	require.NotNil(t, snap.Result)
	assert.Len(t, snap.Result.Observations, 2)
	assert.Equal(t, clock.Now(), snap.StartedAt)
	assert.Equal(t, clock.Now(), snap.FinishedAt)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Loads.WithLabelValues("done")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.LoadInProgress), 0)
}

func TestLoader_InvalidInputLeavesStateAlone(t *testing.T) {
	src := &stubSource{}
	l, _, _ := newTestLoader(src)

	snap, err := l.Load(context.Background(), "IMADRI123", "")
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, StatusSelectInput, snap.Status)
	assert.Equal(t, 0, src.calls)

	_, err = l.Load(context.Background(), " ", "2024-05-01")
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, src.calls)
}

func TestLoader_ErrorKeepsPreviousResult(t *testing.T) {
	src := &stubSource{
		results: []Result{{StationID: "IMADRI123", Observations: make([]domain.Observation, 1)}},
		errs:    []error{nil, errors.New("upstream 503")},
	}
	l, _, metrics := newTestLoader(src)

	_, err := l.Load(context.Background(), "IMADRI123", "2024-05-01")
	require.NoError(t, err)

	snap, err := l.Load(context.Background(), "IMADRI123", "2024-05-02")
	require.Error(t, err)
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, StatusError, snap.Status)
	require.NotNil(t, snap.Result)
	assert.Len(t, snap.Result.Observations, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Loads.WithLabelValues("error")), 0)
}

func TestLoader_RejectsConcurrentLoad(t *testing.T) {
	src := &stubSource{
		results: []Result{{StationID: "IMADRI123"}},
		block:   true,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	l, _, metrics := newTestLoader(src)

	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), "IMADRI123", "2024-05-01")
		done <- err
	}()
	<-src.started

	assert.Equal(t, StateLoading, l.Snapshot().State)
	assert.Equal(t, StatusLoading, l.Snapshot().Status)

	_, err := l.Load(context.Background(), "IMADRI123", "2024-05-01")
	require.ErrorIs(t, err, ErrLoadInProgress)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Loads.WithLabelValues("rejected")), 0)

	close(src.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateDone, l.Snapshot().State)
	assert.Equal(t, 1, src.calls)
}
