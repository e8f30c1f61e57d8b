package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wu-history-viewer/internal/domain"
	"github.com/couchcryptid/wu-history-viewer/internal/observability"
)

// ErrLoadInProgress is returned when Load is called while another load has
// not settled yet.
var ErrLoadInProgress = errors.New("load already in progress")

// Status messages shown next to the table.
const (
	StatusSelectInput = "Select a station and date first."
	StatusLoading     = "Loading…"
	StatusError       = "Error loading data"
)

// State is a step of the load lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ObservationSource is what the loader drives; *Service implements it.
type ObservationSource interface {
	Observations(ctx context.Context, stationID, date string) (Result, error)
}

// Snapshot is a copy of the loader's state safe to read without locking.
type Snapshot struct {
	State      State
	StationID  string
	Date       string // form layout, YYYY-MM-DD
	Status     string
	Result     *Result // last successful load; kept across failures
	StartedAt  time.Time
	FinishedAt time.Time
}

// Loader gates loads through Idle → Loading → Done | Error. Only one load
// runs at a time; a failed load keeps the previous result on display.
type Loader struct {
	source  ObservationSource
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu   sync.Mutex
	snap Snapshot
}

// NewLoader creates an idle Loader. Pass a nil clock to use real time.
func NewLoader(source ObservationSource, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loader{
		source:  source,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Snapshot returns the current state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

// Load fetches and normalizes one station-day given a form date (YYYY-MM-DD).
// It returns ErrLoadInProgress without side effects while another load runs,
// and an ErrInvalidRequest error when either input is missing or malformed.
func (l *Loader) Load(ctx context.Context, stationID, isoDate string) (Snapshot, error) {
	stationID = strings.TrimSpace(stationID)
	date, dateErr := domain.CompactDate(isoDate)

	l.mu.Lock()
	if l.snap.State == StateLoading {
		snap := l.snap
		l.mu.Unlock()
		l.metrics.Loads.WithLabelValues("rejected").Inc()
		return snap, ErrLoadInProgress
	}
	if stationID == "" || dateErr != nil {
		l.snap.Status = StatusSelectInput
		snap := l.snap
		l.mu.Unlock()
		return snap, fmt.Errorf("%w: station and date (YYYY-MM-DD) are required", ErrInvalidRequest)
	}
	l.snap.State = StateLoading
	l.snap.StationID = stationID
	l.snap.Date = strings.TrimSpace(isoDate)
	l.snap.Status = StatusLoading
	l.snap.StartedAt = l.clock.Now()
	l.mu.Unlock()

	l.metrics.LoadInProgress.Set(1)
	defer l.metrics.LoadInProgress.Set(0)

	res, err := l.source.Observations(ctx, stationID, date)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.FinishedAt = l.clock.Now()
	if err != nil {
		l.snap.State = StateError
		l.snap.Status = StatusError
		l.metrics.Loads.WithLabelValues("error").Inc()
		l.logger.Error("load failed", "station_id", stationID, "date", date, "error", err)
		return l.snap, err
	}

	l.snap.State = StateDone
	l.snap.Result = &res
	l.snap.Status = fmt.Sprintf("Ready (%d records)", len(res.Observations))
	l.metrics.Loads.WithLabelValues("done").Inc()
	return l.snap, nil
}
