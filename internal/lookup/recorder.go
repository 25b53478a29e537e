package lookup

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/thebtf/skinshelf/internal/apperr"
	"github.com/thebtf/skinshelf/pkg/models"
)

// FailureMessage is displayed in place of details when a lookup fails.
const FailureMessage = apperr.MsgServiceFailed

// State is the lifecycle of a single detail lookup.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateRecorded   State = "recorded"
	StateFailed     State = "failed"
)

// HistoryStore is the slice of the document store the recorder needs.
type HistoryStore interface {
	InsertView(ctx context.Context, entry models.ViewHistoryEntry) (string, error)
	ViewsByUser(ctx context.Context, userID string) ([]models.ViewHistoryEntry, error)
}

// Result is the outcome of FetchDetails.
type Result struct {
	// Entry is the appended history entry; nil when the append failed.
	Entry *models.ViewHistoryEntry

	// Details is the text to display: the completion, or FailureMessage.
	Details string

	State State
}

// Recorder orchestrates detail lookups and the view history.
// At most one lookup is in flight per recorder.
type Recorder struct {
	service  DetailService
	history  HistoryStore
	inFlight *semaphore.Weighted
	now      func() time.Time
	metrics  *metrics
	state    State
	mu       sync.RWMutex
}

// NewRecorder creates a recorder over service and history.
func NewRecorder(service DetailService, history HistoryStore) *Recorder {
	return &Recorder{
		service:  service,
		history:  history,
		inFlight: semaphore.NewWeighted(1),
		now:      time.Now,
		metrics:  defaultMetrics(),
		state:    StateIdle,
	}
}

// State returns the state of the latest lookup.
func (r *Recorder) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Recorder) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// FetchDetails requests details for products and records the answer.
//
// An empty list fails with an EmptyList error before any call is made.
// A service failure returns a Service error together with a Result whose
// Details is FailureMessage. A failed history append is logged and
// otherwise ignored.
func (r *Recorder) FetchDetails(ctx context.Context, products []models.Product, userID string) (Result, error) {
	const op = "lookup.FetchDetails"

	if len(products) == 0 {
		return Result{State: r.State()}, apperr.New(apperr.KindEmptyList, op, apperr.MsgEmptyList)
	}
	if !r.inFlight.TryAcquire(1) {
		return Result{State: StateRequesting}, apperr.New(apperr.KindInFlight, op, apperr.MsgInFlight)
	}
	defer r.inFlight.Release(1)

	r.setState(StateRequesting)

	text, err := r.service.Details(ctx, products, userID)
	if err != nil {
		r.setState(StateFailed)
		r.metrics.lookup(ctx, string(StateFailed))
		log.Warn().Err(err).Str("userId", userID).Int("products", len(products)).Msg("Detail lookup failed")
		return Result{Details: FailureMessage, State: StateFailed},
			apperr.Wrap(apperr.KindService, op, apperr.MsgServiceFailed, err)
	}

	entry := models.ViewHistoryEntry{
		UserID:       userID,
		ProductNames: models.JoinProductNames(products),
		Details:      text,
		Timestamp:    r.now(),
	}

	result := Result{Details: text, State: StateRecorded}
	id, err := r.history.InsertView(ctx, entry)
	if err != nil {
		r.metrics.appendFailed(ctx)
		log.Warn().Err(err).Str("userId", userID).Msg("View history append failed")
	} else {
		entry.ID = id
		result.Entry = &entry
	}

	r.setState(StateRecorded)
	r.metrics.lookup(ctx, string(StateRecorded))
	return result, nil
}

// LoadHistory returns the session's entries, newest first.
func (r *Recorder) LoadHistory(ctx context.Context, userID string) ([]models.ViewHistoryEntry, error) {
	entries, err := r.history.ViewsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLoad, "lookup.LoadHistory", apperr.MsgLoadHistory, err)
	}

	slices.SortStableFunc(entries, func(a, b models.ViewHistoryEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	slices.Reverse(entries)
	return entries, nil
}
