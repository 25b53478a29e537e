// Package session keeps one product shelf and lookup recorder per anonymous session.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/skinshelf/internal/apperr"
	"github.com/thebtf/skinshelf/internal/lookup"
	"github.com/thebtf/skinshelf/internal/shelf"
	"github.com/thebtf/skinshelf/internal/worker/sse"
	"github.com/thebtf/skinshelf/pkg/models"
)

// ErrNoSession is returned when an operation names a session with no workspace.
var ErrNoSession = apperr.New(apperr.KindAuth, "session.Get", apperr.MsgAuthFailed)

// Publisher receives change events for a session.
type Publisher interface {
	Publish(event sse.Event)
}

// Deps are the shared collaborators every workspace is built from.
type Deps struct {
	Products shelf.Store
	History  lookup.HistoryStore
	Details  lookup.DetailService
	Events   Publisher
}

// Manager owns the workspaces of all active sessions.
type Manager struct {
	workspaces map[string]*Workspace
	onCreated  func(userID string)
	onDeleted  func(userID string)
	deps       Deps
	mu         sync.RWMutex
}

// NewManager creates a workspace manager.
func NewManager(deps Deps) *Manager {
	return &Manager{
		workspaces: make(map[string]*Workspace),
		deps:       deps,
	}
}

// SetOnSessionCreated sets the callback invoked after a workspace first loads.
func (m *Manager) SetOnSessionCreated(fn func(userID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCreated = fn
}

// SetOnSessionDeleted sets the callback invoked when a workspace is closed.
func (m *Manager) SetOnSessionDeleted(fn func(userID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDeleted = fn
}

// Open returns the workspace for userID, creating and loading it on first use.
// A workspace whose load failed is still returned; its State reports why.
func (m *Manager) Open(ctx context.Context, userID string) (*Workspace, error) {
	if userID == "" {
		return nil, apperr.New(apperr.KindAuth, "session.Open", apperr.MsgAuthFailed)
	}

	m.mu.Lock()
	ws, exists := m.workspaces[userID]
	if !exists {
		ws = newWorkspace(userID, m.deps)
		// Held until the first load completes so concurrent callers wait for it.
		ws.mu.Lock()
		m.workspaces[userID] = ws
	}
	onCreated := m.onCreated
	m.mu.Unlock()

	if exists {
		ws.touch()
		return ws, nil
	}

	ws.loadLocked(ctx)
	ws.mu.Unlock()

	if onCreated != nil {
		onCreated(userID)
	}
	return ws, nil
}

// Get returns an already open workspace.
func (m *Manager) Get(userID string) (*Workspace, error) {
	m.mu.RLock()
	ws, ok := m.workspaces[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	ws.touch()
	return ws, nil
}

// Close drops the workspace for userID. Closing twice is safe.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	_, ok := m.workspaces[userID]
	delete(m.workspaces, userID)
	onDeleted := m.onDeleted
	m.mu.Unlock()

	if ok && onDeleted != nil {
		onDeleted(userID)
	}
}

// Count returns the number of open workspaces.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workspaces)
}

// All returns every open workspace.
func (m *Manager) All() []*Workspace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		out = append(out, ws)
	}
	return out
}

// CloseIdle drops workspaces unused for longer than maxIdle and returns how many.
func (m *Manager) CloseIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	var idle []string
	for _, ws := range m.All() {
		if ws.LastUsed().Before(cutoff) {
			idle = append(idle, ws.UserID)
		}
	}
	for _, id := range idle {
		m.Close(id)
	}
	return len(idle)
}

// Workspace is one session's shelf, lookup recorder and loaded history.
type Workspace struct {
	lastUsed    time.Time
	shelf       *shelf.Manager
	recorder    *lookup.Recorder
	events      Publisher
	UserID      string
	loadMessage string
	lastDetails string
	state       models.LoadState
	history     []models.ViewHistoryEntry
	mu          sync.Mutex
	usedMu      sync.Mutex
}

func newWorkspace(userID string, deps Deps) *Workspace {
	return &Workspace{
		UserID:   userID,
		shelf:    shelf.NewManager(deps.Products),
		recorder: lookup.NewRecorder(deps.Details, deps.History),
		events:   deps.Events,
		state:    models.LoadStateUnauthenticated,
		lastUsed: time.Now(),
	}
}

func (w *Workspace) touch() {
	w.usedMu.Lock()
	w.lastUsed = time.Now()
	w.usedMu.Unlock()
}

// LastUsed returns when the workspace was last opened or fetched.
func (w *Workspace) LastUsed() time.Time {
	w.usedMu.Lock()
	defer w.usedMu.Unlock()
	return w.lastUsed
}

// loadLocked runs the load pipeline: products, then history. Caller holds w.mu.
func (w *Workspace) loadLocked(ctx context.Context) error {
	w.state = models.LoadStateLoading
	w.loadMessage = ""

	if err := w.shelf.Load(ctx, w.UserID); err != nil {
		w.failLoad(err)
		return err
	}

	history, err := w.recorder.LoadHistory(ctx, w.UserID)
	if err != nil {
		w.history = nil
		w.failLoad(err)
		return err
	}
	w.history = history
	w.state = models.LoadStateReady

	log.Info().
		Str("userId", w.UserID).
		Int("products", len(w.shelf.Products())).
		Int("history", len(history)).
		Msg("Workspace loaded")
	return nil
}

func (w *Workspace) failLoad(err error) {
	w.state = models.LoadStateLoadFailed
	w.loadMessage = apperr.UserMessage(err)
	log.Warn().Err(err).Str("userId", w.UserID).Msg("Workspace load failed")
}

// Reload re-runs the load pipeline.
func (w *Workspace) Reload(ctx context.Context) error {
	w.mu.Lock()
	err := w.loadLocked(ctx)
	w.mu.Unlock()

	w.publish(sse.Event{Type: sse.EventReloaded})
	return err
}

// State returns the load state and, for LoadFailed, its user message.
func (w *Workspace) State() (models.LoadState, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, w.loadMessage
}

// Products returns the current list in order.
func (w *Workspace) Products() []models.Product {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shelf.Products()
}

// History returns the loaded view history, newest first.
func (w *Workspace) History() []models.ViewHistoryEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.ViewHistoryEntry, len(w.history))
	copy(out, w.history)
	return out
}

// LastDetails returns the text shown by the most recent lookup.
func (w *Workspace) LastDetails() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastDetails
}

// LookupState returns the recorder's state.
func (w *Workspace) LookupState() lookup.State {
	return w.recorder.State()
}

// Add adds a product and returns the updated list.
func (w *Workspace) Add(ctx context.Context, name, priceText string) ([]models.Product, error) {
	w.mu.Lock()
	p, err := w.shelf.Add(ctx, name, priceText)
	products := w.shelf.Products()
	w.mu.Unlock()
	if err != nil {
		return products, err
	}

	w.publish(sse.Event{Type: sse.EventProductAdded, Product: p.Name})
	return products, nil
}

// Delete removes a product by name and returns the updated list.
func (w *Workspace) Delete(ctx context.Context, name string) ([]models.Product, error) {
	w.mu.Lock()
	err := w.shelf.Delete(ctx, name)
	products := w.shelf.Products()
	w.mu.Unlock()
	if err != nil {
		return products, err
	}

	w.publish(sse.Event{Type: sse.EventProductDeleted, Product: name})
	return products, nil
}

// FetchDetails looks up details for the current list. On success the
// history is reloaded; a failed reload keeps the previous history.
func (w *Workspace) FetchDetails(ctx context.Context) (lookup.Result, error) {
	w.mu.Lock()
	products := w.shelf.Products()
	w.mu.Unlock()

	res, err := w.recorder.FetchDetails(ctx, products, w.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrService) {
			w.mu.Lock()
			w.lastDetails = res.Details
			w.mu.Unlock()
			w.publish(sse.Event{Type: sse.EventLookupFailed})
		}
		return res, err
	}

	history, herr := w.recorder.LoadHistory(ctx, w.UserID)

	w.mu.Lock()
	w.lastDetails = res.Details
	if herr != nil {
		log.Warn().Err(herr).Str("userId", w.UserID).Msg("History reload failed, keeping previous history")
	} else {
		w.history = history
	}
	w.mu.Unlock()

	w.publish(sse.Event{Type: sse.EventHistoryUpdated})
	return res, nil
}

func (w *Workspace) publish(event sse.Event) {
	if w.events == nil {
		return
	}
	event.UserID = w.UserID
	w.events.Publish(event)
}
