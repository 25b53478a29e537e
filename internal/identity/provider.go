// Package identity issues anonymous per-browser session identifiers.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	gormdb "github.com/thebtf/skinshelf/internal/db/gorm"
	"github.com/thebtf/skinshelf/pkg/models"
)

const (
	// CookieName carries the session id for browsers.
	CookieName = "skinshelf_session"
	// HeaderName carries the session id for API clients.
	HeaderName = "X-Session-Id"

	cookieMaxAge = 365 * 24 * 60 * 60
)

// SessionStore persists anonymous sessions.
type SessionStore interface {
	CreateSession(ctx context.Context) (*models.AnonymousSession, error)
	GetSession(ctx context.Context, id string) (*models.AnonymousSession, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
}

// Provider resolves or issues session identities.
type Provider struct {
	store SessionStore
	now   func() time.Time
}

// NewProvider creates a provider over store.
func NewProvider(store SessionStore) *Provider {
	return &Provider{store: store, now: time.Now}
}

// ErrUnknownSession is returned by Resolve for an id that does not name an
// active session.
var ErrUnknownSession = errors.New("identity: unknown session")

// GetOrCreate returns the active session named by presentedID, or issues a
// new one when the id is empty, malformed, unknown or revoked.
func (p *Provider) GetOrCreate(ctx context.Context, presentedID string) (*models.AnonymousSession, error) {
	sess, err := p.Resolve(ctx, presentedID)
	switch {
	case err == nil:
		return sess, nil
	case !errors.Is(err, ErrUnknownSession):
		return nil, err
	}
	if presentedID != "" {
		log.Debug().Str("presented", presentedID).Msg("Presented session not reusable, issuing new one")
	}

	sess, err = p.store.CreateSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	log.Info().Str("userId", sess.ID).Msg("Issued anonymous session")
	return sess, nil
}

// Resolve touches and returns the active session named by id. It never
// issues a session.
func (p *Provider) Resolve(ctx context.Context, id string) (*models.AnonymousSession, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUnknownSession
	}

	sess, err := p.store.GetSession(ctx, id)
	switch {
	case errors.Is(err, gormdb.ErrSessionNotFound):
		return nil, ErrUnknownSession
	case err != nil:
		return nil, fmt.Errorf("get session: %w", err)
	case sess.Status != models.SessionStatusActive:
		return nil, ErrUnknownSession
	}

	now := p.now().UTC()
	if err := p.store.TouchSession(ctx, sess.ID, now); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	sess.LastSeenAt = now
	return sess, nil
}

// FromRequest returns the session id presented by r, header first.
func FromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderName)); id != "" {
		return id
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie writes the session cookie for id.
func SetCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
