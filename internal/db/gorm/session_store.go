package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/thebtf/skinshelf/pkg/models"
)

// ErrSessionNotFound is returned when no session has the requested id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore provides anonymous session operations using GORM.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a new session store.
func NewSessionStore(store *Store) *SessionStore {
	return &SessionStore{db: store.DB}
}

// CreateSession issues a new active session.
func (s *SessionStore) CreateSession(ctx context.Context) (*models.AnonymousSession, error) {
	sess := &AnonymousSession{}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess.toModel(), nil
}

// GetSession returns the session with id.
func (s *SessionStore) GetSession(ctx context.Context, id string) (*models.AnonymousSession, error) {
	var sess AnonymousSession
	err := s.db.WithContext(ctx).Where(eq("id", id)).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess.toModel(), nil
}

// TouchSession records activity on a session.
func (s *SessionStore) TouchSession(ctx context.Context, id string, at time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&AnonymousSession{}).
		Where(eq("id", id)).
		Update("last_seen_at", at.UTC())
	if result.Error != nil {
		return fmt.Errorf("touch session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RevokeSession marks a session revoked so it is never reused.
func (s *SessionStore) RevokeSession(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&AnonymousSession{}).
		Where(eq("id", id)).
		Update("status", models.SessionStatusRevoked)
	if result.Error != nil {
		return fmt.Errorf("revoke session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
