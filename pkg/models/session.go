// Package models contains domain models for skinshelf.
package models

import "time"

// SessionStatus represents the status of an anonymous session.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// AnonymousSession is the identity issued to one browser.
// Its ID partitions every product and history record.
type AnonymousSession struct {
	CreatedAt  time.Time     `json:"createdAt"`
	LastSeenAt time.Time     `json:"lastSeenAt"`
	ID         string        `json:"id"`
	Status     SessionStatus `json:"status"`
}

// LoadState is the lifecycle of a session workspace.
type LoadState string

const (
	LoadStateUnauthenticated LoadState = "unauthenticated"
	LoadStateLoading         LoadState = "loading"
	LoadStateReady           LoadState = "ready"
	LoadStateLoadFailed      LoadState = "load_failed"
)
