// Package models contains domain models for skinshelf.
package models

import "time"

// ViewHistoryEntry records one successful detail lookup.
// Entries are append-only and immutable once written.
type ViewHistoryEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ProductNames string    `json:"productName"`
	Details      string    `json:"details"`
}
