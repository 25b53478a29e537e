package gorm

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/thebtf/skinshelf/pkg/models"
)

// GORM Models

// Price is a decimal column stored as text on SQLite and numeric on
// PostgreSQL. SQLite's numeric affinity would round it through REAL.
type Price struct {
	decimal.Decimal
}

// GormDBDataType implements schema.GormDBDataTypeInterface.
func (Price) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == DriverPostgres {
		return "numeric"
	}
	return "varchar(64)"
}

// ProductRecord is one product on a user's shelf.
// The table name comes from the products collection; migrateCollections
// indexes it on (user_id, timestamp).
type ProductRecord struct {
	Timestamp   time.Time `gorm:"column:timestamp;not null"`
	Price       Price     `gorm:"not null"`
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `gorm:"type:varchar(64);not null"`
	ProductName string    `gorm:"type:text;not null"`
}

// BeforeCreate assigns a time-ordered document id.
func (r *ProductRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		r.ID = id.String()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}

// DocumentID returns the record id.
func (r ProductRecord) DocumentID() string { return r.ID }

// Validate checks the record before it is written.
func (r ProductRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return fmt.Errorf("%w: product without user id", ErrInvalidRecord)
	case strings.TrimSpace(r.ProductName) == "":
		return fmt.Errorf("%w: product without name", ErrInvalidRecord)
	case !r.Price.IsPositive():
		return fmt.Errorf("%w: price %s is not positive", ErrInvalidRecord, r.Price)
	}
	return nil
}

// Document converts the record to its domain form.
func (r ProductRecord) Document() models.ProductDocument {
	return models.ProductDocument{
		ID:        r.ID,
		UserID:    r.UserID,
		CreatedAt: r.Timestamp,
		Product:   models.Product{Name: r.ProductName, Price: r.Price.Decimal},
	}
}

// ViewRecord is one recorded detail lookup.
// The table name comes from the views collection and is indexed like
// the products table.
type ViewRecord struct {
	Timestamp   time.Time `gorm:"column:timestamp;not null"`
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `gorm:"type:varchar(64);not null"`
	ProductName string    `gorm:"type:text;not null"`
	Details     string    `gorm:"type:text"`
}

// BeforeCreate assigns a time-ordered document id.
func (r *ViewRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		r.ID = id.String()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}

// DocumentID returns the record id.
func (r ViewRecord) DocumentID() string { return r.ID }

// Validate checks the record before it is written.
func (r ViewRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return fmt.Errorf("%w: view without user id", ErrInvalidRecord)
	case strings.TrimSpace(r.ProductName) == "":
		return fmt.Errorf("%w: view without product names", ErrInvalidRecord)
	}
	return nil
}

// Entry converts the record to its domain form.
func (r ViewRecord) Entry() models.ViewHistoryEntry {
	return models.ViewHistoryEntry{
		Timestamp:    r.Timestamp,
		ID:           r.ID,
		UserID:       r.UserID,
		ProductNames: r.ProductName,
		Details:      r.Details,
	}
}

// AnonymousSession is a browser session issued by the identity provider.
type AnonymousSession struct {
	CreatedAt  time.Time            `gorm:"not null"`
	LastSeenAt time.Time            `gorm:"not null;index"`
	ID         string               `gorm:"primaryKey;type:varchar(36)"`
	Status     models.SessionStatus `gorm:"type:varchar(16);default:'active';check:status IN ('active', 'revoked');not null"`
}

func (AnonymousSession) TableName() string { return "anonymous_sessions" }

// BeforeCreate assigns the session id and timestamps.
func (s *AnonymousSession) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.LastSeenAt.IsZero() {
		s.LastSeenAt = s.CreatedAt
	}
	if s.Status == "" {
		s.Status = models.SessionStatusActive
	}
	return nil
}

func (s AnonymousSession) toModel() *models.AnonymousSession {
	return &models.AnonymousSession{
		CreatedAt:  s.CreatedAt,
		LastSeenAt: s.LastSeenAt,
		ID:         s.ID,
		Status:     s.Status,
	}
}
