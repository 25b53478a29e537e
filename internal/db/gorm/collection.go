package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/thebtf/skinshelf/internal/collections"
)

var (
	// ErrUnknownField is returned when a filter names a field outside the
	// collection's whitelist.
	ErrUnknownField = errors.New("unknown filter field")
	// ErrInvalidRecord is returned when a record fails validation before a write.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrUnknownCollection is returned when a collection is not registered.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Record is a typed row stored in a Collection.
type Record interface {
	DocumentID() string
	Validate() error
}

// Collection is a table of records of one type, keyed by opaque document ids.
type Collection[T Record] struct {
	db   *gorm.DB
	meta *collections.Collection
}

// NewCollection binds the named logical collection of store to T.
func NewCollection[T Record](store *Store, name string) (*Collection[T], error) {
	meta, ok := store.collections.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return &Collection[T]{db: store.DB, meta: meta}, nil
}

// Name returns the logical collection name.
func (c *Collection[T]) Name() string { return c.meta.Name }

// Table returns the backing table name.
func (c *Collection[T]) Table() string { return c.meta.Table }

func (c *Collection[T]) table(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx).Table(c.meta.Table)
}

// Insert validates and stores rec, returning its issued document id.
func (c *Collection[T]) Insert(ctx context.Context, rec T) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	if err := c.table(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.meta.Name, err)
	}
	return rec.DocumentID(), nil
}

// FindBy returns every record whose field equals value, oldest first.
func (c *Collection[T]) FindBy(ctx context.Context, field string, value any) ([]T, error) {
	column, ok := c.meta.Column(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.meta.Name, field)
	}

	var out []T
	err := c.table(ctx).
		Where(eq(column, value)).
		Order(chronological()).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.meta.Name, err)
	}
	return out, nil
}

// Delete removes the record with id. Deleting a missing id is not an error.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	var zero T
	if err := c.table(ctx).Where(eq("id", id)).Delete(&zero).Error; err != nil {
		return fmt.Errorf("delete from %s: %w", c.meta.Name, err)
	}
	return nil
}
