package gorm

import (
	"context"
	"time"

	"github.com/thebtf/skinshelf/internal/collections"
	"github.com/thebtf/skinshelf/pkg/models"
)

// Filterable logical fields.
const (
	FieldUserID      = "userId"
	FieldProductName = "productName"
)

// DocumentStore persists shelf products and lookup history.
type DocumentStore struct {
	products *Collection[ProductRecord]
	views    *Collection[ViewRecord]
}

// NewDocumentStore creates a document store over the products and views collections.
func NewDocumentStore(store *Store) (*DocumentStore, error) {
	products, err := NewCollection[ProductRecord](store, collections.Products)
	if err != nil {
		return nil, err
	}
	views, err := NewCollection[ViewRecord](store, collections.Views)
	if err != nil {
		return nil, err
	}
	return &DocumentStore{products: products, views: views}, nil
}

// InsertProduct stores a product for userID and returns its document id.
func (s *DocumentStore) InsertProduct(ctx context.Context, userID string, p models.Product, at time.Time) (string, error) {
	return s.products.Insert(ctx, ProductRecord{
		UserID:      userID,
		ProductName: p.Name,
		Price:       Price{Decimal: p.Price},
		Timestamp:   at.UTC(),
	})
}

// ProductsByUser returns the user's products, oldest first.
func (s *DocumentStore) ProductsByUser(ctx context.Context, userID string) ([]models.ProductDocument, error) {
	records, err := s.products.FindBy(ctx, FieldUserID, userID)
	if err != nil {
		return nil, err
	}
	docs := make([]models.ProductDocument, len(records))
	for i, r := range records {
		docs[i] = r.Document()
	}
	return docs, nil
}

// DeleteProduct removes a product document.
func (s *DocumentStore) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

// InsertView stores a lookup history entry and returns its document id.
func (s *DocumentStore) InsertView(ctx context.Context, entry models.ViewHistoryEntry) (string, error) {
	return s.views.Insert(ctx, ViewRecord{
		UserID:      entry.UserID,
		ProductName: entry.ProductNames,
		Details:     entry.Details,
		Timestamp:   entry.Timestamp.UTC(),
	})
}

// ViewsByUser returns the user's lookup history, oldest first.
func (s *DocumentStore) ViewsByUser(ctx context.Context, userID string) ([]models.ViewHistoryEntry, error) {
	records, err := s.views.FindBy(ctx, FieldUserID, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]models.ViewHistoryEntry, len(records))
	for i, r := range records {
		entries[i] = r.Entry()
	}
	return entries, nil
}
