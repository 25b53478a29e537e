// Package shelf keeps a visitor's product list in sync with the document store.
package shelf

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/thebtf/skinshelf/internal/apperr"
	"github.com/thebtf/skinshelf/pkg/models"
)

// Store is the slice of the document store the manager needs.
type Store interface {
	InsertProduct(ctx context.Context, userID string, p models.Product, at time.Time) (string, error)
	ProductsByUser(ctx context.Context, userID string) ([]models.ProductDocument, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Manager owns the in-memory product list of one session and the
// name to document id index used to resolve deletions.
//
// The remote write always happens first; the list and index are only
// touched after the store acknowledges, and always together.
type Manager struct {
	store    Store
	now      func() time.Time
	index    map[string]string
	userID   string
	products []models.Product
}

// NewManager creates an empty manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
		index: make(map[string]string),
	}
}

// UserID returns the session the manager was loaded for.
func (m *Manager) UserID() string {
	return m.userID
}

// Load replaces the list with the session's stored products and rebuilds
// the index from scratch. On failure the list is left empty.
func (m *Manager) Load(ctx context.Context, userID string) error {
	m.userID = userID
	m.products = nil
	m.index = make(map[string]string)

	docs, err := m.store.ProductsByUser(ctx, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindLoad, "shelf.Load", apperr.MsgLoadProducts, err)
	}

	for _, doc := range docs {
		if _, exists := m.index[doc.Name]; exists {
			log.Warn().
				Str("userId", userID).
				Str("product", doc.Name).
				Str("docId", doc.ID).
				Msg("Duplicate product document ignored")
			continue
		}
		m.products = append(m.products, doc.Product)
		m.index[doc.Name] = doc.ID
	}

	log.Debug().Str("userId", userID).Int("products", len(m.products)).Msg("Products loaded")
	return nil
}

// Add validates and persists a new product, then appends it to the list.
func (m *Manager) Add(ctx context.Context, name, priceText string) (models.Product, error) {
	const op = "shelf.Add"

	if m.userID == "" {
		return models.Product{}, apperr.New(apperr.KindAuth, op, apperr.MsgAuthFailed)
	}

	name = strings.TrimSpace(name)
	price, err := ParsePrice(priceText)
	if name == "" || err != nil {
		return models.Product{}, apperr.Wrap(apperr.KindValidation, op, apperr.MsgValidation, err)
	}

	if m.contains(name) {
		return models.Product{}, apperr.New(apperr.KindDuplicate, op, apperr.MsgDuplicate)
	}

	product := models.Product{Name: name, Price: price}
	id, err := m.store.InsertProduct(ctx, m.userID, product, m.now())
	if err != nil {
		return models.Product{}, apperr.Wrap(apperr.KindPersistence, op, apperr.MsgAddFailed, err)
	}

	m.products = append(m.products, product)
	m.index[name] = id

	log.Debug().Str("userId", m.userID).Str("product", name).Str("docId", id).Msg("Product added")
	return product, nil
}

// Delete removes the named product from the store, then from the list.
// A name with no indexed document is reported as not found.
func (m *Manager) Delete(ctx context.Context, name string) error {
	const op = "shelf.Delete"

	id, ok := m.index[name]
	if !ok {
		return apperr.New(apperr.KindNotFound, op, apperr.MsgNotFound)
	}

	if err := m.store.DeleteProduct(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, apperr.MsgDeleteFailed, err)
	}

	for i, p := range m.products {
		if p.Name == name {
			m.products = append(m.products[:i:i], m.products[i+1:]...)
			break
		}
	}
	delete(m.index, name)

	log.Debug().Str("userId", m.userID).Str("product", name).Str("docId", id).Msg("Product deleted")
	return nil
}

// Products returns a copy of the list in display order.
func (m *Manager) Products() []models.Product {
	out := make([]models.Product, len(m.products))
	copy(out, m.products)
	return out
}

// Names returns product names in display order.
func (m *Manager) Names() []string {
	return models.ProductNames(m.products)
}

// DocumentID returns the indexed document id for name.
func (m *Manager) DocumentID(name string) (string, bool) {
	id, ok := m.index[name]
	return id, ok
}

func (m *Manager) contains(name string) bool {
	for _, p := range m.products {
		if p.Name == name {
			return true
		}
	}
	return false
}

// ParsePrice parses user input into a finite decimal strictly above zero.
func ParsePrice(text string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, errNotPositive
	}
	return price, nil
}
