package gorm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"

	"github.com/thebtf/skinshelf/internal/collections"
	"github.com/thebtf/skinshelf/pkg/models"
)

func newTestStore(t *testing.T, registry *collections.Registry) *Store {
	t.Helper()
	store, err := NewStore(Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		MaxConns:    4,
		LogLevel:    logger.Silent,
		Collections: registry,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Ping())
	assert.Equal(t, DriverSQLite, store.Driver())

	var journalMode string
	require.NoError(t, store.DB.Raw("PRAGMA journal_mode").Scan(&journalMode).Error)
	assert.Equal(t, "wal", journalMode)

	for _, table := range []string{"skincare", "skincare_views", "anonymous_sessions"} {
		assert.True(t, store.DB.Migrator().HasTable(table), "table %q missing", table)
	}
}

func TestNewStore_CustomTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yml")
	require.NoError(t, writeYAML(path, "collections:\n  - name: products\n    table: shelf_items\n"))
	registry, err := collections.Load(path)
	require.NoError(t, err)

	store := newTestStore(t, registry)
	assert.True(t, store.DB.Migrator().HasTable("shelf_items"))
	assert.False(t, store.DB.Migrator().HasTable("skincare"))

	docs, err := NewDocumentStore(store)
	require.NoError(t, err)
	_, err = docs.InsertProduct(context.Background(), "u1", models.Product{Name: "Serum", Price: decimal.NewFromInt(20)}, time.Now())
	require.NoError(t, err)

	var count int64
	require.NoError(t, store.DB.Table("shelf_items").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewStore_UnsupportedDriver(t *testing.T) {
	_, err := NewStore(Config{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	cfg := Config{Path: path, LogLevel: logger.Silent}

	store, err := NewStore(cfg)
	require.NoError(t, err)
	docs, err := NewDocumentStore(store)
	require.NoError(t, err)
	_, err = docs.InsertProduct(context.Background(), "u1", models.Product{Name: "Toner", Price: decimal.RequireFromString("9.99")}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStore(cfg)
	require.NoError(t, err)
	defer store.Close()
	docs, err = NewDocumentStore(store)
	require.NoError(t, err)

	got, err := docs.ProductsByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Toner", got[0].Name)
}

// DocumentStoreSuite exercises the product and view collections.
type DocumentStoreSuite struct {
	suite.Suite
	store *Store
	docs  *DocumentStore
	ctx   context.Context
}

func (s *DocumentStoreSuite) SetupTest() {
	s.store = newTestStore(s.T(), nil)
	docs, err := NewDocumentStore(s.store)
	s.Require().NoError(err)
	s.docs = docs
	s.ctx = context.Background()
}

func TestDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreSuite))
}

func (s *DocumentStoreSuite) TestInsertAndFindProducts() {
	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	id1, err := s.docs.InsertProduct(s.ctx, "u1", models.Product{Name: "Cleanser", Price: decimal.RequireFromString("12.50")}, base)
	s.Require().NoError(err)
	id2, err := s.docs.InsertProduct(s.ctx, "u1", models.Product{Name: "Toner", Price: decimal.RequireFromString("9.99")}, base.Add(time.Second))
	s.Require().NoError(err)
	_, err = s.docs.InsertProduct(s.ctx, "u2", models.Product{Name: "Serum", Price: decimal.NewFromInt(30)}, base)
	s.Require().NoError(err)

	s.NotEmpty(id1)
	s.NotEqual(id1, id2)

	got, err := s.docs.ProductsByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)

	s.Equal(id1, got[0].ID)
	s.Equal("Cleanser", got[0].Name)
	s.True(decimal.RequireFromString("12.50").Equal(got[0].Price))
	s.Equal("u1", got[0].UserID)
	s.True(base.Equal(got[0].CreatedAt))

	s.Equal(id2, got[1].ID)
	s.True(decimal.RequireFromString("9.99").Equal(got[1].Price))
}

func (s *DocumentStoreSuite) TestDeleteProduct() {
	id, err := s.docs.InsertProduct(s.ctx, "u1", models.Product{Name: "Cleanser", Price: decimal.NewFromInt(5)}, time.Now())
	s.Require().NoError(err)

	s.Require().NoError(s.docs.DeleteProduct(s.ctx, id))
	got, err := s.docs.ProductsByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Empty(got)

	s.NoError(s.docs.DeleteProduct(s.ctx, id), "deleting a missing id is not an error")
}

func (s *DocumentStoreSuite) TestInsertRejectsInvalidRecords() {
	tests := []struct {
		name   string
		userID string
		p      models.Product
	}{
		{name: "no user", userID: "", p: models.Product{Name: "A", Price: decimal.NewFromInt(1)}},
		{name: "blank name", userID: "u1", p: models.Product{Name: "  ", Price: decimal.NewFromInt(1)}},
		{name: "zero price", userID: "u1", p: models.Product{Name: "A", Price: decimal.Zero}},
		{name: "negative price", userID: "u1", p: models.Product{Name: "A", Price: decimal.NewFromInt(-3)}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.docs.InsertProduct(s.ctx, tt.userID, tt.p, time.Now())
			s.ErrorIs(err, ErrInvalidRecord)
		})
	}

	_, err := s.docs.InsertView(s.ctx, models.ViewHistoryEntry{UserID: "u1"})
	s.ErrorIs(err, ErrInvalidRecord)
}

func (s *DocumentStoreSuite) TestViewsOrderedOldestFirst() {
	t1 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{t1.Add(2 * time.Hour), t1, t1.Add(time.Hour)} {
		_, err := s.docs.InsertView(s.ctx, models.ViewHistoryEntry{
			UserID:       "u1",
			ProductNames: []string{"C", "A", "B"}[i],
			Details:      "text",
			Timestamp:    at,
		})
		s.Require().NoError(err)
	}

	got, err := s.docs.ViewsByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("A", got[0].ProductNames)
	s.Equal("B", got[1].ProductNames)
	s.Equal("C", got[2].ProductNames)
	s.Equal("text", got[0].Details)
	s.NotEmpty(got[0].ID)

	other, err := s.docs.ViewsByUser(s.ctx, "u2")
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *DocumentStoreSuite) TestCollectionFilterWhitelist() {
	products, err := NewCollection[ProductRecord](s.store, collections.Products)
	s.Require().NoError(err)
	s.Equal("skincare", products.Table())
	s.Equal(collections.Products, products.Name())

	_, err = products.Insert(s.ctx, ProductRecord{UserID: "u1", ProductName: "Mask", Price: Price{Decimal: decimal.NewFromInt(7)}})
	s.Require().NoError(err)

	byName, err := products.FindBy(s.ctx, FieldProductName, "Mask")
	s.Require().NoError(err)
	s.Len(byName, 1)
	s.False(byName[0].Timestamp.IsZero(), "timestamp defaults on create")

	_, err = products.FindBy(s.ctx, "price", 7)
	s.ErrorIs(err, ErrUnknownField)

	_, err = products.FindBy(s.ctx, "user_id; DROP TABLE skincare", "u1")
	s.ErrorIs(err, ErrUnknownField)

	_, err = NewCollection[ViewRecord](s.store, "reviews")
	s.ErrorIs(err, ErrUnknownCollection)
}

func (s *DocumentStoreSuite) TestSessions() {
	sessions := NewSessionStore(s.store)

	created, err := sessions.CreateSession(s.ctx)
	s.Require().NoError(err)
	s.NotEmpty(created.ID)
	s.Equal(models.SessionStatusActive, created.Status)

	got, err := sessions.GetSession(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)

	later := created.LastSeenAt.Add(time.Hour)
	s.Require().NoError(sessions.TouchSession(s.ctx, created.ID, later))
	got, err = sessions.GetSession(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(later.Equal(got.LastSeenAt))

	s.Require().NoError(sessions.RevokeSession(s.ctx, created.ID))
	got, err = sessions.GetSession(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.SessionStatusRevoked, got.Status)

	_, err = sessions.GetSession(s.ctx, "missing")
	s.ErrorIs(err, ErrSessionNotFound)
	s.ErrorIs(sessions.TouchSession(s.ctx, "missing", later), ErrSessionNotFound)
}

func (s *DocumentStoreSuite) TestProductPriceRoundTripsExactly() {
	prices := []string{"19.999999999999999999", "12345678901234567890.12", "0.01", "12.50"}
	base := time.Now()
	for i, text := range prices {
		_, err := s.docs.InsertProduct(s.ctx, "u1", models.Product{
			Name:  "product " + text,
			Price: decimal.RequireFromString(text),
		}, base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(err)
	}

	got, err := s.docs.ProductsByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, len(prices))
	for i, text := range prices {
		s.Equal("product "+text, got[i].Name)
		s.True(decimal.RequireFromString(text).Equal(got[i].Price), "want %s, got %s", text, got[i].Price)
	}
}

func (s *DocumentStoreSuite) TestViewsWithEqualTimestampsKeepInsertionOrder() {
	at := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	names := []string{"first", "second", "third", "fourth"}
	for _, name := range names {
		_, err := s.docs.InsertView(s.ctx, models.ViewHistoryEntry{
			UserID:       "u1",
			ProductNames: name,
			Details:      "text",
			Timestamp:    at,
		})
		s.Require().NoError(err)
	}

	got, err := s.docs.ViewsByUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, len(names))
	for i, name := range names {
		s.Equal(name, got[i].ProductNames)
	}
}

func TestNewStore_ReopenWithRenamedTable(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	store, err := NewStore(Config{Path: dbPath, LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	yamlPath := filepath.Join(dir, "collections.yml")
	require.NoError(t, writeYAML(yamlPath, "collections:\n  - name: products\n    table: shelf_items\n"))
	registry, err := collections.Load(yamlPath)
	require.NoError(t, err)

	store, err = NewStore(Config{Path: dbPath, LogLevel: logger.Silent, Collections: registry})
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, store.DB.Migrator().HasTable("shelf_items"))

	docs, err := NewDocumentStore(store)
	require.NoError(t, err)
	_, err = docs.InsertProduct(context.Background(), "u1", models.Product{Name: "Serum", Price: decimal.NewFromInt(20)}, time.Now())
	require.NoError(t, err)

	got, err := docs.ProductsByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Serum", got[0].Name)
}
