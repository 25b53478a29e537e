package shelf

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/thebtf/skinshelf/internal/apperr"
	"github.com/thebtf/skinshelf/pkg/models"
)

// memStore is an in-memory Store that counts calls and can be told to fail.
type memStore struct {
	docs       []models.ProductDocument
	nextID     int
	inserts    int
	deletes    int
	failInsert error
	failDelete error
	failList   error
}

func (s *memStore) InsertProduct(_ context.Context, userID string, p models.Product, at time.Time) (string, error) {
	s.inserts++
	if s.failInsert != nil {
		return "", s.failInsert
	}
	s.nextID++
	id := fmt.Sprintf("doc-%d", s.nextID)
	s.docs = append(s.docs, models.ProductDocument{ID: id, UserID: userID, CreatedAt: at, Product: p})
	return id, nil
}

func (s *memStore) ProductsByUser(_ context.Context, userID string) ([]models.ProductDocument, error) {
	if s.failList != nil {
		return nil, s.failList
	}
	var out []models.ProductDocument
	for _, d := range s.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) DeleteProduct(_ context.Context, id string) error {
	s.deletes++
	if s.failDelete != nil {
		return s.failDelete
	}
	for i, d := range s.docs {
		if d.ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ManagerSuite is a test suite for Manager operations.
type ManagerSuite struct {
	suite.Suite
	store   *memStore
	manager *Manager
	ctx     context.Context
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = &memStore{}
	s.manager = NewManager(s.store)
	s.Require().NoError(s.manager.Load(s.ctx, "user-1"))
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) TestAddThenLoadRoundTrip() {
	_, err := s.manager.Add(s.ctx, "Cleanser", "12.50")
	s.Require().NoError(err)

	reloaded := NewManager(s.store)
	s.Require().NoError(reloaded.Load(s.ctx, "user-1"))

	products := reloaded.Products()
	s.Require().Len(products, 1)
	s.Equal("Cleanser", products[0].Name)
	s.True(dec("12.50").Equal(products[0].Price))

	id, ok := reloaded.DocumentID("Cleanser")
	s.True(ok)
	s.Equal("doc-1", id)
}

func (s *ManagerSuite) TestAddTrimsName() {
	p, err := s.manager.Add(s.ctx, "  Serum  ", " 30 ")
	s.Require().NoError(err)
	s.Equal("Serum", p.Name)
	s.Equal([]string{"Serum"}, s.manager.Names())
}

func (s *ManagerSuite) TestAddValidation() {
	tests := []struct {
		name      string
		product   string
		priceText string
	}{
		{name: "empty name", product: "", priceText: "10"},
		{name: "blank name", product: "   ", priceText: "10"},
		{name: "zero price", product: "Toner", priceText: "0"},
		{name: "negative price", product: "Toner", priceText: "-1.5"},
		{name: "not a number", product: "Toner", priceText: "cheap"},
		{name: "empty price", product: "Toner", priceText: ""},
		{name: "infinity", product: "Toner", priceText: "Inf"},
		{name: "nan", product: "Toner", priceText: "NaN"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.manager.Add(s.ctx, tt.product, tt.priceText)
			s.Require().Error(err)
			s.True(errors.Is(err, apperr.ErrValidation))
			s.Equal(apperr.MsgValidation, apperr.UserMessage(err))
		})
	}
	s.Equal(0, s.store.inserts, "validation failures must not reach the store")
	s.Empty(s.manager.Products())
}

func (s *ManagerSuite) TestAddDuplicateLeavesStateUnchanged() {
	_, err := s.manager.Add(s.ctx, "Cleanser", "12.50")
	s.Require().NoError(err)
	before := s.manager.Products()
	beforeID, _ := s.manager.DocumentID("Cleanser")

	_, err = s.manager.Add(s.ctx, "Cleanser", "5.00")
	s.Require().Error(err)
	s.True(errors.Is(err, apperr.ErrDuplicate))

	s.Equal(1, s.store.inserts)
	s.Equal(before, s.manager.Products())
	afterID, _ := s.manager.DocumentID("Cleanser")
	s.Equal(beforeID, afterID)
}

func (s *ManagerSuite) TestAddDuplicateIsCaseSensitive() {
	_, err := s.manager.Add(s.ctx, "Cleanser", "12.50")
	s.Require().NoError(err)
	_, err = s.manager.Add(s.ctx, "cleanser", "12.50")
	s.NoError(err)
	s.Equal([]string{"Cleanser", "cleanser"}, s.manager.Names())
}

func (s *ManagerSuite) TestAddPersistenceFailure() {
	s.store.failInsert = errors.New("store unavailable")

	_, err := s.manager.Add(s.ctx, "Cleanser", "12.50")
	s.Require().Error(err)
	s.True(errors.Is(err, apperr.ErrPersistence))
	s.Equal(apperr.MsgAddFailed, apperr.UserMessage(err))
	s.Empty(s.manager.Products())
	_, ok := s.manager.DocumentID("Cleanser")
	s.False(ok)
}

func (s *ManagerSuite) TestAddWithoutSession() {
	m := NewManager(s.store)
	_, err := m.Add(s.ctx, "Cleanser", "12.50")
	s.Require().Error(err)
	s.True(errors.Is(err, apperr.ErrAuth))
	s.Equal(0, s.store.inserts)
}

func (s *ManagerSuite) TestDeleteThenLoad() {
	_, err := s.manager.Add(s.ctx, "Cleanser", "12.50")
	s.Require().NoError(err)
	_, err = s.manager.Add(s.ctx, "Toner", "9.99")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.Delete(s.ctx, "Toner"))
	s.Equal([]string{"Cleanser"}, s.manager.Names())
	_, ok := s.manager.DocumentID("Toner")
	s.False(ok)

	reloaded := NewManager(s.store)
	s.Require().NoError(reloaded.Load(s.ctx, "user-1"))
	s.Equal([]string{"Cleanser"}, reloaded.Names())
}

func (s *ManagerSuite) TestDeleteUnknownName() {
	err := s.manager.Delete(s.ctx, "Ghost")
	s.Require().Error(err)
	s.True(errors.Is(err, apperr.ErrNotFound))
	s.Equal(0, s.store.deletes, "unknown names must not reach the store")
}

func (s *ManagerSuite) TestDeletePersistenceFailure() {
	_, err := s.manager.Add(s.ctx, "Cleanser", "12.50")
	s.Require().NoError(err)
	s.store.failDelete = errors.New("store unavailable")

	err = s.manager.Delete(s.ctx, "Cleanser")
	s.Require().Error(err)
	s.True(errors.Is(err, apperr.ErrPersistence))
	s.Equal(apperr.MsgDeleteFailed, apperr.UserMessage(err))
	s.Equal([]string{"Cleanser"}, s.manager.Names())
	_, ok := s.manager.DocumentID("Cleanser")
	s.True(ok)
}

func (s *ManagerSuite) TestLoadFailureLeavesListEmpty() {
	_, err := s.manager.Add(s.ctx, "Cleanser", "12.50")
	s.Require().NoError(err)
	s.store.failList = errors.New("network down")

	err = s.manager.Load(s.ctx, "user-1")
	s.Require().Error(err)
	s.True(errors.Is(err, apperr.ErrLoad))
	s.Equal(apperr.MsgLoadProducts, apperr.UserMessage(err))
	s.Empty(s.manager.Products())
}

func (s *ManagerSuite) TestLoadIsPartitionedBySession() {
	_, err := s.manager.Add(s.ctx, "Cleanser", "12.50")
	s.Require().NoError(err)

	other := NewManager(s.store)
	s.Require().NoError(other.Load(s.ctx, "user-2"))
	s.Empty(other.Products())
}

func (s *ManagerSuite) TestLoadKeepsFirstOfDuplicateDocuments() {
	s.store.docs = []models.ProductDocument{
		{ID: "a", UserID: "user-1", Product: models.Product{Name: "Toner", Price: dec("9.99")}},
		{ID: "b", UserID: "user-1", Product: models.Product{Name: "Toner", Price: dec("4.00")}},
	}

	s.Require().NoError(s.manager.Load(s.ctx, "user-1"))
	products := s.manager.Products()
	s.Require().Len(products, 1)
	s.True(dec("9.99").Equal(products[0].Price))
	id, _ := s.manager.DocumentID("Toner")
	s.Equal("a", id)
}

func (s *ManagerSuite) TestProductsReturnsCopy() {
	_, err := s.manager.Add(s.ctx, "Cleanser", "12.50")
	s.Require().NoError(err)

	products := s.manager.Products()
	products[0].Name = "Mutated"
	s.Equal([]string{"Cleanser"}, s.manager.Names())
}

// TestScenario walks the add, duplicate and delete sequence end to end.
func TestScenario(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&memStore{})
	require.NoError(t, m.Load(ctx, "visitor"))

	_, err := m.Add(ctx, "Cleanser", "12.50")
	require.NoError(t, err)
	_, err = m.Add(ctx, "Toner", "9.99")
	require.NoError(t, err)

	expected := []models.Product{
		{Name: "Cleanser", Price: dec("12.50")},
		{Name: "Toner", Price: dec("9.99")},
	}
	assertProducts(t, expected, m.Products())

	_, err = m.Add(ctx, "Cleanser", "5.00")
	assert.True(t, errors.Is(err, apperr.ErrDuplicate))
	assertProducts(t, expected, m.Products())

	require.NoError(t, m.Delete(ctx, "Toner"))
	assertProducts(t, expected[:1], m.Products())
}

func assertProducts(t *testing.T, expected, actual []models.Product) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i].Name, actual[i].Name)
		assert.True(t, expected[i].Price.Equal(actual[i].Price), "price of %s", expected[i].Name)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "12.50", want: "12.5"},
		{input: " 9.99 ", want: "9.99"},
		{input: "1e2", want: "100"},
		{input: "0.01", want: "0.01"},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
