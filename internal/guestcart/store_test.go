package guestcart

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okhotin/storefront/internal/kvstore"
)

type failingKV struct{ err error }

func (f *failingKV) Get(string) (string, bool, error) { return "", false, f.err }
func (f *failingKV) Set(string, string) error         { return f.err }
func (f *failingKV) Delete(string) error              { return f.err }

func newTestStore() *Store {
	return NewStore(kvstore.NewMemory(), slog.Default())
}

func TestAddMergesSameVariant(t *testing.T) {
	s := newTestStore()
	productID := uuid.New()
	variantID := uuid.New()

	s.Add("g1", Item{ProductID: productID, VariantID: variantID, Quantity: 2, Price: decimal.NewFromInt(10)})
	items := s.Add("g1", Item{ProductID: productID, VariantID: variantID, Quantity: 3, Price: decimal.NewFromInt(10)})

	require.Len(t, items, 1)
	assert.Equal(t, uint(5), items[0].Quantity)

	// a different variant of the same product is its own line
	items = s.Add("g1", Item{ProductID: productID, VariantID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(12)})
	require.Len(t, items, 2)
}

func TestAddAssignsLocalID(t *testing.T) {
	s := newTestStore()

	items := s.Add("g1", Item{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(5)})
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
}

func TestItemsSurvivesReload(t *testing.T) {
	kv := kvstore.NewMemory()
	first := NewStore(kv, slog.Default())
	first.Add("g1", Item{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 4, Price: decimal.NewFromInt(3)})

	second := NewStore(kv, slog.Default())
	items := second.Items("g1")
	require.Len(t, items, 1)
	assert.Equal(t, uint(4), items[0].Quantity)
}

func TestItemsDegradesToEmpty(t *testing.T) {
	s := newTestStore()

	// absent key
	assert.Empty(t, s.Items("nobody"))

	// corrupted payload
	require.NoError(t, s.KV.Set("guest_cart_v1:g1", "{not json"))
	assert.Empty(t, s.Items("g1"))

	// failing backend
	broken := NewStore(&failingKV{err: errors.New("quota exceeded")}, slog.Default())
	assert.Empty(t, broken.Items("g1"))
}

func TestWriteAndClearSwallowFailures(t *testing.T) {
	broken := NewStore(&failingKV{err: errors.New("storage disabled")}, slog.Default())

	// must not panic or surface the error
	broken.Replace("g1", []Item{{ID: "a", Quantity: 1}})
	broken.Clear("g1")
}

func TestSetQuantityAndRemove(t *testing.T) {
	s := newTestStore()
	items := s.Add("g1", Item{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 2, Price: decimal.NewFromInt(10)})
	itemID := items[0].ID

	items = s.SetQuantity("g1", itemID, 7)
	require.Len(t, items, 1)
	assert.Equal(t, uint(7), items[0].Quantity)

	// zero quantity removes the line
	items = s.SetQuantity("g1", itemID, 0)
	assert.Empty(t, items)

	items = s.Add("g1", Item{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(10)})
	items = s.Remove("g1", items[0].ID)
	assert.Empty(t, items)
	assert.Empty(t, s.Items("g1"))
}

func TestDerivedTotals(t *testing.T) {
	items := []Item{
		{Quantity: 2, Price: decimal.RequireFromString("10.00")},
		{Quantity: 1, Price: decimal.RequireFromString("25.00")},
	}

	assert.Equal(t, uint(3), ItemCount(items))
	assert.True(t, Subtotal(items).Equal(decimal.RequireFromString("45.00")),
		"subtotal = %s", Subtotal(items))
}
