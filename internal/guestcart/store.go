package guestcart

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okhotin/storefront/internal/kvstore"
)

const keyPrefix = "guest_cart_v1:"

// Item is one guest cart line. Price is the unit price snapshot taken when
// the line was added; the display fields let the cart render without a
// catalog round-trip.
type Item struct {
	ID           string          `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	VariantID    uuid.UUID       `json:"variant_id"`
	Quantity     uint            `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"product_name,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	VariantLabel string          `json:"variant_label,omitempty"`
}

// Store holds pre-authentication carts, one serialized list per guest ID.
// Read and write failures never surface to the caller: the store logs and
// degrades to an empty cart so a broken persistence medium cannot block
// shopping.
type Store struct {
	KV  kvstore.Store
	Log *slog.Logger
}

func NewStore(kv kvstore.Store, log *slog.Logger) *Store {
	return &Store{KV: kv, Log: log}
}

func key(guestID string) string {
	return keyPrefix + guestID
}

// Items returns the persisted cart, or an empty list when the key is absent,
// the payload is corrupted or the backend fails.
func (s *Store) Items(guestID string) []Item {
	raw, ok, err := s.KV.Get(key(guestID))
	if err != nil {
		s.Log.Error("guest cart read failed", "guest_id", guestID, "error", err)
		return []Item{}
	}
	if !ok || raw == "" {
		return []Item{}
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.Log.Error("guest cart payload corrupted", "guest_id", guestID, "error", err)
		return []Item{}
	}
	return items
}

// Replace overwrites the persisted cart. Failures are swallowed and logged.
func (s *Store) Replace(guestID string, items []Item) {
	data, err := json.Marshal(items)
	if err != nil {
		s.Log.Error("guest cart encode failed", "guest_id", guestID, "error", err)
		return
	}
	if err := s.KV.Set(key(guestID), string(data)); err != nil {
		s.Log.Error("guest cart write failed", "guest_id", guestID, "error", err)
	}
}

// Clear removes the persisted cart. Failures are swallowed and logged.
func (s *Store) Clear(guestID string) {
	if err := s.KV.Delete(key(guestID)); err != nil {
		s.Log.Error("guest cart clear failed", "guest_id", guestID, "error", err)
	}
}

// Add merges a line into the cart: an existing (product, variant) entry has
// its quantity incremented, everything else appends a new line with a fresh
// local ID.
func (s *Store) Add(guestID string, item Item) []Item {
	if item.Quantity == 0 {
		item.Quantity = 1
	}

	items := s.Items(guestID)
	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID && items[i].VariantID == item.VariantID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		items = append(items, item)
	}

	s.Replace(guestID, items)
	return items
}

// SetQuantity updates one line in place; unknown IDs are a no-op.
func (s *Store) SetQuantity(guestID, itemID string, quantity uint) []Item {
	items := s.Items(guestID)
	for i := range items {
		if items[i].ID == itemID {
			if quantity == 0 {
				return s.Remove(guestID, itemID)
			}
			items[i].Quantity = quantity
			break
		}
	}
	s.Replace(guestID, items)
	return items
}

// Remove drops one line; unknown IDs are a no-op.
func (s *Store) Remove(guestID, itemID string) []Item {
	items := s.Items(guestID)
	next := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			next = append(next, it)
		}
	}
	s.Replace(guestID, next)
	return next
}

// ItemCount is the total quantity across lines.
func ItemCount(items []Item) uint {
	var n uint
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Subtotal is sum(quantity * snapshot price).
func Subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
