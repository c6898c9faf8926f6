package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/models"
)

// Accessor is the server-side cart boundary. The concrete implementation is
// *GormRepo; tests substitute fakes to observe or fail remote calls.
type Accessor interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetCartItems(ctx context.Context, cartID uuid.UUID) ([]ItemDetails, error)
	AddItem(ctx context.Context, cartID, productID, variantID uuid.UUID, quantity uint, price decimal.Decimal) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity uint) (*models.CartItem, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

// MergeTarget is the slice of the cart boundary a reconciliation needs.
// Both *GormRepo and *Service satisfy it; wiring the Reconciler through
// *Service keeps the service-level validation in the merge path.
type MergeTarget interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetCartItems(ctx context.Context, cartID uuid.UUID) ([]ItemDetails, error)
	AddItem(ctx context.Context, cartID, productID, variantID uuid.UUID, quantity uint, price decimal.Decimal) (*models.CartItem, error)
}

type Service struct {
	Repo Accessor
}

func (s *Service) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id must not be nil: %w", ErrValidation)
	}
	return s.Repo.GetOrCreateCart(ctx, userID)
}

func (s *Service) GetCartItems(ctx context.Context, cartID uuid.UUID) ([]ItemDetails, error) {
	return s.Repo.GetCartItems(ctx, cartID)
}

func (s *Service) AddItem(ctx context.Context, cartID, productID, variantID uuid.UUID, quantity uint, price decimal.Decimal) (*models.CartItem, error) {
	if productID == uuid.Nil || variantID == uuid.Nil {
		return nil, fmt.Errorf("product and variant ids must not be nil: %w", ErrValidation)
	}
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	return s.Repo.AddItem(ctx, cartID, productID, variantID, quantity, price)
}

// UpdateItemQuantity takes a signed quantity so non-positive requests can be
// rejected here, before any store call is made.
func (s *Service) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	item, err := s.Repo.UpdateItemQuantity(ctx, itemID, uint(quantity))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}
	return item, err
}

func (s *Service) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	err := s.Repo.RemoveItem(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}
	return err
}

func (s *Service) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	return s.Repo.ClearCart(ctx, cartID)
}

// ItemCount is the total quantity across server cart lines.
func ItemCount(items []ItemDetails) uint {
	var n uint
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Subtotal is sum(quantity * (base price + variant price adjustment)),
// recomputed on every read.
func Subtotal(items []ItemDetails) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		unit := it.Product.BasePrice.Add(it.Variant.PriceAdjustment)
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
