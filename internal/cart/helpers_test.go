package cart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.ProductImage{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, basePrice, adjustment string) (models.Product, models.ProductVariant) {
	t.Helper()

	product := models.Product{
		Name:      "seed product",
		Slug:      "seed-product-" + uuid.NewString(),
		BasePrice: decimal.RequireFromString(basePrice),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&product).Error)

	variant := models.ProductVariant{
		ProductID:       product.ID,
		SKU:             "SKU-" + uuid.NewString(),
		PriceAdjustment: decimal.RequireFromString(adjustment),
		StockQuantity:   100,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&variant).Error)

	return product, variant
}

// recordingAccessor counts every remote call and delegates to an optional
// inner Accessor.
type recordingAccessor struct {
	inner Accessor
	calls int
}

func (r *recordingAccessor) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	r.calls++
	return r.inner.GetOrCreateCart(ctx, userID)
}

func (r *recordingAccessor) GetCartItems(ctx context.Context, cartID uuid.UUID) ([]ItemDetails, error) {
	r.calls++
	return r.inner.GetCartItems(ctx, cartID)
}

func (r *recordingAccessor) AddItem(ctx context.Context, cartID, productID, variantID uuid.UUID, quantity uint, price decimal.Decimal) (*models.CartItem, error) {
	r.calls++
	return r.inner.AddItem(ctx, cartID, productID, variantID, quantity, price)
}

func (r *recordingAccessor) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity uint) (*models.CartItem, error) {
	r.calls++
	return r.inner.UpdateItemQuantity(ctx, itemID, quantity)
}

func (r *recordingAccessor) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	r.calls++
	return r.inner.RemoveItem(ctx, itemID)
}

func (r *recordingAccessor) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	r.calls++
	return r.inner.ClearCart(ctx, cartID)
}
