package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/models"
)

// ItemDetails is a cart line enriched with the catalog data the cart page
// renders from.
type ItemDetails struct {
	models.CartItem
	Product models.Product        `json:"product"`
	Variant models.ProductVariant `json:"variant"`
	Images  []models.ProductImage `json:"images"`
}

type GormRepo struct {
	DB *gorm.DB
}

// GetOrCreateCart returns the user's cart, creating it on first access.
// Creation runs inside a transaction and carts.user_id is uniquely indexed,
// so two concurrent first-time calls settle on one row: the loser of the
// insert race re-reads the winner's cart.
func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("user_id = ?", userID).
			Attrs(models.Cart{UserID: userID}).
			FirstOrCreate(&cart).Error
	})
	if err != nil {
		var existing models.Cart
		if ferr := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetCartItems returns the cart's lines joined with product, variant and
// image data, in insertion order.
func (r *GormRepo) GetCartItems(ctx context.Context, cartID uuid.UUID) ([]ItemDetails, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []ItemDetails{}, nil
	}

	productIDs := make([]uuid.UUID, 0, len(items))
	variantIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
		variantIDs = append(variantIDs, it.VariantID)
	}

	var products []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, err
	}
	productByID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	var variants []models.ProductVariant
	if err := r.DB.WithContext(ctx).Where("id IN ?", variantIDs).Find(&variants).Error; err != nil {
		return nil, err
	}
	variantByID := make(map[uuid.UUID]models.ProductVariant, len(variants))
	for _, v := range variants {
		variantByID[v.ID] = v
	}

	var images []models.ProductImage
	if err := r.DB.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("display_order ASC").
		Find(&images).Error; err != nil {
		return nil, err
	}
	imagesByProduct := make(map[uuid.UUID][]models.ProductImage)
	for _, img := range images {
		imagesByProduct[img.ProductID] = append(imagesByProduct[img.ProductID], img)
	}

	details := make([]ItemDetails, 0, len(items))
	for _, it := range items {
		details = append(details, ItemDetails{
			CartItem: it,
			Product:  productByID[it.ProductID],
			Variant:  variantByID[it.VariantID],
			Images:   imagesByProduct[it.ProductID],
		})
	}
	return details, nil
}

// AddItem increments the existing (cart, variant) row or inserts a new one
// with the given price snapshot. The increment happens in SQL so concurrent
// adds against the same row do not lose updates.
func (r *GormRepo) AddItem(ctx context.Context, cartID, productID, variantID uuid.UUID, quantity uint, price decimal.Decimal) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND variant_id = ?", cartID, variantID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("cart_id = ? AND variant_id = ?", cartID, variantID).First(&item).Error
		}

		item = models.CartItem{
			CartID:     cartID,
			ProductID:  productID,
			VariantID:  variantID,
			Quantity:   quantity,
			PriceAtAdd: price,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantity sets an absolute quantity on one line.
func (r *GormRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", itemID).First(&item).Error; err != nil {
			return err
		}
		item.Quantity = quantity
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearCart deletes the cart's lines; the cart row itself is retained.
func (r *GormRepo) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// IsNotFound reports whether err is the store's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
