package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Role         string    `gorm:"not null;default:customer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Role      string    `gorm:"not null"        json:"role"`
	ExpiresAt int64     `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

type Category struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"not null"             json:"name"`
	Slug         string     `gorm:"uniqueIndex;not null" json:"slug"`
	ParentID     *uuid.UUID `gorm:"type:uuid"            json:"parent_id"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"image_url"`
	DisplayOrder int        `gorm:"default:0"            json:"display_order"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"      json:"id"`
	Name        string           `gorm:"not null"                  json:"name"`
	Slug        string           `gorm:"uniqueIndex;not null"      json:"slug"`
	Description string           `json:"description"`
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index"           json:"category_id"`
	BasePrice   decimal.Decimal  `gorm:"type:decimal(16,2);not null" json:"base_price"`
	IsFeatured  bool             `gorm:"default:false"             json:"is_featured"`
	IsActive    bool             `json:"is_active"`
	Images      []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ProductImage struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	ProductID    uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	ImageURL     string    `gorm:"not null"                 json:"image_url"`
	DisplayOrder int       `gorm:"default:0"                json:"display_order"`
	AltText      string    `json:"alt_text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type ProductVariant struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"     json:"id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	SKU             string          `gorm:"uniqueIndex;not null"     json:"sku"`
	Size            string          `json:"size"`
	Color           string          `json:"color"`
	PriceAdjustment decimal.Decimal `gorm:"type:decimal(16,2);default:0" json:"price_adjustment"`
	StockQuantity   int             `gorm:"default:0"                json:"stock_quantity"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type Address struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Type         string    `json:"type"`
	FullName     string    `gorm:"not null"                 json:"full_name"`
	AddressLine1 string    `gorm:"not null"                 json:"address_line1"`
	AddressLine2 string    `json:"address_line2"`
	City         string    `gorm:"not null"                 json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `gorm:"not null"                 json:"postal_code"`
	Country      string    `gorm:"default:US"               json:"country"`
	Phone        string    `json:"phone"`
	IsDefault    bool      `gorm:"default:false"            json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Cart is the authoritative per-user cart. The unique index on UserID keeps
// concurrent first-time fetch-or-create calls from producing two carts.
type Cart struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"           json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem keeps at most one row per (cart_id, variant_id); adding the same
// variant again increments Quantity instead of inserting.
type CartItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"                            json:"id"`
	CartID     uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_variant;not null" json:"cart_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null"                              json:"product_id"`
	VariantID  uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_variant;not null" json:"variant_id"`
	Quantity   uint            `gorm:"default:1;check:quantity>0"                      json:"quantity"`
	PriceAtAdd decimal.Decimal `gorm:"type:decimal(16,2);not null"                     json:"price_at_add"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type PromoCode struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	Code          string          `gorm:"uniqueIndex;not null"         json:"code"`
	Description   string          `json:"description"`
	DiscountType  string          `gorm:"not null"                     json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(16,2);not null"  json:"discount_value"`
	MinPurchase   decimal.Decimal `gorm:"type:decimal(16,2);default:0" json:"min_purchase"`
	MaxUses       *int            `json:"max_uses"`
	UsedCount     int             `gorm:"default:0"                    json:"used_count"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidUntil    *time.Time      `json:"valid_until"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (p *PromoCode) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	OrderNumber       string          `gorm:"uniqueIndex;not null"         json:"order_number"`
	UserID            uuid.UUID       `gorm:"type:uuid;index;not null"     json:"user_id"`
	Status            string          `gorm:"not null;default:pending"     json:"status"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(16,2);not null"  json:"subtotal"`
	Discount          decimal.Decimal `gorm:"type:decimal(16,2);default:0" json:"discount"`
	Total             decimal.Decimal `gorm:"type:decimal(16,2);not null"  json:"total"`
	PromoCode         string          `json:"promo_code"`
	ShippingAddressID *uuid.UUID      `gorm:"type:uuid"                    json:"shipping_address_id"`
	PaymentStatus     string          `gorm:"not null;default:pending"     json:"payment_status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid"                   json:"product_id"`
	VariantID uuid.UUID       `gorm:"type:uuid"                   json:"variant_id"`
	Quantity  uint            `gorm:"not null"                    json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"subtotal"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
