package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/models"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

var (
	ErrNotFound    = errors.New("promo code not found")
	ErrInactive    = errors.New("promo code is not active")
	ErrNotStarted  = errors.New("promo code is not valid yet")
	ErrExpired     = errors.New("promo code has expired")
	ErrMinPurchase = errors.New("order subtotal below promo code minimum")
	ErrExhausted   = errors.New("promo code usage limit reached")
)

type Service struct {
	DB *gorm.DB
}

// Validate checks a code against a subtotal and returns the code row plus
// the discount it grants. Fixed discounts are capped at the subtotal.
func (s *Service) Validate(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time) (*models.PromoCode, decimal.Decimal, error) {
	var pc models.PromoCode
	err := s.DB.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&pc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, decimal.Zero, ErrNotFound
		}
		return nil, decimal.Zero, err
	}

	if !pc.IsActive {
		return nil, decimal.Zero, ErrInactive
	}
	if now.Before(pc.ValidFrom) {
		return nil, decimal.Zero, ErrNotStarted
	}
	if pc.ValidUntil != nil && now.After(*pc.ValidUntil) {
		return nil, decimal.Zero, ErrExpired
	}
	if subtotal.LessThan(pc.MinPurchase) {
		return nil, decimal.Zero, ErrMinPurchase
	}
	if pc.MaxUses != nil && pc.UsedCount >= *pc.MaxUses {
		return nil, decimal.Zero, ErrExhausted
	}

	return &pc, Discount(&pc, subtotal), nil
}

// Discount computes the amount a code takes off the given subtotal.
func Discount(pc *models.PromoCode, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch pc.DiscountType {
	case DiscountPercentage:
		d = subtotal.Mul(pc.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
	case DiscountFixed:
		d = pc.DiscountValue
	default:
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}

// MarkUsed bumps used_count inside the caller's transaction.
func MarkUsed(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Model(&models.PromoCode{}).
		Where("id = ?", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("promo mark used: %w", res.Error)
	}
	return nil
}
