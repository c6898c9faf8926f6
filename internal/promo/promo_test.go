package promo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PromoCode{}))
	return db
}

func seedCode(t *testing.T, db *gorm.DB, pc models.PromoCode) models.PromoCode {
	t.Helper()
	require.NoError(t, db.Create(&pc).Error)
	return pc
}

func TestValidatePercentage(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	now := time.Now()

	seedCode(t, db, models.PromoCode{
		Code:          "WELCOME10",
		DiscountType:  DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		ValidFrom:     now.Add(-time.Hour),
		IsActive:      true,
	})

	pc, discount, err := svc.Validate(context.Background(), " welcome10 ", decimal.RequireFromString("80.00"), now)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", pc.Code)
	assert.True(t, discount.Equal(decimal.RequireFromString("8.00")), "discount = %s", discount)
}

func TestValidateFixedCappedAtSubtotal(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	now := time.Now()

	seedCode(t, db, models.PromoCode{
		Code:          "TAKE50",
		DiscountType:  DiscountFixed,
		DiscountValue: decimal.NewFromInt(50),
		ValidFrom:     now.Add(-time.Hour),
		IsActive:      true,
	})

	_, discount, err := svc.Validate(context.Background(), "TAKE50", decimal.RequireFromString("30.00"), now)
	require.NoError(t, err)
	assert.True(t, discount.Equal(decimal.RequireFromString("30.00")), "discount = %s", discount)
}

func TestValidateRejections(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	now := time.Now()
	until := now.Add(-time.Minute)
	maxUses := 5

	seedCode(t, db, models.PromoCode{Code: "OFF", DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(5), ValidFrom: now.Add(-time.Hour), IsActive: false})
	seedCode(t, db, models.PromoCode{Code: "SOON", DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(5), ValidFrom: now.Add(time.Hour), IsActive: true})
	seedCode(t, db, models.PromoCode{Code: "GONE", DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(5), ValidFrom: now.Add(-2 * time.Hour), ValidUntil: &until, IsActive: true})
	seedCode(t, db, models.PromoCode{Code: "BIG", DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(5), MinPurchase: decimal.NewFromInt(100), ValidFrom: now.Add(-time.Hour), IsActive: true})
	seedCode(t, db, models.PromoCode{Code: "USED", DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(5), MaxUses: &maxUses, UsedCount: 5, ValidFrom: now.Add(-time.Hour), IsActive: true})

	subtotal := decimal.RequireFromString("50.00")

	cases := []struct {
		code string
		want error
	}{
		{"NOPE", ErrNotFound},
		{"OFF", ErrInactive},
		{"SOON", ErrNotStarted},
		{"GONE", ErrExpired},
		{"BIG", ErrMinPurchase},
		{"USED", ErrExhausted},
	}
	for _, tc := range cases {
		_, _, err := svc.Validate(context.Background(), tc.code, subtotal, now)
		assert.ErrorIs(t, err, tc.want, "code %s", tc.code)
	}
}

func TestMarkUsed(t *testing.T) {
	db := newTestDB(t)
	pc := seedCode(t, db, models.PromoCode{
		Code:          "COUNTME",
		DiscountType:  DiscountFixed,
		DiscountValue: decimal.NewFromInt(5),
		ValidFrom:     time.Now().Add(-time.Hour),
		IsActive:      true,
	})

	require.NoError(t, MarkUsed(db, pc.ID))
	require.NoError(t, MarkUsed(db, pc.ID))

	var reloaded models.PromoCode
	require.NoError(t, db.First(&reloaded, "id = ?", pc.ID).Error)
	assert.Equal(t, 2, reloaded.UsedCount)
}
