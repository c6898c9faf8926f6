package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/models"
	"github.com/okhotin/storefront/internal/promo"
)

type PromoHandler struct {
	DB     *gorm.DB
	Promos *promo.Service
}

// ValidatePromo answers whether a code applies to the given subtotal and, if
// so, with what discount. Rejections come back as 422 with a reason.
func (h *PromoHandler) ValidatePromo(c echo.Context) error {
	var req struct {
		Code     string          `json:"code"`
		Subtotal decimal.Decimal `json:"subtotal"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code required")
	}

	pc, discount, err := h.Promos.Validate(c.Request().Context(), req.Code, req.Subtotal, time.Now())
	switch {
	case errors.Is(err, promo.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "promo code not found")
	case errors.Is(err, promo.ErrInactive),
		errors.Is(err, promo.ErrNotStarted),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrMinPurchase),
		errors.Is(err, promo.ErrExhausted):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"valid":  false,
			"reason": err.Error(),
		})
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to validate promo code")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"valid":          true,
		"code":           pc.Code,
		"discount_type":  pc.DiscountType,
		"discount_value": pc.DiscountValue,
		"discount":       discount,
	})
}

type promoRequest struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinPurchase   decimal.Decimal `json:"min_purchase"`
	MaxUses       *int            `json:"max_uses"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidUntil    *time.Time      `json:"valid_until"`
	IsActive      *bool           `json:"is_active"`
}

func (h *PromoHandler) ListPromos(c echo.Context) error {
	var codes []models.PromoCode
	err := h.DB.WithContext(c.Request().Context()).
		Order("created_at DESC").
		Find(&codes).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list promo codes")
	}
	return c.JSON(http.StatusOK, echo.Map{"promo_codes": codes})
}

func (h *PromoHandler) CreatePromo(c echo.Context) error {
	var req promoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code required")
	}
	if req.DiscountType != promo.DiscountPercentage && req.DiscountType != promo.DiscountFixed {
		return echo.NewHTTPError(http.StatusBadRequest, "discount_type must be percentage or fixed")
	}

	pc := models.PromoCode{
		Code:          strings.ToUpper(strings.TrimSpace(req.Code)),
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinPurchase:   req.MinPurchase,
		MaxUses:       req.MaxUses,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		IsActive:      true,
	}
	if req.IsActive != nil {
		pc.IsActive = *req.IsActive
	}
	if pc.ValidFrom.IsZero() {
		pc.ValidFrom = time.Now()
	}

	if err := h.DB.WithContext(c.Request().Context()).Create(&pc).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create promo code")
	}
	return c.JSON(http.StatusCreated, pc)
}

func (h *PromoHandler) UpdatePromo(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid promo id")
	}

	ctx := c.Request().Context()
	var pc models.PromoCode
	if err := h.DB.WithContext(ctx).First(&pc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "promo code not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load promo code")
	}

	var req promoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Description != "" {
		pc.Description = req.Description
	}
	if !req.DiscountValue.IsZero() {
		pc.DiscountValue = req.DiscountValue
	}
	pc.MinPurchase = req.MinPurchase
	pc.MaxUses = req.MaxUses
	if !req.ValidFrom.IsZero() {
		pc.ValidFrom = req.ValidFrom
	}
	pc.ValidUntil = req.ValidUntil
	if req.IsActive != nil {
		pc.IsActive = *req.IsActive
	}

	if err := h.DB.WithContext(ctx).Save(&pc).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update promo code")
	}
	return c.JSON(http.StatusOK, pc)
}

func (h *PromoHandler) DeletePromo(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid promo id")
	}

	res := h.DB.WithContext(c.Request().Context()).Delete(&models.PromoCode{}, "id = ?", id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete promo code")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "promo code not found")
	}
	return c.NoContent(http.StatusNoContent)
}
