package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/cart"
	"github.com/okhotin/storefront/internal/logging"
	"github.com/okhotin/storefront/internal/models"
	"github.com/okhotin/storefront/internal/mykafka"
	"github.com/okhotin/storefront/internal/promo"
	"github.com/okhotin/storefront/internal/service/token"
)

type CheckoutHandler struct {
	DB     *gorm.DB
	Carts  *cart.Service
	Promos *promo.Service
	Events mykafka.Publisher
}

func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), uuid.NewString()[:8])
}

// Checkout turns the authenticated user's cart into a pending order. Items,
// totals and promo usage are written in one transaction; the cart is cleared
// only when the order commits.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req struct {
		PromoCode         string     `json:"promo_code"`
		ShippingAddressID *uuid.UUID `json:"shipping_address_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	userCart, err := h.Carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart")
	}
	items, err := h.Carts.GetCartItems(ctx, userCart.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart items")
	}
	if len(items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	subtotal := cart.Subtotal(items)
	discount := decimal.Zero
	var appliedPromo *models.PromoCode
	if req.PromoCode != "" {
		pc, d, err := h.Promos.Validate(ctx, req.PromoCode, subtotal, time.Now())
		switch {
		case errors.Is(err, promo.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "promo code not found")
		case isPromoRejection(err):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		case err != nil:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to validate promo code")
		}
		appliedPromo, discount = pc, d
	}

	order := models.Order{
		OrderNumber:       newOrderNumber(time.Now()),
		UserID:            userID,
		Status:            "pending",
		Subtotal:          subtotal,
		Discount:          discount,
		Total:             subtotal.Sub(discount),
		ShippingAddressID: req.ShippingAddressID,
		PaymentStatus:     "pending",
	}
	if appliedPromo != nil {
		order.PromoCode = appliedPromo.Code
	}

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, it := range items {
			unit := it.Product.BasePrice.Add(it.Variant.PriceAdjustment)
			line := models.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				Quantity:  it.Quantity,
				Price:     unit,
				Subtotal:  unit.Mul(decimal.NewFromInt(int64(it.Quantity))),
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
		}
		if appliedPromo != nil {
			if err := promo.MarkUsed(tx, appliedPromo.ID); err != nil {
				return err
			}
		}
		return tx.Where("cart_id = ?", userCart.ID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create order")
	}

	if h.Events != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		event := map[string]any{
			"event":        "order_created",
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"user_id":      userID.String(),
			"total":        order.Total,
		}
		if err := h.Events.PublishEvent(pubCtx, "order_events", order.ID.String(), event); err != nil {
			logging.FromContext(ctx).Error("publish order event", "error", err)
		}
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *CheckoutHandler) ListOrders(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var orders []models.Order
	err = h.DB.WithContext(c.Request().Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func (h *CheckoutHandler) GetOrder(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	ctx := c.Request().Context()
	var order models.Order
	err = h.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load order")
	}

	var lines []models.OrderItem
	if err := h.DB.WithContext(ctx).Where("order_id = ?", order.ID).Find(&lines).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load order items")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order": order,
		"items": lines,
	})
}

func isPromoRejection(err error) bool {
	return errors.Is(err, promo.ErrInactive) ||
		errors.Is(err, promo.ErrNotStarted) ||
		errors.Is(err, promo.ErrExpired) ||
		errors.Is(err, promo.ErrMinPurchase) ||
		errors.Is(err, promo.ErrExhausted)
}
