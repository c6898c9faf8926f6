package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/okhotin/storefront/internal/cart"
	"github.com/okhotin/storefront/internal/logging"
	"github.com/okhotin/storefront/internal/mykafka"
	"github.com/okhotin/storefront/internal/service/token"
)

type CartHandler struct {
	Carts  *cart.Service
	Events mykafka.Publisher
}

func (h *CartHandler) publish(ctx context.Context, event map[string]any) {
	if h.Events == nil {
		return
	}
	key, _ := event["cart_id"].(string)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Events.PublishEvent(pubCtx, "cart_events", key, event); err != nil {
		logging.FromContext(ctx).Error("publish cart event", "error", err)
	}
}

func (h *CartHandler) cartResponse(ctx context.Context, cartID uuid.UUID) (echo.Map, error) {
	items, err := h.Carts.GetCartItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return echo.Map{
		"cart_id":    cartID,
		"items":      items,
		"item_count": cart.ItemCount(items),
		"subtotal":   cart.Subtotal(items),
	}, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	ctx := c.Request().Context()
	userCart, err := h.Carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart")
	}
	resp, err := h.cartResponse(ctx, userCart.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart items")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req struct {
		ProductID uuid.UUID       `json:"product_id"`
		VariantID uuid.UUID       `json:"variant_id"`
		Quantity  int             `json:"quantity"`
		Price     decimal.Decimal `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	userCart, err := h.Carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart")
	}

	qty := req.Quantity
	if qty <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be positive")
	}
	item, err := h.Carts.AddItem(ctx, userCart.ID, req.ProductID, req.VariantID, uint(qty), req.Price)
	switch {
	case errors.Is(err, cart.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to add item")
	}

	h.publish(ctx, map[string]any{
		"event":      "cart_item_added",
		"cart_id":    userCart.ID.String(),
		"product_id": req.ProductID.String(),
		"variant_id": req.VariantID.String(),
		"quantity":   item.Quantity,
	})

	resp, err := h.cartResponse(ctx, userCart.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart items")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	item, err := h.Carts.UpdateItemQuantity(ctx, itemID, req.Quantity)
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be positive")
	case cart.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, "cart item not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update item")
	}

	h.publish(ctx, map[string]any{
		"event":    "cart_item_updated",
		"cart_id":  item.CartID.String(),
		"item_id":  item.ID.String(),
		"quantity": item.Quantity,
		"user_id":  userID.String(),
	})

	resp, err := h.cartResponse(ctx, item.CartID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart items")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	ctx := c.Request().Context()
	userCart, err := h.Carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart")
	}

	if err := h.Carts.RemoveItem(ctx, itemID); err != nil {
		if cart.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove item")
	}

	h.publish(ctx, map[string]any{
		"event":   "cart_item_removed",
		"cart_id": userCart.ID.String(),
		"item_id": itemID.String(),
	})

	resp, err := h.cartResponse(ctx, userCart.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart items")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	ctx := c.Request().Context()
	userCart, err := h.Carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cart")
	}
	if err := h.Carts.ClearCart(ctx, userCart.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear cart")
	}

	h.publish(ctx, map[string]any{
		"event":   "cart_cleared",
		"cart_id": userCart.ID.String(),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"cart_id":    userCart.ID,
		"items":      []cart.ItemDetails{},
		"item_count": 0,
		"subtotal":   decimal.Zero,
	})
}
