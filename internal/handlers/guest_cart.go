package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/okhotin/storefront/internal/guestcart"
)

// GuestCookieName carries the device-scoped cart identity for shoppers who
// have not signed in.
const GuestCookieName = "guest_id"

const guestCookieTTL = 30 * 24 * time.Hour

type GuestCartHandler struct {
	Guest *guestcart.Store
}

// guestID returns the request's guest identity, minting a cookie when the
// device shows up for the first time.
func (h *GuestCartHandler) guestID(c echo.Context) string {
	if cookie, err := c.Cookie(GuestCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     GuestCookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(guestCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func guestCartResponse(items []guestcart.Item) echo.Map {
	return echo.Map{
		"items":      items,
		"item_count": guestcart.ItemCount(items),
		"subtotal":   guestcart.Subtotal(items),
	}
}

func (h *GuestCartHandler) GetCart(c echo.Context) error {
	items := h.Guest.Items(h.guestID(c))
	return c.JSON(http.StatusOK, guestCartResponse(items))
}

func (h *GuestCartHandler) AddItem(c echo.Context) error {
	var req struct {
		ProductID    uuid.UUID       `json:"product_id"`
		VariantID    uuid.UUID       `json:"variant_id"`
		Quantity     uint            `json:"quantity"`
		Price        decimal.Decimal `json:"price"`
		ProductName  string          `json:"product_name"`
		ImageURL     string          `json:"image_url"`
		VariantLabel string          `json:"variant_label"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == uuid.Nil || req.VariantID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id and variant_id required")
	}

	items := h.Guest.Add(h.guestID(c), guestcart.Item{
		ProductID:    req.ProductID,
		VariantID:    req.VariantID,
		Quantity:     req.Quantity,
		Price:        req.Price,
		ProductName:  req.ProductName,
		ImageURL:     req.ImageURL,
		VariantLabel: req.VariantLabel,
	})
	return c.JSON(http.StatusOK, guestCartResponse(items))
}

func (h *GuestCartHandler) UpdateItem(c echo.Context) error {
	var req struct {
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	items := h.Guest.SetQuantity(h.guestID(c), c.Param("id"), req.Quantity)
	return c.JSON(http.StatusOK, guestCartResponse(items))
}

func (h *GuestCartHandler) RemoveItem(c echo.Context) error {
	items := h.Guest.Remove(h.guestID(c), c.Param("id"))
	return c.JSON(http.StatusOK, guestCartResponse(items))
}

func (h *GuestCartHandler) ClearCart(c echo.Context) error {
	h.Guest.Clear(h.guestID(c))
	return c.JSON(http.StatusOK, guestCartResponse([]guestcart.Item{}))
}
