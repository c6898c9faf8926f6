package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okhotin/storefront/internal/guestcart"
	"github.com/okhotin/storefront/internal/handlers"
)

type guestCartBody struct {
	Items     []guestcart.Item `json:"items"`
	ItemCount uint             `json:"item_count"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
}

func decodeGuestCart(t *testing.T, data []byte) guestCartBody {
	t.Helper()
	var body guestCartBody
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestGuestCartMintsCookieOnFirstTouch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/v1/guest/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var guestCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == handlers.GuestCookieName {
			guestCookie = c
		}
	}
	require.NotNil(t, guestCookie)
	assert.NotEmpty(t, guestCookie.Value)
	assert.True(t, guestCookie.HttpOnly)
}

func TestGuestCartFlow(t *testing.T) {
	env := newTestEnv(t)
	product, variant := env.seedProduct(t, "Canvas Tote", "15.00", "0.00")
	cookie := &http.Cookie{Name: handlers.GuestCookieName, Value: "device-42"}

	addBody := fmt.Sprintf(
		`{"product_id":%q,"variant_id":%q,"quantity":2,"price":"15.00","product_name":"Canvas Tote"}`,
		product.ID, variant.ID)
	rec := env.request(t, http.MethodPost, "/api/v1/guest/cart/items", addBody, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeGuestCart(t, rec.Body.Bytes())
	require.Len(t, body.Items, 1)
	assert.Equal(t, uint(2), body.ItemCount)
	assert.True(t, body.Subtotal.Equal(decimal.RequireFromString("30.00")), body.Subtotal.String())

	// same variant again merges into the existing line
	rec = env.request(t, http.MethodPost, "/api/v1/guest/cart/items", addBody, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeGuestCart(t, rec.Body.Bytes())
	require.Len(t, body.Items, 1)
	assert.Equal(t, uint(4), body.ItemCount)

	itemID := body.Items[0].ID
	rec = env.request(t, http.MethodPatch, "/api/v1/guest/cart/items/"+itemID, `{"quantity":1}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeGuestCart(t, rec.Body.Bytes())
	assert.Equal(t, uint(1), body.ItemCount)

	rec = env.request(t, http.MethodDelete, "/api/v1/guest/cart/items/"+itemID, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeGuestCart(t, rec.Body.Bytes())
	assert.Empty(t, body.Items)
}

func TestGuestCartQuantityZeroRemovesLine(t *testing.T) {
	env := newTestEnv(t)
	product, variant := env.seedProduct(t, "Mug", "8.00", "0.00")
	cookie := &http.Cookie{Name: handlers.GuestCookieName, Value: "device-7"}

	addBody := fmt.Sprintf(
		`{"product_id":%q,"variant_id":%q,"quantity":1,"price":"8.00"}`,
		product.ID, variant.ID)
	rec := env.request(t, http.MethodPost, "/api/v1/guest/cart/items", addBody, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeGuestCart(t, rec.Body.Bytes())
	require.Len(t, body.Items, 1)

	rec = env.request(t, http.MethodPatch, "/api/v1/guest/cart/items/"+body.Items[0].ID, `{"quantity":0}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeGuestCart(t, rec.Body.Bytes())
	assert.Empty(t, body.Items)
}

func TestGuestCartsAreIsolatedPerDevice(t *testing.T) {
	env := newTestEnv(t)
	product, variant := env.seedProduct(t, "Poster", "12.00", "0.00")

	addBody := fmt.Sprintf(
		`{"product_id":%q,"variant_id":%q,"quantity":1,"price":"12.00"}`,
		product.ID, variant.ID)
	rec := env.request(t, http.MethodPost, "/api/v1/guest/cart/items", addBody,
		&http.Cookie{Name: handlers.GuestCookieName, Value: "device-a"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/guest/cart", "",
		&http.Cookie{Name: handlers.GuestCookieName, Value: "device-b"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeGuestCart(t, rec.Body.Bytes())
	assert.Empty(t, body.Items)
}
