package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okhotin/storefront/internal/models"
)

type cartBody struct {
	CartID string `json:"cart_id"`
	Items  []struct {
		ID       string `json:"id"`
		Quantity uint   `json:"quantity"`
	} `json:"items"`
	ItemCount uint            `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func decodeCart(t *testing.T, data []byte) cartBody {
	t.Helper()
	var body cartBody
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestCartRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/v1/cart", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "cart@example.com", "Secret123", "customer")
	cookie := env.accessCookie(t, user)
	product, variant := env.seedProduct(t, "Linen Shirt", "40.00", "5.00")

	rec := env.request(t, http.MethodGet, "/api/v1/cart", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeCart(t, rec.Body.Bytes())
	assert.Empty(t, body.Items)

	addBody := fmt.Sprintf(
		`{"product_id":%q,"variant_id":%q,"quantity":2,"price":"45.00"}`,
		product.ID, variant.ID)
	rec = env.request(t, http.MethodPost, "/api/v1/cart/items", addBody, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeCart(t, rec.Body.Bytes())
	require.Len(t, body.Items, 1)
	assert.Equal(t, uint(2), body.ItemCount)
	assert.True(t, body.Subtotal.Equal(decimal.RequireFromString("90.00")), body.Subtotal.String())

	// adding the same variant increments the existing row
	rec = env.request(t, http.MethodPost, "/api/v1/cart/items", addBody, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeCart(t, rec.Body.Bytes())
	require.Len(t, body.Items, 1)
	assert.Equal(t, uint(4), body.ItemCount)

	itemID := body.Items[0].ID
	rec = env.request(t, http.MethodPatch, "/api/v1/cart/items/"+itemID, `{"quantity":1}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeCart(t, rec.Body.Bytes())
	assert.Equal(t, uint(1), body.ItemCount)

	rec = env.request(t, http.MethodDelete, "/api/v1/cart/items/"+itemID, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeCart(t, rec.Body.Bytes())
	assert.Empty(t, body.Items)

	assert.Contains(t, env.events.topics(), "cart_events")
	for _, ev := range env.events.events {
		if ev.Topic == "cart_events" {
			assert.Equal(t, body.CartID, ev.Key)
		}
	}
}

func TestCartRejectsNonPositiveQuantity(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "floor@example.com", "Secret123", "customer")
	cookie := env.accessCookie(t, user)
	product, variant := env.seedProduct(t, "Belt", "20.00", "0.00")

	addBody := fmt.Sprintf(
		`{"product_id":%q,"variant_id":%q,"quantity":1,"price":"20.00"}`,
		product.ID, variant.ID)
	rec := env.request(t, http.MethodPost, "/api/v1/cart/items", addBody, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeCart(t, rec.Body.Bytes())
	require.Len(t, body.Items, 1)
	itemID := body.Items[0].ID

	for _, qty := range []int{0, -1} {
		rec = env.request(t, http.MethodPatch, "/api/v1/cart/items/"+itemID,
			fmt.Sprintf(`{"quantity":%d}`, qty), cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	// row untouched by the rejected updates
	var item models.CartItem
	require.NoError(t, env.db.First(&item, "id = ?", itemID).Error)
	assert.Equal(t, uint(1), item.Quantity)
}

func TestCartUpdateUnknownItemIs404(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "missing@example.com", "Secret123", "customer")
	cookie := env.accessCookie(t, user)

	rec := env.request(t, http.MethodPatch,
		"/api/v1/cart/items/6f1e0cf0-a7a8-4a2b-9a61-000000000000", `{"quantity":3}`, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
