package handlers_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/cart"
	"github.com/okhotin/storefront/internal/config"
	"github.com/okhotin/storefront/internal/guestcart"
	"github.com/okhotin/storefront/internal/handlers"
	"github.com/okhotin/storefront/internal/hash"
	"github.com/okhotin/storefront/internal/kvstore"
	"github.com/okhotin/storefront/internal/models"
	"github.com/okhotin/storefront/internal/mykafka"
	"github.com/okhotin/storefront/internal/promo"
	"github.com/okhotin/storefront/internal/service/token"
	httptransport "github.com/okhotin/storefront/internal/transport/http"
)

var (
	testJWTSecret     = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Topic string
	Key   string
	Event any
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (f *fakePublisher) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Topic
	}
	return out
}

type testEnv struct {
	e      *echo.Echo
	db     *gorm.DB
	guest  *guestcart.Store
	carts  *cart.Service
	events *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return buildTestEnv(t, true)
}

// newTestEnvWithoutEvents mirrors the deployment where KAFKA_ADDRESS is
// empty and no publisher is wired.
func newTestEnvWithoutEvents(t *testing.T) *testEnv {
	t.Helper()
	return buildTestEnv(t, false)
}

func buildTestEnv(t *testing.T, withEvents bool) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "handlers.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	logger := slog.Default()
	guestStore := guestcart.NewStore(kvstore.NewMemory(), logger)

	cartService := &cart.Service{Repo: &cart.GormRepo{DB: db}}
	reconciler := &cart.Reconciler{
		Guest: guestStore,
		Carts: cartService,
		Log:   logger,
	}
	var events *fakePublisher
	var publisher mykafka.Publisher
	if withEvents {
		events = &fakePublisher{}
		publisher = events
	}

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     testJWTSecret,
		RefreshSecret: testRefreshSecret,
	}

	e := echo.New()
	httptransport.Register(e, &httptransport.Deps{
		Auth: &handlers.AuthHandler{
			DB:            db,
			JWTSecret:     testJWTSecret,
			RefreshSecret: testRefreshSecret,
			Events:        publisher,
			Reconciler:    reconciler,
		},
		GuestCart:  &handlers.GuestCartHandler{Guest: guestStore},
		Cart:       &handlers.CartHandler{Carts: cartService, Events: publisher},
		Products:   &handlers.ProductHandler{DB: db, Events: publisher},
		Categories: &handlers.CategoryHandler{DB: db},
		Promos:     &handlers.PromoHandler{DB: db, Promos: &promo.Service{DB: db}},
		Checkout:   &handlers.CheckoutHandler{DB: db, Carts: cartService, Promos: &promo.Service{DB: db}, Events: publisher},
		Addresses:  &handlers.AddressHandler{DB: db},
		Admin:      &handlers.AdminHandler{DB: db},
		Tokens:     tokens,
	})

	return &testEnv{e: e, db: db, guest: guestStore, carts: cartService, events: events}
}

func (env *testEnv) request(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createUser(t *testing.T, email, password, role string) models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(t, env.db.Create(&user).Error)
	return user
}

func (env *testEnv) accessCookie(t *testing.T, user models.User) *http.Cookie {
	t.Helper()

	access, err := token.SignAccessToken(user.ID, user.Role, testJWTSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: "accessToken", Value: access}
}

func (env *testEnv) seedProduct(t *testing.T, name, basePrice, adjustment string) (models.Product, models.ProductVariant) {
	t.Helper()

	product := models.Product{
		Name:      name,
		Slug:      strings.ToLower(strings.ReplaceAll(name, " ", "-")) + "-" + uuid.NewString()[:8],
		BasePrice: decimal.RequireFromString(basePrice),
		IsActive:  true,
	}
	require.NoError(t, env.db.Create(&product).Error)

	variant := models.ProductVariant{
		ProductID:       product.ID,
		SKU:             "SKU-" + uuid.NewString()[:8],
		Size:            "M",
		PriceAdjustment: decimal.RequireFromString(adjustment),
		StockQuantity:   50,
		IsActive:        true,
	}
	require.NoError(t, env.db.Create(&variant).Error)
	return product, variant
}

func (env *testEnv) seedPromo(t *testing.T, code, discountType, value string) models.PromoCode {
	t.Helper()

	pc := models.PromoCode{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: decimal.RequireFromString(value),
		ValidFrom:     time.Now().Add(-time.Hour),
		IsActive:      true,
	}
	require.NoError(t, env.db.Create(&pc).Error)
	return pc
}
