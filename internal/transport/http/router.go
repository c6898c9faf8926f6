package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/okhotin/storefront/internal/handlers"
	"github.com/okhotin/storefront/internal/service/token"
)

type Deps struct {
	Auth       *handlers.AuthHandler
	GuestCart  *handlers.GuestCartHandler
	Cart       *handlers.CartHandler
	Products   *handlers.ProductHandler
	Categories *handlers.CategoryHandler
	Promos     *handlers.PromoHandler
	Checkout   *handlers.CheckoutHandler
	Addresses  *handlers.AddressHandler
	Admin      *handlers.AdminHandler
	Search     *handlers.SearchHandler
	Tokens     *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api/v1")

	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/logout", d.Auth.Logout)

	api.GET("/products", d.Products.ListProducts)
	api.GET("/products/:slug", d.Products.GetProduct)
	api.GET("/categories", d.Categories.ListCategories)
	if d.Search != nil && d.Search.ES != nil {
		api.GET("/search", d.Search.SearchProducts)
	}
	api.POST("/promo/validate", d.Promos.ValidatePromo)

	// guest cart endpoints only need the guest cookie, no auth
	guest := api.Group("/guest/cart")
	guest.GET("", d.GuestCart.GetCart)
	guest.POST("/items", d.GuestCart.AddItem)
	guest.PATCH("/items/:id", d.GuestCart.UpdateItem)
	guest.DELETE("/items/:id", d.GuestCart.RemoveItem)
	guest.DELETE("", d.GuestCart.ClearCart)

	authed := api.Group("")
	authed.Use(d.Tokens.AutoRefreshMiddleware)

	authed.GET("/cart", d.Cart.GetCart)
	authed.POST("/cart/items", d.Cart.AddItem)
	authed.PATCH("/cart/items/:id", d.Cart.UpdateItem)
	authed.DELETE("/cart/items/:id", d.Cart.RemoveItem)
	authed.DELETE("/cart", d.Cart.ClearCart)

	authed.POST("/checkout", d.Checkout.Checkout)
	authed.GET("/orders", d.Checkout.ListOrders)
	authed.GET("/orders/:id", d.Checkout.GetOrder)

	authed.GET("/addresses", d.Addresses.ListAddresses)
	authed.POST("/addresses", d.Addresses.CreateAddress)
	authed.PATCH("/addresses/:id", d.Addresses.UpdateAddress)
	authed.DELETE("/addresses/:id", d.Addresses.DeleteAddress)

	admin := api.Group("/admin")
	admin.Use(d.Tokens.AutoRefreshMiddlewareAdmin)

	admin.GET("/dashboard", d.Admin.Dashboard)
	admin.GET("/customers", d.Admin.ListCustomers)
	admin.PATCH("/orders/:id/status", d.Admin.UpdateOrderStatus)

	admin.POST("/products", d.Products.CreateProduct)
	admin.PATCH("/products/:id", d.Products.UpdateProduct)
	admin.DELETE("/products/:id", d.Products.DeleteProduct)

	admin.POST("/categories", d.Categories.CreateCategory)
	admin.PATCH("/categories/:id", d.Categories.UpdateCategory)
	admin.DELETE("/categories/:id", d.Categories.DeleteCategory)

	admin.GET("/promo", d.Promos.ListPromos)
	admin.POST("/promo", d.Promos.CreatePromo)
	admin.PATCH("/promo/:id", d.Promos.UpdatePromo)
	admin.DELETE("/promo/:id", d.Promos.DeletePromo)
}
