package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/models"
	"github.com/okhotin/storefront/internal/util"
)

type AdminHandler struct {
	DB *gorm.DB
}

// Dashboard aggregates the storefront overview counters shown on the admin
// home screen.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	db := h.DB.WithContext(ctx)

	var productCount, orderCount, userCount int64
	if err := db.Model(&models.Product{}).Where("is_active = ?", true).Count(&productCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count products")
	}
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count orders")
	}
	if err := db.Model(&models.User{}).Where("role = ?", "customer").Count(&userCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count users")
	}

	var totals []decimal.Decimal
	err := db.Model(&models.Order{}).
		Where("payment_status = ?", "paid").
		Pluck("total", &totals).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to sum revenue")
	}
	revenue := decimal.Zero
	for _, t := range totals {
		revenue = revenue.Add(t)
	}

	var recent []models.Order
	if err := db.Order("created_at DESC").Limit(10).Find(&recent).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list recent orders")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"product_count": productCount,
		"order_count":   orderCount,
		"user_count":    userCount,
		"revenue":       revenue,
		"recent_orders": recent,
	})
}

// ListCustomers is the paginated customer roster for the admin back office.
func (h *AdminHandler) ListCustomers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	q := h.DB.WithContext(c.Request().Context()).
		Model(&models.User{}).
		Where("role = ?", "customer")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count customers")
	}

	var customers []models.User
	if err := q.Order("created_at DESC").Offset(from).Limit(limit).Find(&customers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list customers")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"customers": customers,
		"total":     total,
	})
}

// UpdateOrderStatus lets staff move an order through its lifecycle.
func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	var req struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Status == "" && req.PaymentStatus == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status or payment_status required")
	}

	updates := map[string]any{}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.PaymentStatus != "" {
		updates["payment_status"] = req.PaymentStatus
	}

	res := h.DB.WithContext(c.Request().Context()).
		Model(&models.Order{}).
		Where("id = ?", c.Param("id")).
		Updates(updates)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update order")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}
