package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/es"
	"github.com/okhotin/storefront/internal/logging"
	"github.com/okhotin/storefront/internal/models"
	"github.com/okhotin/storefront/internal/mykafka"
	"github.com/okhotin/storefront/internal/util"
)

type ProductHandler struct {
	DB      *gorm.DB
	Events  mykafka.Publisher
	Indexer *es.Indexer
}

func (h *ProductHandler) publish(ctx context.Context, key string, event map[string]any) {
	if h.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Events.PublishEvent(pubCtx, "product_events", key, event); err != nil {
		logging.FromContext(ctx).Error("publish product event", "error", err)
	}
}

func (h *ProductHandler) index(ctx context.Context, p *models.Product) {
	if h.Indexer == nil {
		return
	}
	idxCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Indexer.IndexProduct(idxCtx, p); err != nil {
		logging.FromContext(ctx).Error("index product", "product_id", p.ID, "error", err)
	}
}

// ListProducts is the public catalog listing. Only active products are
// visible; category, featured and pagination filters come from the query.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	q := h.DB.WithContext(c.Request().Context()).
		Model(&models.Product{}).
		Where("is_active = ?", true).
		Preload("Images").
		Preload("Variants", "is_active = ?", true)

	if cat := c.QueryParam("category_id"); cat != "" {
		catID, err := uuid.Parse(cat)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid category_id")
		}
		q = q.Where("category_id = ?", catID)
	}
	if c.QueryParam("featured") == "true" {
		q = q.Where("is_featured = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count products")
	}

	var products []models.Product
	if err := q.Order("created_at DESC").Offset(from).Limit(limit).Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list products")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"products": products,
		"total":    total,
	})
}

// GetProduct looks a product up by slug, falling back to id for clients that
// still send one.
func (h *ProductHandler) GetProduct(c echo.Context) error {
	ref := c.Param("slug")

	q := h.DB.WithContext(c.Request().Context()).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("display_order") }).
		Preload("Variants", "is_active = ?", true).
		Where("is_active = ?", true)

	var product models.Product
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		err = q.Where("id = ?", id).First(&product).Error
	} else {
		err = q.Where("slug = ?", ref).First(&product).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load product")
	}
	return c.JSON(http.StatusOK, product)
}

type productRequest struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	BasePrice   decimal.Decimal `json:"base_price"`
	IsFeatured  bool            `json:"is_featured"`
	IsActive    *bool           `json:"is_active"`
	Images      []struct {
		ImageURL     string `json:"image_url"`
		DisplayOrder int    `json:"display_order"`
		AltText      string `json:"alt_text"`
	} `json:"images"`
	Variants []struct {
		SKU             string          `json:"sku"`
		Size            string          `json:"size"`
		Color           string          `json:"color"`
		PriceAdjustment decimal.Decimal `json:"price_adjustment"`
		StockQuantity   int             `json:"stock_quantity"`
	} `json:"variants"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and slug required")
	}

	product := models.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		BasePrice:   req.BasePrice,
		IsFeatured:  req.IsFeatured,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	for _, img := range req.Images {
		product.Images = append(product.Images, models.ProductImage{
			ImageURL:     img.ImageURL,
			DisplayOrder: img.DisplayOrder,
			AltText:      img.AltText,
		})
	}
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			SKU:             v.SKU,
			Size:            v.Size,
			Color:           v.Color,
			PriceAdjustment: v.PriceAdjustment,
			StockQuantity:   v.StockQuantity,
			IsActive:        true,
		})
	}

	ctx := c.Request().Context()
	if err := h.DB.WithContext(ctx).Create(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create product")
	}

	h.index(ctx, &product)
	h.publish(ctx, product.ID.String(), map[string]any{
		"event":      "product_created",
		"product_id": product.ID.String(),
		"name":       product.Name,
	})

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	ctx := c.Request().Context()
	var product models.Product
	if err := h.DB.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load product")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Slug != "" {
		product.Slug = req.Slug
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if !req.BasePrice.IsZero() {
		product.BasePrice = req.BasePrice
	}
	product.IsFeatured = req.IsFeatured
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.DB.WithContext(ctx).Save(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update product")
	}

	h.index(ctx, &product)
	h.publish(ctx, product.ID.String(), map[string]any{
		"event":      "product_updated",
		"product_id": product.ID.String(),
	})

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	ctx := c.Request().Context()
	res := h.DB.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete product")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	if h.Indexer != nil {
		idxCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := h.Indexer.DeleteProduct(idxCtx, id); err != nil {
			logging.FromContext(ctx).Error("deindex product", "product_id", id, "error", err)
		}
	}
	h.publish(ctx, id.String(), map[string]any{
		"event":      "product_deleted",
		"product_id": id.String(),
	})

	return c.NoContent(http.StatusNoContent)
}
