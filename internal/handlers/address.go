package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/okhotin/storefront/internal/models"
	"github.com/okhotin/storefront/internal/service/token"
)

type AddressHandler struct {
	DB *gorm.DB
}

type addressRequest struct {
	Type         string `json:"type"`
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"is_default"`
}

func (h *AddressHandler) ListAddresses(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var addresses []models.Address
	err = h.DB.WithContext(c.Request().Context()).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list addresses")
	}
	return c.JSON(http.StatusOK, echo.Map{"addresses": addresses})
}

func (h *AddressHandler) CreateAddress(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.FullName == "" || req.AddressLine1 == "" || req.City == "" || req.PostalCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "full_name, address_line1, city and postal_code required")
	}

	address := models.Address{
		UserID:       userID,
		Type:         req.Type,
		FullName:     req.FullName,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Phone:        req.Phone,
		IsDefault:    req.IsDefault,
	}

	ctx := c.Request().Context()
	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			err := tx.Model(&models.Address{}).
				Where("user_id = ?", userID).
				Update("is_default", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create address")
	}
	return c.JSON(http.StatusCreated, address)
}

func (h *AddressHandler) UpdateAddress(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid address id")
	}

	ctx := c.Request().Context()
	var address models.Address
	err = h.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "address not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load address")
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Type != "" {
		address.Type = req.Type
	}
	if req.FullName != "" {
		address.FullName = req.FullName
	}
	if req.AddressLine1 != "" {
		address.AddressLine1 = req.AddressLine1
	}
	address.AddressLine2 = req.AddressLine2
	if req.City != "" {
		address.City = req.City
	}
	address.State = req.State
	if req.PostalCode != "" {
		address.PostalCode = req.PostalCode
	}
	if req.Country != "" {
		address.Country = req.Country
	}
	address.Phone = req.Phone

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IsDefault && !address.IsDefault {
			err := tx.Model(&models.Address{}).
				Where("user_id = ?", userID).
				Update("is_default", false).Error
			if err != nil {
				return err
			}
			address.IsDefault = true
		}
		return tx.Save(&address).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update address")
	}
	return c.JSON(http.StatusOK, address)
}

func (h *AddressHandler) DeleteAddress(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid address id")
	}

	res := h.DB.WithContext(c.Request().Context()).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Address{})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete address")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "address not found")
	}
	return c.NoContent(http.StatusNoContent)
}
