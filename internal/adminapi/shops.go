package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/pkg/common"
)

func registerShopRoutes(g *echo.Group) {
	g.GET("/shops", listShops)
	g.GET("/shops/:id", getShop)
	g.POST("/shops", createShop)
	g.PUT("/shops/:id", updateShop)
	g.DELETE("/shops/:id", deleteShop)
}

type shopPayload struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	OwnerID     int64  `json:"owner_id"`
	LogoURL     string `json:"logo_url"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func listShops(c echo.Context) error {
	page, pageSize := parsePagination(c)

	base := GetDB(c).Model(&domain.Shop{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		base = base.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query shops", err.Error())
	}

	var shops []domain.Shop
	if err := base.Order("id DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&shops).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query shops", err.Error())
	}
	return paged(c, shops, total, page, pageSize)
}

func getShop(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid shop ID", nil)
	}
	var shop domain.Shop
	if err := GetDB(c).Where("id = ?", id).First(&shop).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "SHOP_NOT_FOUND", "Shop not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query shop", err.Error())
	}
	return ok(c, shop)
}

func createShop(c echo.Context) error {
	var payload shopPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse shop parameters", nil)
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "MISSING_NAME", "Shop name is required", nil)
	}
	slug := strings.TrimSpace(payload.Slug)
	if slug == "" {
		slug = common.Slugify(payload.Name)
	}
	var dup domain.Shop
	if err := GetDB(c).Where("slug = ?", slug).First(&dup).Error; err == nil {
		return fail(c, http.StatusConflict, "DUPLICATE_SLUG", "Shop with this slug already exists", nil)
	}
	status := payload.Status
	if status == "" {
		status = common.ENABLED
	}

	now := time.Now()
	shop := domain.Shop{
		ID:          common.UUIDint64(),
		OwnerID:     payload.OwnerID,
		Name:        payload.Name,
		Slug:        slug,
		LogoURL:     strings.TrimSpace(payload.LogoURL),
		Description: payload.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := GetDB(c).Create(&shop).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create shop", err.Error())
	}
	return ok(c, shop)
}

func updateShop(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid shop ID", nil)
	}
	var shop domain.Shop
	if err := GetDB(c).Where("id = ?", id).First(&shop).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "SHOP_NOT_FOUND", "Shop not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query shop", err.Error())
	}

	var payload shopPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse shop parameters", nil)
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "MISSING_NAME", "Shop name is required", nil)
	}

	shop.Name = payload.Name
	if slug := strings.TrimSpace(payload.Slug); slug != "" {
		shop.Slug = slug
	}
	shop.LogoURL = strings.TrimSpace(payload.LogoURL)
	shop.Description = payload.Description
	if payload.Status != "" {
		shop.Status = payload.Status
	}
	shop.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&shop).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update shop", err.Error())
	}
	return ok(c, shop)
}

func deleteShop(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid shop ID", nil)
	}
	var count int64
	GetDB(c).Model(&domain.Product{}).Where("shop_id = ?", id).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "SHOP_NOT_EMPTY", "Shop still has products", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Shop{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete shop", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}
