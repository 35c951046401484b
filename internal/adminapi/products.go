package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/pkg/common"
)

type productPayload struct {
	ShopID       int64    `json:"shop_id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Description  string   `json:"description"`
	Price        *float64 `json:"price"`
	FileURL      string   `json:"file_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Active       *bool    `json:"active"`
}

func registerProductRoutes(g *echo.Group) {
	g.GET("/products", listProducts)
	g.GET("/products/export", exportProducts)
	g.GET("/products/:id", getProduct)
	g.POST("/products", createProduct)
	g.PUT("/products/:id", updateProduct)
	g.DELETE("/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	q := strings.TrimSpace(c.QueryParam("q"))
	shopFilter := strings.TrimSpace(c.QueryParam("shop_id"))

	sortField := strings.TrimSpace(c.QueryParam("sort"))
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"id":         "id",
		"name":       "name",
		"price":      "price",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	sortCol, okCol := allowed[sortField]
	if !okCol || sortCol == "" {
		sortCol = "id"
	}

	db := GetDB(c).Model(&domain.Product{})
	if q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if shopFilter != "" {
		db = db.Where("shop_id = ?", shopFilter)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Order(sortCol + " " + order).Offset((page-1)*pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.ShopID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "shop_id is required", nil)
	}
	if payload.Price == nil || *payload.Price < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price is required and must be >= 0", nil)
	}
	var shop domain.Shop
	if err := GetDB(c).Where("id = ?", payload.ShopID).First(&shop).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Shop does not exist", nil)
	}

	slug := strings.TrimSpace(payload.Slug)
	if slug == "" {
		slug = common.Slugify(payload.Name)
	}
	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	now := time.Now()
	p := domain.Product{
		ID:           common.UUIDint64(),
		ShopID:       payload.ShopID,
		Name:         payload.Name,
		Slug:         slug,
		Description:  payload.Description,
		Price:        *payload.Price,
		FileURL:      strings.TrimSpace(payload.FileURL),
		ThumbnailURL: strings.TrimSpace(payload.ThumbnailURL),
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			return fail(c, http.StatusConflict, "DUPLICATE_SLUG", "Product slug already exists in this shop", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Price != nil && *payload.Price < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be >= 0", nil)
	}

	p.Name = payload.Name
	if slug := strings.TrimSpace(payload.Slug); slug != "" {
		p.Slug = slug
	}
	p.Description = payload.Description
	if payload.Price != nil {
		p.Price = *payload.Price
	}
	p.FileURL = strings.TrimSpace(payload.FileURL)
	p.ThumbnailURL = strings.TrimSpace(payload.ThumbnailURL)
	if payload.Active != nil {
		p.Active = *payload.Active
	}
	p.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}

type productExportRow struct {
	ID        int64   `csv:"id"`
	ShopID    int64   `csv:"shop_id"`
	Name      string  `csv:"name"`
	Slug      string  `csv:"slug"`
	Price     float64 `csv:"price"`
	FileURL   string  `csv:"file_url"`
	Active    bool    `csv:"active"`
	CreatedAt string  `csv:"created_at"`
}

func exportProducts(c echo.Context) error {
	var rows []domain.Product
	if err := GetDB(c).Order("id DESC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	out := make([]productExportRow, 0, len(rows))
	for _, p := range rows {
		out = append(out, productExportRow{
			ID:        p.ID,
			ShopID:    p.ShopID,
			Name:      p.Name,
			Slug:      p.Slug,
			Price:     p.Price,
			FileURL:   p.FileURL,
			Active:    p.Active,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return gocsv.Marshal(&out, c.Response())
}
