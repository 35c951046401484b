package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/digistore/internal/domain"
)

// Orders are system-written only; the admin API exposes read and export.
func registerOrderRoutes(g *echo.Group) {
	g.GET("/orders", listOrders)
	g.GET("/orders/export", exportOrders)
	g.GET("/orders/:id", getOrder)
}

func orderQuery(c echo.Context) (*gorm.DB, error) {
	db := GetDB(c).Model(&domain.Order{})
	if email := strings.TrimSpace(c.QueryParam("email")); email != "" {
		db = db.Where("customer_email = ?", email)
	}
	if sid := strings.TrimSpace(c.QueryParam("session_id")); sid != "" {
		db = db.Where("session_id = ?", sid)
	}
	if start := strings.TrimSpace(c.QueryParam("start")); start != "" {
		t, err := dateparse.ParseAny(start)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q", start)
		}
		db = db.Where("created_at >= ?", t)
	}
	if end := strings.TrimSpace(c.QueryParam("end")); end != "" {
		t, err := dateparse.ParseAny(end)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q", end)
		}
		db = db.Where("created_at < ?", t)
	}
	return db, nil
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db, err := orderQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	var rows []domain.Order
	if err := db.Order("created_at DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getOrder(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var o domain.Order
	if err := GetDB(c).Where("id = ?", id).First(&o).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}
	return ok(c, o)
}

func exportOrders(c echo.Context) error {
	db, err := orderQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	var rows []domain.Order
	if err := db.Order("created_at DESC").Limit(10000).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	f := excelize.NewFile()
	const sheet = "Sheet1"
	headers := []string{"ID", "Product", "Price", "Customer Email", "Session ID", "Created At"}
	for i, h := range headers {
		f.SetCellValue(sheet, fmt.Sprintf("%c1", 'A'+i), h)
	}
	for i, o := range rows {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), o.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), o.ProductName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), o.Price)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), o.CustomerEmail)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), o.SessionID)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), o.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.xlsx"`)
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}
