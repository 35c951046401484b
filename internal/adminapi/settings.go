package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/digistore/internal/app"
	"github.com/talkincode/digistore/internal/domain"
)

type settingPayload struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

func registerSettingsRoutes(g *echo.Group, appCtx app.AppContext) {
	g.GET("/settings", listSettings)
	g.PUT("/settings", updateSetting(appCtx))
}

func listSettings(c echo.Context) error {
	var rows []domain.SysConfig
	db := GetDB(c).Model(&domain.SysConfig{})
	if cat := strings.TrimSpace(c.QueryParam("category")); cat != "" {
		db = db.Where("category = ?", cat)
	}
	if err := db.Order("category, name").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query settings", err.Error())
	}
	return ok(c, rows)
}

func updateSetting(appCtx app.AppContext) echo.HandlerFunc {
	return func(c echo.Context) error {
		var payload settingPayload
		if err := c.Bind(&payload); err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse setting", nil)
		}
		payload.Category = strings.TrimSpace(payload.Category)
		payload.Name = strings.TrimSpace(payload.Name)
		if payload.Category == "" || payload.Name == "" {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Category and name are required", nil)
		}
		if err := appCtx.ConfigMgr().Set(payload.Category, payload.Name, payload.Value); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save setting", err.Error())
		}
		return ok(c, map[string]interface{}{
			"category": payload.Category,
			"name":     payload.Name,
			"value":    appCtx.GetSettingsStringValue(payload.Category, payload.Name),
		})
	}
}
