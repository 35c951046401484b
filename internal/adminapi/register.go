// Package adminapi implements the operator-facing management API: shop and
// product CRUD, order browsing/export and operator authentication.
package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/talkincode/digistore/internal/app"
)

// Register mounts the admin routes. public carries unauthenticated routes
// (login); protected is expected to sit behind the JWT middleware.
func Register(public, protected *echo.Group, appCtx app.AppContext) {
	injectDB := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(dbContextKey, appCtx.DB())
			return next(c)
		}
	}
	public.Use(injectDB)
	protected.Use(injectDB)

	public.POST("/auth/login", login(appCtx))

	registerShopRoutes(protected)
	registerProductRoutes(protected)
	registerOrderRoutes(protected)
	registerSettingsRoutes(protected, appCtx)
}
