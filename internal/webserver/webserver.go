// Package webserver hosts the public API (checkout initiation and the
// payment gateway webhook) and mounts the admin API.
package webserver

import (
	"context"
	"fmt"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/talkincode/digistore/internal/adminapi"
	"github.com/talkincode/digistore/internal/app"
	"github.com/talkincode/digistore/internal/checkout"
	"github.com/talkincode/digistore/internal/fulfillment"
	"github.com/talkincode/digistore/internal/payment"
	"github.com/talkincode/digistore/internal/ratelimit"
	"github.com/talkincode/digistore/internal/store"
	"github.com/talkincode/digistore/pkg/common"
)

type Server struct {
	app      app.AppContext
	echo     *echo.Echo
	checkout *checkout.Service
	gateway  payment.Gateway
	recon    *fulfillment.Reconciler
	events   store.WebhookEventRepository
	limiter  *ratelimit.Limiter
}

func NewServer(
	appCtx app.AppContext,
	checkoutSvc *checkout.Service,
	gateway payment.Gateway,
	recon *fulfillment.Reconciler,
	events store.WebhookEventRepository,
	limiter *ratelimit.Limiter,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(zapLogger())

	cfg := appCtx.Config()
	cookieKey := common.Sha256HashWithSalt(cfg.Web.Secret, common.GetSecretSalt())
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cookieKey))))

	s := &Server{
		app:      appCtx,
		echo:     e,
		checkout: checkoutSvc,
		gateway:  gateway,
		recon:    recon,
		events:   events,
		limiter:  limiter,
	}
	s.registerRoutes()
	return s
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes() {
	cfg := s.app.Config()

	api := s.echo.Group("/api")
	api.POST("/stripe/webhook", s.handleStripeWebhook)
	api.POST("/checkout/:id", s.handleCheckout, s.rateLimitMiddleware)
	api.GET("/checkout/session/:id", s.handleCheckoutSession)

	admin := api.Group("/admin", echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.Web.JwtSecret),
	}))
	adminapi.Register(api, admin, s.app)
}

func (s *Server) Start() error {
	cfg := s.app.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.L().Info("web server listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
