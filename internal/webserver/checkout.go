package webserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talkincode/digistore/internal/checkout"
)

// handleCheckout creates a hosted payment session for a product and returns
// the redirect URL.
func (s *Server) handleCheckout(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid product id",
		})
	}

	url, err := s.checkout.CreateSession(c.Request().Context(), id)
	switch {
	case errors.Is(err, checkout.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "product not found",
		})
	case errors.Is(err, checkout.ErrNoFileAvailable):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "product has no downloadable file",
		})
	case errors.Is(err, checkout.ErrFileUnreachable):
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error": "product file is unreachable, checkout unavailable",
		})
	case err != nil:
		zap.L().Error("checkout session creation failed",
			zap.Int64("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error": "payment gateway error",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"url": url})
}

// handleCheckoutSession reports payment status for a session, for the
// post-payment success page to poll.
func (s *Server) handleCheckoutSession(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "missing session id",
		})
	}
	sess, err := s.gateway.GetSession(c.Request().Context(), id)
	if err != nil {
		zap.L().Warn("session lookup failed", zap.String("session_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "session not found",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id":     sess.ID,
		"payment_status": sess.PaymentStatus,
	})
}
