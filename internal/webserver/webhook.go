package webserver

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/internal/payment"
	"github.com/talkincode/digistore/pkg/common"
	"github.com/talkincode/digistore/pkg/metrics"
)

const webhookBodyLimit = 1024 * 1024 // 1MiB

// handleStripeWebhook authenticates, classifies and dispatches gateway
// events.
//
// Signature failures and malformed bodies are permanent rejections (400).
// Handler failures return 500 so the gateway redelivers the event later;
// that redelivery is the system's only retry mechanism.
func (s *Server) handleStripeWebhook(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, webhookBodyLimit)
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "unable to read request body",
		})
	}

	sig := c.Request().Header.Get("Stripe-Signature")
	event, err := s.gateway.VerifyEvent(payload, sig)
	if err != nil {
		metrics.Counter(metrics.WebhookEventFailed)
		zap.L().Warn("webhook signature verification failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid signature",
		})
	}
	metrics.Counter(metrics.WebhookEventReceived)

	ctx := c.Request().Context()
	record := &domain.WebhookEvent{
		ID:              common.UUIDint64(),
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(event.Raw),
		SignatureValid:  true,
		CreatedAt:       time.Now(),
	}
	already, err := s.events.Record(ctx, record)
	if err != nil {
		// The event log is an audit aid; a logging failure must not block
		// reconciliation, which has its own idempotency guard.
		zap.L().Error("failed to record webhook event", zap.Error(err))
	} else if already {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"received": true, "type": event.Type, "status": "duplicate",
		})
	}

	if err := s.dispatchEvent(ctx, event); err != nil {
		_ = s.events.MarkProcessed(ctx, record.ID, err.Error())
		zap.L().Error("webhook event handling failed",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "event handling failed",
		})
	}
	_ = s.events.MarkProcessed(ctx, record.ID, "")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"received": true, "type": event.Type,
	})
}

func (s *Server) dispatchEvent(ctx context.Context, event *payment.Event) error {
	switch event.Type {
	case payment.EventCheckoutCompleted, payment.EventAsyncPaymentSucceeded:
		return s.recon.Reconcile(ctx, event.Session)

	case payment.EventAsyncPaymentFailed:
		zap.L().Warn("async payment failed",
			zap.String("event_id", event.ID),
			zap.String("payment_intent", event.PaymentIntentID))
		return nil

	case payment.EventPaymentFailed:
		zap.L().Warn("payment intent failed",
			zap.String("payment_intent", event.PaymentIntentID),
			zap.String("reason", event.FailureMessage))
		return nil

	case payment.EventChargeSucceeded:
		if event.PaymentIntentID == "" {
			return nil
		}
		sess, err := s.gateway.FindSessionByPaymentIntent(ctx, event.PaymentIntentID)
		if err != nil {
			return errors.Wrap(err, "lookup session by payment intent")
		}
		if sess == nil {
			// Charges created outside hosted checkout have no session;
			// redelivery could never resolve this, so acknowledge.
			metrics.Counter(metrics.WebhookChargeOrphan)
			zap.L().Warn("no checkout session for charge",
				zap.String("payment_intent", event.PaymentIntentID))
			return nil
		}
		return s.recon.Reconcile(ctx, sess)

	default:
		zap.L().Info("unhandled webhook event type",
			zap.String("type", event.Type),
			zap.String("event_id", event.ID))
		return nil
	}
}
