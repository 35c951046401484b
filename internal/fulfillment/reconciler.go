// Package fulfillment turns gateway payment events into durable orders.
package fulfillment

import (
	"context"
	"strconv"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/internal/mailer"
	"github.com/talkincode/digistore/internal/payment"
	"github.com/talkincode/digistore/internal/store"
	"github.com/talkincode/digistore/pkg/common"
	"github.com/talkincode/digistore/pkg/metrics"
)

// TopicOrderCreated is published on the event bus after an order is durably
// created. Subscribers receive the new *domain.Order.
const TopicOrderCreated = "order:created"

var (
	// ErrMissingCorrelation: the session carries no usable product
	// correlation metadata. Surfaced as a server error so the gateway
	// redelivers the event.
	ErrMissingCorrelation = errors.New("session metadata missing product correlation")

	// ErrProductGone: the product was deleted between session creation and
	// payment. Also retryable via gateway redelivery.
	ErrProductGone = errors.New("product no longer exists")
)

// Reconciler converts one checkout session into at most one order and
// triggers a best-effort purchase confirmation.
type Reconciler struct {
	products      store.ProductRepository
	orders        store.OrderRepository
	sender        mailer.Sender
	bus           EventBus.Bus
	fallbackEmail string
}

func NewReconciler(products store.ProductRepository, orders store.OrderRepository, sender mailer.Sender, bus EventBus.Bus, fallbackEmail string) *Reconciler {
	return &Reconciler{
		products:      products,
		orders:        orders,
		sender:        sender,
		bus:           bus,
		fallbackEmail: fallbackEmail,
	}
}

type sessionMetadata struct {
	ProductID string `mapstructure:"productId"`
}

// Reconcile implements idempotent order creation for one checkout session.
//
// The unique index on orders.session_id is the only concurrency guard: when
// two deliveries for the same session race, one insert succeeds and the
// loser sees a duplicate-key error, which is treated as "already exists"
// rather than a failure.
func (r *Reconciler) Reconcile(ctx context.Context, sess *payment.Session) error {
	if sess == nil {
		return errors.New("nil checkout session")
	}

	if sess.PaymentStatus != payment.PaymentStatusPaid {
		// The gateway redelivers session events once payment settles.
		zap.L().Info("session not paid, skipping reconciliation",
			zap.String("session_id", sess.ID),
			zap.String("payment_status", sess.PaymentStatus))
		return nil
	}

	var meta sessionMetadata
	if err := mapstructure.Decode(sess.Metadata, &meta); err != nil {
		return errors.Wrapf(ErrMissingCorrelation, "session %s: %v", sess.ID, err)
	}
	productID, err := strconv.ParseInt(meta.ProductID, 10, 64)
	if err != nil || productID <= 0 {
		return errors.Wrapf(ErrMissingCorrelation, "session %s", sess.ID)
	}

	// Idempotency check before touching anything else.
	existing, err := r.orders.GetBySessionID(ctx, sess.ID)
	if err == nil && existing != nil {
		zap.L().Info("order already exists for session",
			zap.String("session_id", sess.ID),
			zap.Int64("order_id", existing.ID))
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "lookup order by session id")
	}

	product, shop, err := r.products.GetWithShop(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrProductGone, "product %d", productID)
	}
	if err != nil {
		return errors.Wrap(err, "load product")
	}

	email := sess.CustomerEmail
	if email == "" {
		email = r.fallbackEmail
	}

	order := &domain.Order{
		ID:            common.UUIDint64(),
		ProductID:     product.ID,
		ProductName:   product.Name, // captured now, immune to later price/name edits
		Price:         product.Price,
		CustomerEmail: email,
		SessionID:     sess.ID,
		CreatedAt:     time.Now(),
	}
	if err := r.orders.Create(ctx, order); err != nil {
		if store.IsDuplicateKey(err) {
			// Lost the insert race against a concurrent delivery.
			zap.L().Info("duplicate order insert, session already fulfilled",
				zap.String("session_id", sess.ID))
			return nil
		}
		return errors.Wrap(err, "create order")
	}

	metrics.Counter(metrics.OrderCreated)
	zap.L().Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("session_id", sess.ID),
		zap.String("customer_email", email))

	if r.bus != nil {
		r.bus.Publish(TopicOrderCreated, order)
	}

	// The order row is the source of truth for fulfillment; notification is
	// a side effect and must never fail the event.
	if err := r.sender.SendOrderConfirmation(order, shop); err != nil {
		metrics.Counter(metrics.NotifyFailed)
		zap.L().Error("order confirmation send failed",
			zap.Int64("order_id", order.ID),
			zap.String("email", email),
			zap.Error(err))
	}
	return nil
}
