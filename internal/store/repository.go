package store

import (
	"context"
	"time"

	"github.com/talkincode/digistore/internal/domain"
)

// ProductRepository handles product data access for checkout and fulfillment.
type ProductRepository interface {
	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// GetWithShop retrieves a product and its owning shop. The shop may be
	// nil when the owning shop row is gone.
	GetWithShop(ctx context.Context, id int64) (*domain.Product, *domain.Shop, error)

	// ClearFileURL removes the product's file reference, making it
	// unpurchasable until an owner re-uploads a file.
	ClearFileURL(ctx context.Context, id int64) error

	// ListActiveWithFiles retrieves active products that still carry a file
	// reference, for the scheduled re-probe job.
	ListActiveWithFiles(ctx context.Context, limit int) ([]*domain.Product, error)
}

// OrderRepository handles order data access.
type OrderRepository interface {
	// GetBySessionID retrieves an order by its external payment-session id
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)

	// Create inserts a new order. Callers must treat a unique violation on
	// session_id as "already exists" (see IsDuplicateKey).
	Create(ctx context.Context, order *domain.Order) error
}

// WebhookEventRepository persists inbound gateway events for idempotent
// processing and auditing.
type WebhookEventRepository interface {
	// Record inserts the event row. When the (provider, event id) pair
	// already exists, ev.ID is rewritten to the stored row's ID and already
	// reports whether a previous delivery completed without error.
	Record(ctx context.Context, ev *domain.WebhookEvent) (already bool, err error)

	// MarkProcessed stamps the row with the processing outcome. An empty
	// procErr marks success.
	MarkProcessed(ctx context.Context, id int64, procErr string) error

	// PruneBefore removes event rows created before the retention horizon.
	PruneBefore(ctx context.Context, horizon time.Time) error
}
