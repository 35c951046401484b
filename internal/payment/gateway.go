// Package payment abstracts the hosted-checkout payment provider.
package payment

import "context"

// PaymentStatusPaid is the gateway-reported status that allows an order to
// be created.
const PaymentStatusPaid = "paid"

// Recognized gateway event types. Anything else is acknowledged as a no-op.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventPaymentFailed         = "payment_intent.payment_failed"
	EventChargeSucceeded       = "charge.succeeded"
)

// Session is the gateway-neutral view of a hosted checkout session.
type Session struct {
	ID              string
	PaymentStatus   string
	PaymentIntentID string
	CustomerEmail   string
	Metadata        map[string]string
	URL             string
	AmountTotal     int64
	Currency        string
}

// Event is a verified webhook notification from the gateway.
type Event struct {
	ID   string
	Type string
	// Session is populated for checkout.session.* events.
	Session *Session
	// PaymentIntentID is populated for payment_intent and charge events.
	PaymentIntentID string
	FailureMessage  string
	Raw             []byte
}

// SessionRequest describes the hosted checkout session to create. Metadata
// must carry the product correlation; it is the only link reconciliation
// can use later.
type SessionRequest struct {
	Name        string
	Description string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Gateway is the payment provider port. The production implementation is
// StripeGateway; tests substitute fakes.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)

	// FindSessionByPaymentIntent returns (nil, nil) when no checkout
	// session references the payment intent, e.g. a charge created outside
	// hosted checkout.
	FindSessionByPaymentIntent(ctx context.Context, paymentIntentID string) (*Session, error)

	// VerifyEvent authenticates the raw webhook payload against the shared
	// secret and classifies it. An error means the event must be rejected
	// permanently (client error, no redelivery).
	VerifyEvent(payload []byte, sigHeader string) (*Event, error)
}
