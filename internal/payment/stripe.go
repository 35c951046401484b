package payment

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(apiKey, webhookSecret string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Name),
					},
				},
			},
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	s, err := session.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}
	return fromStripeSession(s), nil
}

func (g *StripeGateway) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(id, params)
	if err != nil {
		return nil, errors.Wrap(err, "retrieve checkout session")
	}
	return fromStripeSession(s), nil
}

func (g *StripeGateway) FindSessionByPaymentIntent(ctx context.Context, paymentIntentID string) (*Session, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	iter := session.List(params)
	for iter.Next() {
		return fromStripeSession(iter.CheckoutSession()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "list checkout sessions by payment intent")
	}
	return nil, nil
}

func (g *StripeGateway) VerifyEvent(payload []byte, sigHeader string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Wrap(err, "verify webhook signature")
	}
	return classifyEvent(ev.ID, string(ev.Type), ev.Data.Raw)
}

// classifyEvent decodes the provider payload for the event types the
// dispatcher acts on. Unknown types pass through with only ID and Type set.
func classifyEvent(id, typ string, raw []byte) (*Event, error) {
	out := &Event{ID: id, Type: typ, Raw: raw}
	switch typ {
	case EventCheckoutCompleted, EventAsyncPaymentSucceeded, EventAsyncPaymentFailed:
		var s struct {
			ID              string `json:"id"`
			PaymentStatus   string `json:"payment_status"`
			PaymentIntent   string `json:"payment_intent"`
			CustomerEmail   string `json:"customer_email"`
			CustomerDetails struct {
				Email string `json:"email"`
			} `json:"customer_details"`
			Metadata map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.Wrap(err, "decode checkout session payload")
		}
		email := s.CustomerEmail
		if email == "" {
			email = s.CustomerDetails.Email
		}
		out.Session = &Session{
			ID:              s.ID,
			PaymentStatus:   s.PaymentStatus,
			PaymentIntentID: s.PaymentIntent,
			CustomerEmail:   email,
			Metadata:        s.Metadata,
		}
		out.PaymentIntentID = s.PaymentIntent
	case EventPaymentFailed:
		var pi struct {
			ID               string `json:"id"`
			LastPaymentError struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
		}
		if err := json.Unmarshal(raw, &pi); err != nil {
			return nil, errors.Wrap(err, "decode payment intent payload")
		}
		out.PaymentIntentID = pi.ID
		out.FailureMessage = pi.LastPaymentError.Message
	case EventChargeSucceeded:
		var ch struct {
			ID            string `json:"id"`
			PaymentIntent string `json:"payment_intent"`
		}
		if err := json.Unmarshal(raw, &ch); err != nil {
			return nil, errors.Wrap(err, "decode charge payload")
		}
		out.PaymentIntentID = ch.PaymentIntent
	}
	return out, nil
}

func fromStripeSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:            s.ID,
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
		URL:           s.URL,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out
}
