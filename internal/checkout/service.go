// Package checkout validates product purchasability and creates hosted
// payment sessions.
package checkout

import (
	"context"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/digistore/config"
	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/internal/fileprobe"
	"github.com/talkincode/digistore/internal/payment"
	"github.com/talkincode/digistore/internal/store"
	"github.com/talkincode/digistore/pkg/metrics"
)

// MetadataProductKey is the session metadata key carrying the product id.
// It is the sole correlation between a checkout session and a product, so
// it must be set on every session this service creates.
const MetadataProductKey = "productId"

type Service struct {
	products store.ProductRepository
	gateway  payment.Gateway
	prober   fileprobe.Prober
	stripe   config.StripeConfig
}

func NewService(products store.ProductRepository, gateway payment.Gateway, prober fileprobe.Prober, stripeCfg config.StripeConfig) *Service {
	return &Service{
		products: products,
		gateway:  gateway,
		prober:   prober,
		stripe:   stripeCfg,
	}
}

// ValidateProduct confirms the product exists, carries a file reference and
// that the file is currently retrievable. A failed probe clears the stored
// file URL (compensating write) and rejects the checkout; the product stays
// unpurchasable until an owner re-uploads a file.
func (s *Service) ValidateProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load product")
	}

	if product.FileURL == "" {
		return nil, ErrNoFileAvailable
	}

	if err := s.prober.Probe(ctx, product.FileURL); err != nil {
		zap.L().Warn("product file unreachable, clearing file url",
			zap.Int64("product_id", product.ID),
			zap.String("file_url", product.FileURL),
			zap.Error(err))
		if clearErr := s.products.ClearFileURL(ctx, product.ID); clearErr != nil {
			zap.L().Error("failed to clear product file url",
				zap.Int64("product_id", product.ID), zap.Error(clearErr))
		}
		metrics.Counter(metrics.CheckoutRejected)
		return nil, ErrFileUnreachable
	}

	return product, nil
}

// CreateSession validates the product and requests a hosted checkout
// session from the gateway. Returns the redirect URL the buyer completes
// payment at.
func (s *Service) CreateSession(ctx context.Context, productID int64) (string, error) {
	metrics.Counter(metrics.CheckoutAttempt)

	product, err := s.ValidateProduct(ctx, productID)
	if err != nil {
		return "", err
	}

	sess, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		Name:        product.Name,
		Description: product.Description,
		AmountCents: int64(math.Round(product.Price * 100)),
		Currency:    s.stripe.Currency,
		SuccessURL:  s.stripe.SuccessURL,
		CancelURL:   s.stripe.CancelURL,
		Metadata: map[string]string{
			MetadataProductKey: strconv.FormatInt(product.ID, 10),
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "create payment session")
	}

	zap.L().Info("checkout session created",
		zap.Int64("product_id", product.ID),
		zap.String("session_id", sess.ID))
	return sess.URL, nil
}
