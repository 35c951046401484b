package fulfillment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/internal/payment"
	"github.com/talkincode/digistore/internal/store"
)

type fakeSender struct {
	sent []*domain.Order
	err  error
}

func (s *fakeSender) SendOrderConfirmation(order *domain.Order, shop *domain.Shop) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, order)
	return nil
}

func setupReconcilerTest(t *testing.T) (*Reconciler, *gorm.DB, *fakeSender) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	require.NoError(t, db.Create(&domain.Shop{ID: 1, Name: "Soundsmith", Slug: "soundsmith", Status: "enabled"}).Error)
	require.NoError(t, db.Create(&domain.Product{ID: 42, ShopID: 1, Name: "Drum Kit", Slug: "drum-kit",
		Price: 19.99, FileURL: "https://cdn.example.com/kit.zip", Active: true}).Error)

	sender := &fakeSender{}
	recon := NewReconciler(
		store.NewGormProductRepository(db),
		store.NewGormOrderRepository(db),
		sender, nil, "anonymous@checkout.local")
	return recon, db, sender
}

func paidSession(id string) *payment.Session {
	return &payment.Session{
		ID:            id,
		PaymentStatus: payment.PaymentStatusPaid,
		CustomerEmail: "buyer@example.com",
		Metadata:      map[string]string{"productId": "42"},
	}
}

func countOrders(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&n).Error)
	return n
}

func TestReconcile_CreatesOrderOnce(t *testing.T) {
	recon, db, sender := setupReconcilerTest(t)
	ctx := context.Background()

	require.NoError(t, recon.Reconcile(ctx, paidSession("cs_1")))
	assert.Equal(t, int64(1), countOrders(t, db))

	var order domain.Order
	require.NoError(t, db.Where("session_id = ?", "cs_1").First(&order).Error)
	assert.Equal(t, int64(42), order.ProductID)
	assert.Equal(t, "Drum Kit", order.ProductName)
	assert.Equal(t, 19.99, order.Price)
	assert.Equal(t, "buyer@example.com", order.CustomerEmail)
	require.Len(t, sender.sent, 1)
}

func TestReconcile_DuplicateDeliveryIsNoop(t *testing.T) {
	recon, db, sender := setupReconcilerTest(t)
	ctx := context.Background()

	require.NoError(t, recon.Reconcile(ctx, paidSession("cs_1")))
	require.NoError(t, recon.Reconcile(ctx, paidSession("cs_1")))
	require.NoError(t, recon.Reconcile(ctx, paidSession("cs_1")))

	assert.Equal(t, int64(1), countOrders(t, db))
	assert.Len(t, sender.sent, 1)
}

func TestReconcile_DistinctSessionsDistinctOrders(t *testing.T) {
	recon, db, _ := setupReconcilerTest(t)
	ctx := context.Background()

	require.NoError(t, recon.Reconcile(ctx, paidSession("cs_1")))
	require.NoError(t, recon.Reconcile(ctx, paidSession("cs_2")))
	assert.Equal(t, int64(2), countOrders(t, db))
}

func TestReconcile_UnpaidSessionSkipped(t *testing.T) {
	recon, db, sender := setupReconcilerTest(t)

	sess := paidSession("cs_1")
	sess.PaymentStatus = "unpaid"
	require.NoError(t, recon.Reconcile(context.Background(), sess))
	assert.Equal(t, int64(0), countOrders(t, db))
	assert.Empty(t, sender.sent)
}

func TestReconcile_MissingCorrelation(t *testing.T) {
	recon, db, _ := setupReconcilerTest(t)
	ctx := context.Background()

	sess := paidSession("cs_1")
	sess.Metadata = nil
	assert.ErrorIs(t, recon.Reconcile(ctx, sess), ErrMissingCorrelation)

	sess = paidSession("cs_2")
	sess.Metadata = map[string]string{"productId": "not-a-number"}
	assert.ErrorIs(t, recon.Reconcile(ctx, sess), ErrMissingCorrelation)

	assert.Equal(t, int64(0), countOrders(t, db))
}

func TestReconcile_ProductGone(t *testing.T) {
	recon, db, _ := setupReconcilerTest(t)

	sess := paidSession("cs_1")
	sess.Metadata = map[string]string{"productId": "777"}
	assert.ErrorIs(t, recon.Reconcile(context.Background(), sess), ErrProductGone)
	assert.Equal(t, int64(0), countOrders(t, db))
}

func TestReconcile_FallbackEmail(t *testing.T) {
	recon, db, _ := setupReconcilerTest(t)

	sess := paidSession("cs_1")
	sess.CustomerEmail = ""
	require.NoError(t, recon.Reconcile(context.Background(), sess))

	var order domain.Order
	require.NoError(t, db.Where("session_id = ?", "cs_1").First(&order).Error)
	assert.Equal(t, "anonymous@checkout.local", order.CustomerEmail)
}

func TestReconcile_SenderFailureDoesNotFailEvent(t *testing.T) {
	recon, db, sender := setupReconcilerTest(t)
	sender.err = errors.New("smtp connection refused")

	require.NoError(t, recon.Reconcile(context.Background(), paidSession("cs_1")))
	assert.Equal(t, int64(1), countOrders(t, db))
}
