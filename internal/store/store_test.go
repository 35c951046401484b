package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/digistore/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func TestOrderCreate_DuplicateSessionID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	first := &domain.Order{ID: 1, ProductID: 10, SessionID: "cs_test_1", CustomerEmail: "a@b.c", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, first))

	second := &domain.Order{ID: 2, ProductID: 10, SessionID: "cs_test_1", CustomerEmail: "a@b.c", CreatedAt: time.Now()}
	err := repo.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))

	got, err := repo.GetBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func TestIsDuplicateKey_MessageFallbacks(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKey(assertErr("UNIQUE constraint failed: orders.session_id")))
	assert.True(t, IsDuplicateKey(assertErr(`duplicate key value violates unique constraint "idx_orders_session_id"`)))
	assert.True(t, IsDuplicateKey(assertErr("Error 1062: Duplicate entry 'cs_1' for key 'session_id'")))
	assert.False(t, IsDuplicateKey(assertErr("connection refused")))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestProductClearFileURL(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := &domain.Product{ID: 100, ShopID: 1, Name: "Preset Pack", Slug: "preset-pack",
		Price: 9.99, FileURL: "https://cdn.example.com/pack.zip", Active: true}
	require.NoError(t, db.Create(p).Error)

	require.NoError(t, repo.ClearFileURL(ctx, p.ID))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FileURL)
}

func TestProductGetWithShop(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&domain.Shop{ID: 7, Name: "Soundsmith", Slug: "soundsmith", Status: "enabled"}).Error)
	require.NoError(t, db.Create(&domain.Product{ID: 70, ShopID: 7, Name: "Drum Kit", Slug: "drum-kit", Price: 19}).Error)

	p, shop, err := repo.GetWithShop(ctx, 70)
	require.NoError(t, err)
	require.NotNil(t, shop)
	assert.Equal(t, "Soundsmith", shop.Name)
	assert.Equal(t, "Drum Kit", p.Name)

	// orphan product: shop row missing, still returns the product
	require.NoError(t, db.Create(&domain.Product{ID: 71, ShopID: 999, Name: "Orphan", Slug: "orphan", Price: 1}).Error)
	p, shop, err = repo.GetWithShop(ctx, 71)
	require.NoError(t, err)
	assert.Nil(t, shop)
	assert.Equal(t, "Orphan", p.Name)
}

func TestProductListActiveWithFiles(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&domain.Product{ID: 1, ShopID: 1, Slug: "a", FileURL: "https://x/a", Active: true}).Error)
	require.NoError(t, db.Create(&domain.Product{ID: 2, ShopID: 1, Slug: "b", FileURL: "", Active: true}).Error)
	require.NoError(t, db.Create(&domain.Product{ID: 3, ShopID: 1, Slug: "c", FileURL: "https://x/c", Active: false}).Error)

	got, err := repo.ListActiveWithFiles(ctx, 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestWebhookEventRecord_Dedupe(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormWebhookEventRepository(db)
	ctx := context.Background()

	ev := &domain.WebhookEvent{ID: 1, Provider: "stripe", ProviderEventID: "evt_1",
		EventType: "checkout.session.completed", SignatureValid: true, CreatedAt: time.Now()}
	already, err := repo.Record(ctx, ev)
	require.NoError(t, err)
	assert.False(t, already)

	// redelivery before processing completes is not a duplicate
	redelivery := &domain.WebhookEvent{ID: 2, Provider: "stripe", ProviderEventID: "evt_1",
		EventType: "checkout.session.completed", SignatureValid: true, CreatedAt: time.Now()}
	already, err = repo.Record(ctx, redelivery)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, int64(1), redelivery.ID)

	require.NoError(t, repo.MarkProcessed(ctx, 1, ""))
	third := &domain.WebhookEvent{ID: 3, Provider: "stripe", ProviderEventID: "evt_1",
		EventType: "checkout.session.completed", SignatureValid: true, CreatedAt: time.Now()}
	already, err = repo.Record(ctx, third)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestWebhookEventRecord_FailedDeliveryReprocessed(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormWebhookEventRepository(db)
	ctx := context.Background()

	ev := &domain.WebhookEvent{ID: 1, Provider: "stripe", ProviderEventID: "evt_2",
		EventType: "checkout.session.completed", SignatureValid: true, CreatedAt: time.Now()}
	_, err := repo.Record(ctx, ev)
	require.NoError(t, err)
	require.NoError(t, repo.MarkProcessed(ctx, 1, "product no longer exists"))

	redelivery := &domain.WebhookEvent{ID: 2, Provider: "stripe", ProviderEventID: "evt_2",
		EventType: "checkout.session.completed", SignatureValid: true, CreatedAt: time.Now()}
	already, err := repo.Record(ctx, redelivery)
	require.NoError(t, err)
	assert.False(t, already)
}

func TestWebhookEventPruneBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormWebhookEventRepository(db)
	ctx := context.Background()

	old := &domain.WebhookEvent{ID: 1, Provider: "stripe", ProviderEventID: "evt_old",
		CreatedAt: time.Now().Add(-100 * 24 * time.Hour)}
	fresh := &domain.WebhookEvent{ID: 2, Provider: "stripe", ProviderEventID: "evt_new",
		CreatedAt: time.Now()}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Create(fresh).Error)

	require.NoError(t, repo.PruneBefore(ctx, time.Now().Add(-90*24*time.Hour)))

	var count int64
	require.NoError(t, db.Model(&domain.WebhookEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
