package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/talkincode/digistore/internal/domain"
)

// IsDuplicateKey reports whether err is a unique-constraint violation from
// any supported database backend. Not every backend/driver combination
// surfaces gorm.ErrDuplicatedKey, hence the message fallbacks.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) GetWithShop(ctx context.Context, id int64) (*domain.Product, *domain.Shop, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, nil, err
	}
	var shop domain.Shop
	if err := r.db.WithContext(ctx).First(&shop, p.ShopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &p, nil, nil
		}
		return nil, nil, err
	}
	return &p, &shop, nil
}

func (r *GormProductRepository) ClearFileURL(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"file_url":   "",
			"updated_at": time.Now(),
		}).Error
}

func (r *GormProductRepository) ListActiveWithFiles(ctx context.Context, limit int) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.db.WithContext(ctx).
		Where("active = ? AND file_url <> ''", true).
		Limit(limit).Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

type GormWebhookEventRepository struct {
	db *gorm.DB
}

func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

func (r *GormWebhookEventRepository) Record(ctx context.Context, ev *domain.WebhookEvent) (bool, error) {
	err := r.db.WithContext(ctx).Create(ev).Error
	if err == nil {
		return false, nil
	}
	if !IsDuplicateKey(err) {
		return false, err
	}
	var existing domain.WebhookEvent
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", ev.Provider, ev.ProviderEventID).
		First(&existing).Error; err != nil {
		return false, err
	}
	ev.ID = existing.ID
	// Only a cleanly processed prior delivery counts as a duplicate; a
	// failed one must be reprocessed on redelivery.
	return existing.ProcessedAt != nil && existing.ProcessingError == "", nil
}

func (r *GormWebhookEventRepository) MarkProcessed(ctx context.Context, id int64, procErr string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.WebhookEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_at":     &now,
			"processing_error": procErr,
		}).Error
}

func (r *GormWebhookEventRepository) PruneBefore(ctx context.Context, horizon time.Time) error {
	return r.db.WithContext(ctx).Where("created_at < ?", horizon).Delete(&domain.WebhookEvent{}).Error
}
