package fulfillment

import (
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/pkg/common"
)

// RegisterAuditHooks subscribes audit-log writers to fulfillment topics.
// Subscribers run on the publisher's goroutine; they only write log rows
// and never return errors into the reconciliation path.
func RegisterAuditHooks(bus EventBus.Bus, db *gorm.DB) error {
	return bus.Subscribe(TopicOrderCreated, func(order *domain.Order) {
		entry := domain.SysOprLog{
			ID:        common.UUIDint64(),
			OprName:   "system",
			OptAction: "order_created",
			OptDesc: fmt.Sprintf("order %d created for product %q (session %s)",
				order.ID, order.ProductName, order.SessionID),
			OptTime: time.Now(),
		}
		if err := db.Create(&entry).Error; err != nil {
			zap.L().Warn("failed to write order audit log", zap.Error(err))
		}
	})
}
