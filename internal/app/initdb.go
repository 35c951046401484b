package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/pkg/common"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "digistore"

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash default super admin password", zap.Error(err))
		return
	}

	var operator domain.SysOpr
	err = a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     "N/A",
			Username:  superUsername,
			Password:  string(hashedPassword),
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetLevel := !strings.EqualFold(operator.Level, "super")
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)
	if !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetLevel {
		updates["level"] = "super"
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}
	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
	}
}

func (a *Application) checkSettings() {
	defaults := []domain.SysConfig{
		{Category: "system", Name: "SiteTitle", Value: "digistore", Remark: "storefront display title"},
		{Category: "checkout", Name: "FallbackEmail", Value: a.appConfig.Checkout.FallbackEmail, Remark: "customer email placeholder when the gateway omits one"},
		{Category: "checkout", Name: "ProbeTimeout", Value: "5", Remark: "file existence probe timeout in seconds"},
	}
	for _, d := range defaults {
		var existing domain.SysConfig
		err := a.gormDB.Where("category = ? AND name = ?", d.Category, d.Name).First(&existing).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		d.ID = common.UUIDint64()
		d.UpdatedAt = time.Now()
		if err := a.gormDB.Create(&d).Error; err != nil {
			zap.L().Error("failed to seed setting", zap.String("name", d.Name), zap.Error(err))
		}
	}
}
