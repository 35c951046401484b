package app

import (
	"errors"
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/pkg/common"
)

// ConfigManager reads DB-backed settings with a short-lived cache on top.
type ConfigManager struct {
	app     *Application
	cache   map[string]string
	cacheAt time.Time
	mu      sync.Mutex
}

const settingsCacheTTL = 30 * time.Second

func NewConfigManager(a *Application) *ConfigManager {
	return &ConfigManager{app: a, cache: make(map[string]string)}
}

func (cm *ConfigManager) getValue(category, name string) string {
	key := category + "/" + name
	cm.mu.Lock()
	if time.Since(cm.cacheAt) < settingsCacheTTL {
		if v, ok := cm.cache[key]; ok {
			cm.mu.Unlock()
			return v
		}
	} else {
		cm.cache = make(map[string]string)
		cm.cacheAt = time.Now()
	}
	cm.mu.Unlock()

	var cfg domain.SysConfig
	err := cm.app.gormDB.Where("category = ? AND name = ?", category, name).First(&cfg).Error
	if err != nil {
		return ""
	}

	cm.mu.Lock()
	cm.cache[key] = cfg.Value
	cm.mu.Unlock()
	return cfg.Value
}

func (cm *ConfigManager) GetString(category, name string) string {
	return cm.getValue(category, name)
}

func (cm *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(cm.getValue(category, name))
}

func (cm *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(cm.getValue(category, name))
}

// Set upserts a settings row and invalidates the cache entry.
func (cm *ConfigManager) Set(category, name, value string) error {
	var cfg domain.SysConfig
	err := cm.app.gormDB.Where("category = ? AND name = ?", category, name).First(&cfg).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = cm.app.gormDB.Create(&domain.SysConfig{
			ID:        common.UUIDint64(),
			Category:  category,
			Name:      name,
			Value:     value,
			UpdatedAt: time.Now(),
		}).Error
	case err == nil:
		err = cm.app.gormDB.Model(&domain.SysConfig{}).Where("id = ?", cfg.ID).
			Updates(map[string]interface{}{"value": value, "updated_at": time.Now()}).Error
	}
	if err != nil {
		zap.L().Error("failed to save setting", zap.String("name", name), zap.Error(err))
		return err
	}

	cm.mu.Lock()
	delete(cm.cache, category+"/"+name)
	cm.mu.Unlock()
	return nil
}
