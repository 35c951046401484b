package domain

import "time"

// SysConfig is a DB-backed settings row managed by the ConfigManager.
type SysConfig struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Category  string    `gorm:"size:64;uniqueIndex:ux_sys_config_category_name,priority:1" json:"category"`
	Name      string    `gorm:"size:128;uniqueIndex:ux_sys_config_category_name,priority:2" json:"name"`
	Value     string    `gorm:"size:255" json:"value"`
	Remark    string    `gorm:"size:255" json:"remark"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SysOpr is an operator account for the admin API.
type SysOpr struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Realname  string    `gorm:"size:128" json:"realname"`
	Mobile    string    `gorm:"size:32" json:"mobile"`
	Email     string    `gorm:"size:200" json:"email"`
	Username  string    `gorm:"size:64;uniqueIndex" json:"username"`
	Password  string    `gorm:"size:128" json:"-"`
	Level     string    `gorm:"size:32" json:"level"` // 'super' or 'opr'
	Status    string    `gorm:"size:32" json:"status"`
	Remark    string    `gorm:"size:255" json:"remark"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SysOprLog is an audit trail row, written from event bus subscribers.
type SysOprLog struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	OprName   string    `gorm:"size:64;index" json:"opr_name"`
	OptAction string    `gorm:"size:64;index" json:"opt_action"`
	OptDesc   string    `gorm:"size:1024" json:"opt_desc"`
	OptTime   time.Time `gorm:"index" json:"opt_time"`
}
