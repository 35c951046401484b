package domain

import "time"

// Shop is a storefront owned by an operator. Referenced by products and by
// authorization checks in the admin API.
type Shop struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	OwnerID     int64     `gorm:"index" json:"owner_id"`
	Name        string    `gorm:"index" json:"name"`
	Slug        string    `gorm:"size:200;uniqueIndex" json:"slug"`
	LogoURL     string    `gorm:"size:1024" json:"logo_url"`
	Description string    `gorm:"type:text" json:"description"`
	Status      string    `gorm:"size:32" json:"status"` // 'enabled' or 'disabled'
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
