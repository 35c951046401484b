package domain

import "time"

// Product is a sellable digital item belonging to a shop. FileURL points at
// the downloadable asset; an empty FileURL makes the product unpurchasable
// until an owner uploads a new file.
type Product struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	ShopID       int64     `gorm:"index;uniqueIndex:ux_product_shop_slug,priority:1" json:"shop_id"`
	Name         string    `gorm:"index" json:"name"`
	Slug         string    `gorm:"size:200;uniqueIndex:ux_product_shop_slug,priority:2" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	Price        float64   `json:"price"` // price in main currency units (e.g., dollars)
	FileURL      string    `gorm:"size:1024" json:"file_url"`
	ThumbnailURL string    `gorm:"size:1024" json:"thumbnail_url"`
	Active       bool      `gorm:"default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
