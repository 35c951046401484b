package domain

import "time"

// Order is written exactly once per paid checkout session and never updated
// or deleted by the system. SessionID is the idempotency key: the unique
// index guarantees at most one order per external payment session. Name and
// price are denormalized at reconciliation time so historical order values
// survive later product edits.
type Order struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	ProductID     int64     `gorm:"index" json:"product_id"`
	ProductName   string    `gorm:"size:200" json:"product_name"`
	Price         float64   `json:"price"`
	CustomerEmail string    `gorm:"size:200;index" json:"customer_email"`
	SessionID     string    `gorm:"size:200;uniqueIndex" json:"session_id"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}
