package domain

import "time"

// WebhookEvent stores provider webhook payloads with deduplication metadata
// for idempotent processing. The unique (provider, provider_event_id) pair
// lets redeliveries of an already-processed event short-circuit, while a
// delivery that failed keeps its row open for the next retry.
type WebhookEvent struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"size:20;not null;uniqueIndex:ux_webhook_provider_event,priority:1" json:"provider"`
	ProviderEventID string     `gorm:"size:191;not null;uniqueIndex:ux_webhook_provider_event,priority:2" json:"provider_event_id"`
	EventType       string     `gorm:"size:100;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:text" json:"payload_json"`
	SignatureValid  bool       `json:"signature_valid"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}
