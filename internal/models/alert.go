package models

import (
	"time"

	"gorm.io/datatypes"
)

// Alert is a standing subscription rule: which complexes to watch, optional
// trade-type/price/area filters, and the webhook endpoint to deliver to.
// Lifecycle management lives elsewhere; the dispatcher reads these only.
type Alert struct {
	ID         string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string                      `gorm:"type:varchar(100);not null" json:"name"`
	UserID     string                      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	ComplexNos datatypes.JSONSlice[string] `gorm:"type:json;not null" json:"complex_nos"`

	// Empty TradeTypes matches all trade types.
	TradeTypes datatypes.JSONSlice[string] `gorm:"type:json" json:"trade_types,omitempty"`
	MinPrice   *int64                      `gorm:"type:bigint" json:"min_price,omitempty"`
	MaxPrice   *int64                      `gorm:"type:bigint" json:"max_price,omitempty"`
	MinArea    *float64                    `gorm:"type:decimal(10,2)" json:"min_area,omitempty"`
	MaxArea    *float64                    `gorm:"type:decimal(10,2)" json:"max_area,omitempty"`

	WebhookURL string `gorm:"type:varchar(500)" json:"webhook_url,omitempty"`
	IsActive   bool   `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Alert) TableName() string {
	return "alerts"
}

// NotificationLog records the outcome of one delivery attempt (one batch)
// for an alert.
type NotificationLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AlertID   string    `gorm:"type:varchar(36);not null;index" json:"alert_id"`
	Channel   string    `gorm:"type:varchar(20);not null" json:"channel"`
	Status    string    `gorm:"type:varchar(10);not null" json:"status"`
	Message   string    `gorm:"type:text" json:"message,omitempty"`
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name
func (NotificationLog) TableName() string {
	return "notification_logs"
}

// Notification delivery constants
const (
	NotifyChannelWebhook = "webhook"
	NotifyStatusSent     = "sent"
	NotifyStatusFailed   = "failed"
)
