package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a user action. Writes are best-effort:
// a failed insert must never affect the operation that produced it.
type AuditLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UserID       uint              `gorm:"not null;index" json:"user_id"`
	Action       string            `gorm:"size:64;not null" json:"action"`
	ResourceType string            `gorm:"size:64;not null" json:"resource_type"`
	ResourceID   *uint             `json:"resource_id"`
	Details      datatypes.JSONMap `gorm:"type:json" json:"details"`
	CreatedAt    time.Time         `json:"created_at"`
}
