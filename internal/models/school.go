package models

import "time"

// School groups classes under one institution.
type School struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Classes     []Class   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"classes,omitempty"`
}
