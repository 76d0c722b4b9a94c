package models

import "time"

// Lesson is a video resource attached to a class by its teacher.
type Lesson struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ClassID         uint       `gorm:"not null;index" json:"class_id"`
	TeacherID       uint       `gorm:"not null;index" json:"teacher_id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	VideoURL        string     `gorm:"size:512" json:"video_url"`
	VideoPath       string     `gorm:"size:512" json:"video_path"`
	DurationMinutes int        `json:"duration_minutes"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	IsPublished     bool       `gorm:"not null;default:true" json:"is_published"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Class           Class      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class,omitempty"`
}
