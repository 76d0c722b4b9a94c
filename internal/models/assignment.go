package models

import "time"

// Assignment score bounds enforced at creation time.
const (
	AssignmentMinScore = 0
	AssignmentMaxScore = 1000
)

// Assignment represents classwork authored by a teacher for one class.
// Assignments are immutable once created; the owning teacher may only delete
// them.
type Assignment struct {
	ID                       uint      `gorm:"primaryKey" json:"id"`
	ClassID                  uint      `gorm:"not null;index" json:"class_id"`
	TeacherID                uint      `gorm:"not null;index" json:"teacher_id"`
	Title                    string    `gorm:"size:255;not null" json:"title"`
	Description              string    `gorm:"type:text" json:"description"`
	Instructions             string    `gorm:"type:text" json:"instructions"`
	DueDate                  time.Time `gorm:"not null" json:"due_date"`
	MaxScore                 int       `gorm:"not null;default:100" json:"max_score"`
	AllowMultipleSubmissions bool      `gorm:"not null;default:false" json:"allow_multiple_submissions"`
	IsPublished              bool      `gorm:"not null;default:false" json:"is_published"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
	Class                    Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class,omitempty"`
	Teacher                  User      `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// IsPastDue reports whether the deadline has passed at the reference time.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
