package models

import "time"

// Class is a course section owned by one teacher within one school.
type Class struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	SchoolID    uint      `gorm:"not null;index" json:"school_id"`
	TeacherID   uint      `gorm:"not null;index" json:"teacher_id"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	School      School    `json:"school,omitempty"`
	Teacher     User      `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// Enrollment joins a student to a class. Rows are never deleted; removing a
// student flips Active off so the history survives, and re-adding flips it
// back on the same row.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_pair" json:"class_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_pair" json:"student_id"`
	// No column default; an inactive record must insert as inactive.
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Class     Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class,omitempty"`
	Student   User      `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}
