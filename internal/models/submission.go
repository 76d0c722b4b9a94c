package models

import "time"

// Stored submission statuses. "pending" and "overdue" are display-only states
// derived from the absence of a submission and never persisted.
const (
	SubmissionStatusSubmitted   = "submitted"
	SubmissionStatusLate        = "late"
	SubmissionStatusResubmitted = "resubmitted"
	SubmissionStatusGraded      = "graded"
)

// Submission is a student's uploaded artifact for one assignment. At most one
// row exists per (assignment, student) pair; resubmissions update the row in
// place.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_pair" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_pair" json:"student_id"`
	FilePath     string     `gorm:"size:512;not null" json:"file_path"`
	FileName     string     `gorm:"size:255;not null" json:"file_name"`
	FileSize     int64      `gorm:"not null" json:"file_size"`
	Status       string     `gorm:"size:32;not null" json:"status"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	Grade        *int       `json:"grade"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	GradedAt     *time.Time `json:"graded_at"`
	GradedBy     *uint      `json:"graded_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment,omitempty"`
	Student      User       `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// IsGraded reports whether a final grade has been recorded.
func (s Submission) IsGraded() bool {
	return s.Grade != nil
}
