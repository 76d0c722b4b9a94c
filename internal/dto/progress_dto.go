package dto

import "time"

// StudentProgressResponse aggregates a student's standing across all active
// enrollments. Recomputed on every request; "now" is an input, not a cache.
type StudentProgressResponse struct {
	TotalAssignments     int                  `json:"total_assignments"`
	CompletedAssignments int                  `json:"completed_assignments"`
	PendingAssignments   int                  `json:"pending_assignments"`
	GradedSubmissions    int                  `json:"graded_submissions"`
	AverageGrade         int                  `json:"average_grade"`
	HasGrades            bool                 `json:"has_grades"`
	Assignments          []AssignmentProgress `json:"assignments"`
}

// AssignmentProgress is one assignment row with the derived display status.
type AssignmentProgress struct {
	AssignmentID uint      `json:"assignment_id"`
	Title        string    `json:"title"`
	ClassName    string    `json:"class_name"`
	DueDate      time.Time `json:"due_date"`
	MaxScore     int       `json:"max_score"`
	Status       string    `json:"status"`
	DaysUntilDue int       `json:"days_until_due"`
	Urgent       bool      `json:"urgent"`
	Grade        *int      `json:"grade,omitempty"`
	SubmissionID *uint     `json:"submission_id,omitempty"`
}

// ClassReportResponse summarizes submission activity for one class.
type ClassReportResponse struct {
	ClassID        uint               `json:"class_id"`
	ClassName      string             `json:"class_name"`
	ActiveStudents int                `json:"active_students"`
	Assignments    []AssignmentReport `json:"assignments"`
}

// AssignmentReport is the teacher-facing rollup for one assignment.
type AssignmentReport struct {
	AssignmentID uint      `json:"assignment_id"`
	Title        string    `json:"title"`
	DueDate      time.Time `json:"due_date"`
	MaxScore     int       `json:"max_score"`
	Submitted    int       `json:"submitted"`
	Pending      int       `json:"pending"`
	Graded       int       `json:"graded"`
	AverageGrade int       `json:"average_grade"`
	HasGrades    bool      `json:"has_grades"`
}
