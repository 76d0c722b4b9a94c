package dto

import (
	"time"

	"github.com/bedaya-app/lms-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for a submission
// upload. The student identity comes from the session, never the form.
type SubmissionCreateRequest struct {
	AssignmentID uint `form:"assignment_id" validate:"required,gt=0"`
}

// GradeRequest carries a teacher's grading action. Grade arrives as a raw
// string so that empty and non-numeric input can be rejected with the same
// range message as out-of-range values.
type GradeRequest struct {
	Grade    string `json:"grade"`
	Feedback string `json:"feedback" validate:"omitempty,max=5000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint           `json:"id"`
	AssignmentID uint           `json:"assignment_id"`
	StudentID    uint           `json:"student_id"`
	FilePath     string         `json:"file_path"`
	FileName     string         `json:"file_name"`
	FileSize     int64          `json:"file_size"`
	Status       string         `json:"status"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Grade        *int           `json:"grade"`
	Feedback     string         `json:"feedback"`
	GradedAt     *time.Time     `json:"graded_at"`
	GradedBy     *uint          `json:"graded_by"`
	Assignment   AssignmentLite `json:"assignment"`
	Student      StudentLite    `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	ClassName string    `json:"class_name"`
	DueDate   time.Time `json:"due_date"`
	MaxScore  int       `json:"max_score"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SignedURLResponse carries a time-limited link to a stored file.
type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		FilePath:     model.FilePath,
		FileName:     model.FileName,
		FileSize:     model.FileSize,
		Status:       model.Status,
		SubmittedAt:  model.SubmittedAt,
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		GradedAt:     model.GradedAt,
		GradedBy:     model.GradedBy,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:        model.Assignment.ID,
			Title:     model.Assignment.Title,
			ClassName: model.Assignment.Class.Name,
			DueDate:   model.Assignment.DueDate,
			MaxScore:  model.Assignment.MaxScore,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.DisplayName(),
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
