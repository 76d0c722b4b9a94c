package dto

import (
	"time"

	"github.com/bedaya-app/lms-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
// The score ceiling mirrors the creation form bound of the mobile client.
type AssignmentCreateRequest struct {
	ClassID                  uint   `json:"class_id" validate:"required,gt=0"`
	Title                    string `json:"title" validate:"required,min=3,max=100"`
	Description              string `json:"description" validate:"omitempty,max=5000"`
	Instructions             string `json:"instructions" validate:"omitempty,max=5000"`
	DueDate                  string `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	MaxScore                 int    `json:"max_score" validate:"gte=0,lte=1000"`
	AllowMultipleSubmissions bool   `json:"allow_multiple_submissions"`
	IsPublished              bool   `json:"is_published"`
}

// AssignmentResponse is the serialized assignment returned to teachers and
// admins.
type AssignmentResponse struct {
	ID                       uint      `json:"id"`
	ClassID                  uint      `json:"class_id"`
	ClassName                string    `json:"class_name"`
	TeacherID                uint      `json:"teacher_id"`
	Title                    string    `json:"title"`
	Description              string    `json:"description"`
	Instructions             string    `json:"instructions"`
	DueDate                  time.Time `json:"due_date"`
	MaxScore                 int       `json:"max_score"`
	AllowMultipleSubmissions bool      `json:"allow_multiple_submissions"`
	IsPublished              bool      `json:"is_published"`
	CreatedAt                time.Time `json:"created_at"`
}

// StudentAssignmentResponse augments an assignment with the acting student's
// derived lifecycle state.
type StudentAssignmentResponse struct {
	AssignmentResponse
	Status       string    `json:"status"`
	DaysUntilDue int       `json:"days_until_due"`
	Urgent       bool      `json:"urgent"`
	Grade        *int      `json:"grade,omitempty"`
	SubmissionID *uint     `json:"submission_id,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at,omitempty"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                       model.ID,
		ClassID:                  model.ClassID,
		ClassName:                model.Class.Name,
		TeacherID:                model.TeacherID,
		Title:                    model.Title,
		Description:              model.Description,
		Instructions:             model.Instructions,
		DueDate:                  model.DueDate,
		MaxScore:                 model.MaxScore,
		AllowMultipleSubmissions: model.AllowMultipleSubmissions,
		IsPublished:              model.IsPublished,
		CreatedAt:                model.CreatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
