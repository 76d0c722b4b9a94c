package dto

import (
	"time"

	"github.com/bedaya-app/lms-api/internal/models"
)

// UserCreateRequest describes the payload for provisioning an account.
type UserCreateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=255"`
	Role     string `json:"role" validate:"required,oneof=admin teacher student"`
	SchoolID *uint  `json:"school_id" validate:"omitempty,gt=0"`
}

// SchoolCreateRequest describes the payload for creating a school.
type SchoolCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// SchoolResponse is the serialized school representation.
type SchoolResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassCreateRequest describes the payload for creating a class.
type ClassCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	SchoolID    uint   `json:"school_id" validate:"required,gt=0"`
	TeacherID   uint   `json:"teacher_id" validate:"required,gt=0"`
}

// EnrollRequest adds or reactivates a student in a class.
type EnrollRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// ClassResponse is the serialized class representation with embedded names,
// replacing the client's untyped nested query rows.
type ClassResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SchoolID    uint      `json:"school_id"`
	SchoolName  string    `json:"school_name"`
	TeacherID   uint      `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// EnrollmentResponse serializes a student-class join record.
type EnrollmentResponse struct {
	ID          uint   `json:"id"`
	ClassID     uint   `json:"class_id"`
	StudentID   uint   `json:"student_id"`
	StudentName string `json:"student_name"`
	Active      bool   `json:"active"`
}

// NewSchoolResponse converts a model into a DTO.
func NewSchoolResponse(model models.School) SchoolResponse {
	return SchoolResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
	}
}

// NewSchoolResponseSlice converts school models into DTOs.
func NewSchoolResponseSlice(schools []models.School) []SchoolResponse {
	responses := make([]SchoolResponse, 0, len(schools))
	for _, school := range schools {
		responses = append(responses, NewSchoolResponse(school))
	}

	return responses
}

// NewClassResponse converts a model into a DTO.
func NewClassResponse(model models.Class) ClassResponse {
	return ClassResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		SchoolID:    model.SchoolID,
		SchoolName:  model.School.Name,
		TeacherID:   model.TeacherID,
		TeacherName: model.Teacher.DisplayName(),
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
	}
}

// NewClassResponseSlice converts class models into DTOs.
func NewClassResponseSlice(classes []models.Class) []ClassResponse {
	responses := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, NewClassResponse(class))
	}

	return responses
}

// NewEnrollmentResponse converts a model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          model.ID,
		ClassID:     model.ClassID,
		StudentID:   model.StudentID,
		StudentName: model.Student.DisplayName(),
		Active:      model.Active,
	}
}
