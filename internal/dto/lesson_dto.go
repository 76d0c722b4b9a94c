package dto

import (
	"time"

	"github.com/bedaya-app/lms-api/internal/models"
)

// LessonCreateRequest describes the multipart payload for uploading a lesson.
type LessonCreateRequest struct {
	ClassID         uint   `form:"class_id" validate:"required,gt=0"`
	Title           string `form:"title" validate:"required,min=3,max=255"`
	Description     string `form:"description" validate:"omitempty,max=5000"`
	DurationMinutes int    `form:"duration_minutes" validate:"omitempty,gte=0"`
}

// LessonResponse is the serialized lesson representation.
type LessonResponse struct {
	ID              uint       `json:"id"`
	ClassID         uint       `json:"class_id"`
	ClassName       string     `json:"class_name"`
	TeacherID       uint       `json:"teacher_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	VideoURL        string     `json:"video_url"`
	DurationMinutes int        `json:"duration_minutes"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	IsPublished     bool       `json:"is_published"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewLessonResponse converts a model into a DTO.
func NewLessonResponse(model models.Lesson) LessonResponse {
	return LessonResponse{
		ID:              model.ID,
		ClassID:         model.ClassID,
		ClassName:       model.Class.Name,
		TeacherID:       model.TeacherID,
		Title:           model.Title,
		Description:     model.Description,
		VideoURL:        model.VideoURL,
		DurationMinutes: model.DurationMinutes,
		ScheduledAt:     model.ScheduledAt,
		IsPublished:     model.IsPublished,
		CreatedAt:       model.CreatedAt,
	}
}

// NewLessonResponseSlice converts lesson models into DTOs.
func NewLessonResponseSlice(lessons []models.Lesson) []LessonResponse {
	responses := make([]LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		responses = append(responses, NewLessonResponse(lesson))
	}

	return responses
}
