package dto

import (
	"time"

	"github.com/bedaya-app/lms-api/internal/models"
)

// LoginRequest carries sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse returns the issued token and the authenticated profile.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// SessionResponse describes the current authenticated session.
type SessionResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UserResponse is the serialized account representation.
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	SchoolID  *uint     `json:"school_id"`
	School    string    `json:"school,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse converts a model into a DTO. A blank stored name surfaces
// as a fixed placeholder rather than leaking an empty field.
func NewUserResponse(model models.User) UserResponse {
	response := UserResponse{
		ID:        model.ID,
		Email:     model.Email,
		Name:      model.DisplayName(),
		Role:      model.Role,
		SchoolID:  model.SchoolID,
		IsActive:  model.IsActive,
		CreatedAt: model.CreatedAt,
	}

	if model.School != nil {
		response.School = model.School.Name
	}

	return response
}

// NewUserResponseSlice converts user models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}

	return responses
}
