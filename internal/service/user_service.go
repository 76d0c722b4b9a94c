package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
)

// ErrUserNotFound indicates the target account does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken indicates another account already uses the email.
var ErrEmailTaken = errors.New("email already registered")

// ErrSuperAdminProtected indicates the target account can never be deleted
// or deactivated.
var ErrSuperAdminProtected = errors.New("super admin account cannot be removed")

// ErrSchoolNotFound indicates the referenced school does not exist.
var ErrSchoolNotFound = errors.New("school not found")

// UserService provisions and manages accounts. Admin-only surface.
type UserService interface {
	Create(ctx context.Context, actor Actor, payload dto.UserCreateRequest) (dto.UserResponse, error)
	List(ctx context.Context, filter repository.UserFilter) ([]dto.UserResponse, error)
	Get(ctx context.Context, id uint) (dto.UserResponse, error)
	SetActive(ctx context.Context, actor Actor, id uint, active bool) (dto.UserResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type userService struct {
	users     repository.UserRepository
	schools   repository.SchoolRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(
	users repository.UserRepository,
	schools repository.SchoolRepository,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) UserService {
	return &userService{
		users:     users,
		schools:   schools,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) Create(ctx context.Context, actor Actor, payload dto.UserCreateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return dto.UserResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UserResponse{}, err
	}

	if payload.SchoolID != nil {
		if _, err := s.schools.GetByID(ctx, *payload.SchoolID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.UserResponse{}, ErrSchoolNotFound
			}
			return dto.UserResponse{}, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		Email:        email,
		Name:         strings.TrimSpace(payload.Name),
		PasswordHash: string(hash),
		Role:         payload.Role,
		SchoolID:     payload.SchoolID,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "create_user",
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details: map[string]interface{}{
			"email": user.Email,
			"role":  user.Role,
		},
	})

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", created.ID).Str("role", created.Role).Msg("user created")

	return dto.NewUserResponse(created), nil
}

func (s *userService) List(ctx context.Context, filter repository.UserFilter) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponseSlice(users), nil
}

func (s *userService) Get(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) SetActive(ctx context.Context, actor Actor, id uint, active bool) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if user.IsSuperAdmin && !active {
		return dto.UserResponse{}, ErrSuperAdminProtected
	}

	user.IsActive = active
	user.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	action := "deactivate_user"
	if active {
		action = "activate_user"
	}
	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   &id,
	})

	return dto.NewUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, actor Actor, id uint) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.IsSuperAdmin {
		return ErrSuperAdminProtected
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "delete_user",
		ResourceType: "user",
		ResourceID:   &id,
		Details:      map[string]interface{}{"email": user.Email},
	})

	return nil
}
