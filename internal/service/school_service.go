package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
)

// SchoolService manages schools. Deleting a school cascades to its classes.
type SchoolService interface {
	Create(ctx context.Context, actor Actor, payload dto.SchoolCreateRequest) (dto.SchoolResponse, error)
	List(ctx context.Context) ([]dto.SchoolResponse, error)
	Get(ctx context.Context, id uint) (dto.SchoolResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type schoolService struct {
	schools   repository.SchoolRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSchoolService constructs a SchoolService instance.
func NewSchoolService(
	schools repository.SchoolRepository,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) SchoolService {
	return &schoolService{
		schools:   schools,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "school_service").Logger(),
	}
}

func (s *schoolService) Create(ctx context.Context, actor Actor, payload dto.SchoolCreateRequest) (dto.SchoolResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SchoolResponse{}, err
	}

	school := models.School{
		Name:        strings.TrimSpace(payload.Name),
		Description: strings.TrimSpace(payload.Description),
	}

	if err := s.schools.Create(ctx, &school); err != nil {
		return dto.SchoolResponse{}, err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "create_school",
		ResourceType: "school",
		ResourceID:   &school.ID,
		Details:      map[string]interface{}{"name": school.Name},
	})

	return dto.NewSchoolResponse(school), nil
}

func (s *schoolService) List(ctx context.Context) ([]dto.SchoolResponse, error) {
	schools, err := s.schools.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewSchoolResponseSlice(schools), nil
}

func (s *schoolService) Get(ctx context.Context, id uint) (dto.SchoolResponse, error) {
	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SchoolResponse{}, ErrSchoolNotFound
		}
		return dto.SchoolResponse{}, err
	}

	return dto.NewSchoolResponse(school), nil
}

func (s *schoolService) Delete(ctx context.Context, actor Actor, id uint) error {
	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSchoolNotFound
		}
		return err
	}

	if err := s.schools.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "delete_school",
		ResourceType: "school",
		ResourceID:   &id,
		Details:      map[string]interface{}{"name": school.Name},
	})

	return nil
}
