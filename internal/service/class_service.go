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

// ErrTeacherRoleRequired indicates the referenced user cannot lead a class.
var ErrTeacherRoleRequired = errors.New("class teacher must have the teacher role")

// ErrStudentRoleRequired indicates the referenced user cannot be enrolled.
var ErrStudentRoleRequired = errors.New("enrollment target must have the student role")

// ErrAlreadyEnrolled indicates the student already has an active enrollment.
var ErrAlreadyEnrolled = errors.New("student is already enrolled in this class")

// ClassService manages classes and enrollment. Re-enrolling a previously
// removed student reactivates the original row so the unique class-student
// pair is never duplicated.
type ClassService interface {
	Create(ctx context.Context, actor Actor, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	List(ctx context.Context, filter repository.ClassFilter) ([]dto.ClassResponse, error)
	Get(ctx context.Context, id uint) (dto.ClassResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Enroll(ctx context.Context, actor Actor, classID uint, payload dto.EnrollRequest) (dto.EnrollmentResponse, error)
	Unenroll(ctx context.Context, actor Actor, classID, studentID uint) error
	Roster(ctx context.Context, classID uint) ([]dto.EnrollmentResponse, error)
}

type classService struct {
	classes     repository.ClassRepository
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	schools     repository.SchoolRepository
	audit       AuditRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewClassService constructs a ClassService instance.
func NewClassService(
	classes repository.ClassRepository,
	enrollments repository.EnrollmentRepository,
	users repository.UserRepository,
	schools repository.SchoolRepository,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) ClassService {
	return &classService{
		classes:     classes,
		enrollments: enrollments,
		users:       users,
		schools:     schools,
		audit:       audit,
		validator:   validate,
		logger:      logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, actor Actor, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	if _, err := s.schools.GetByID(ctx, payload.SchoolID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrSchoolNotFound
		}
		return dto.ClassResponse{}, err
	}

	teacher, err := s.users.GetByID(ctx, payload.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrUserNotFound
		}
		return dto.ClassResponse{}, err
	}
	if teacher.Role != models.RoleTeacher {
		return dto.ClassResponse{}, ErrTeacherRoleRequired
	}

	class := models.Class{
		SchoolID:    payload.SchoolID,
		TeacherID:   payload.TeacherID,
		Name:        strings.TrimSpace(payload.Name),
		Description: strings.TrimSpace(payload.Description),
		IsActive:    true,
	}

	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "create_class",
		ResourceType: "class",
		ResourceID:   &class.ID,
		Details: map[string]interface{}{
			"name":       class.Name,
			"school_id":  class.SchoolID,
			"teacher_id": class.TeacherID,
		},
	})

	created, err := s.classes.GetByID(ctx, class.ID)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(created), nil
}

func (s *classService) List(ctx context.Context, filter repository.ClassFilter) ([]dto.ClassResponse, error) {
	classes, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewClassResponseSlice(classes), nil
}

func (s *classService) Get(ctx context.Context, id uint) (dto.ClassResponse, error) {
	class, err := s.classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrClassNotFound
		}
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(class), nil
}

func (s *classService) Delete(ctx context.Context, actor Actor, id uint) error {
	class, err := s.classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	if err := s.classes.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "delete_class",
		ResourceType: "class",
		ResourceID:   &id,
		Details:      map[string]interface{}{"name": class.Name},
	})

	return nil
}

func (s *classService) Enroll(ctx context.Context, actor Actor, classID uint, payload dto.EnrollRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrClassNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	student, err := s.users.GetByID(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrUserNotFound
		}
		return dto.EnrollmentResponse{}, err
	}
	if student.Role != models.RoleStudent {
		return dto.EnrollmentResponse{}, ErrStudentRoleRequired
	}

	enrollment, err := s.enrollments.GetByClassAndStudent(ctx, classID, payload.StudentID)
	switch {
	case err == nil:
		if enrollment.Active {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		enrollment.Active = true
		if err := s.enrollments.Update(ctx, &enrollment); err != nil {
			return dto.EnrollmentResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		enrollment = models.Enrollment{
			ClassID:   classID,
			StudentID: payload.StudentID,
			Active:    true,
		}
		if err := s.enrollments.Create(ctx, &enrollment); err != nil {
			return dto.EnrollmentResponse{}, err
		}
	default:
		return dto.EnrollmentResponse{}, err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "enroll_student",
		ResourceType: "class",
		ResourceID:   &classID,
		Details:      map[string]interface{}{"student_id": payload.StudentID},
	})

	enrollment.Student = student

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *classService) Unenroll(ctx context.Context, actor Actor, classID, studentID uint) error {
	enrollment, err := s.enrollments.GetByClassAndStudent(ctx, classID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !enrollment.Active {
		return nil
	}

	enrollment.Active = false
	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		return err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "unenroll_student",
		ResourceType: "class",
		ResourceID:   &classID,
		Details:      map[string]interface{}{"student_id": studentID},
	})

	return nil
}

func (s *classService) Roster(ctx context.Context, classID uint) ([]dto.EnrollmentResponse, error) {
	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	enrollments, err := s.enrollments.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}

	return responses, nil
}
