package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
)

// ErrNotClassOwner indicates the acting teacher does not own the target class
// or assignment.
var ErrNotClassOwner = errors.New("class belongs to another teacher")

// ErrClassNotFound indicates the class does not exist.
var ErrClassNotFound = errors.New("class not found")

// AssignmentService manages the assignment lifecycle. Assignments are
// immutable after creation; the only mutation is deletion by the owner.
type AssignmentService interface {
	Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	ListForTeacher(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error)
	ListForStudent(ctx context.Context, actor Actor) ([]dto.StudentAssignmentResponse, error)
	GetForStudent(ctx context.Context, actor Actor, id uint) (dto.StudentAssignmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentRepository
	classes     repository.ClassRepository
	audit       AuditRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	enrollments repository.EnrollmentRepository,
	classes repository.ClassRepository,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		submissions: submissions,
		enrollments: enrollments,
		classes:     classes,
		audit:       audit,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	class, err := s.classes.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrClassNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if !actor.IsAdmin() && class.TeacherID != actor.ID {
		return dto.AssignmentResponse{}, ErrNotClassOwner
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	maxScore := payload.MaxScore
	if maxScore == 0 {
		maxScore = 100
	}

	assignment := models.Assignment{
		ClassID:                  class.ID,
		TeacherID:                actor.ID,
		Title:                    strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description:              strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		Instructions:             strings.TrimSpace(s.sanitizer.Sanitize(payload.Instructions)),
		DueDate:                  dueDate,
		MaxScore:                 maxScore,
		AllowMultipleSubmissions: payload.AllowMultipleSubmissions,
		IsPublished:              payload.IsPublished,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "create_assignment",
		ResourceType: "assignment",
		ResourceID:   &assignment.ID,
		Details: map[string]interface{}{
			"title":    assignment.Title,
			"class_id": assignment.ClassID,
		},
	})

	created, err := s.assignments.GetByID(ctx, assignment.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", created.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(created), nil
}

func (s *assignmentService) ListForTeacher(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error) {
	filter := repository.AssignmentFilter{}
	if !actor.IsAdmin() {
		filter.TeacherID = &actor.ID
	}

	assignments, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

// ListForStudent returns published assignments across the student's active
// enrollments, each annotated with its derived status. Status is computed
// against the current clock on every call.
func (s *assignmentService) ListForStudent(ctx context.Context, actor Actor) ([]dto.StudentAssignmentResponse, error) {
	enrollments, err := s.enrollments.ListActiveByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if len(enrollments) == 0 {
		return []dto.StudentAssignmentResponse{}, nil
	}

	classIDs := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		classIDs = append(classIDs, enrollment.ClassID)
	}

	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{
		ClassIDs:      classIDs,
		PublishedOnly: true,
	})
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &actor.ID})
	if err != nil {
		return nil, err
	}

	byAssignment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = submission
	}

	now := s.now()
	responses := make([]dto.StudentAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, s.studentView(now, assignment, byAssignment))
	}

	return responses, nil
}

func (s *assignmentService) GetForStudent(ctx context.Context, actor Actor, id uint) (dto.StudentAssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentAssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.StudentAssignmentResponse{}, err
	}

	if !assignment.IsPublished {
		return dto.StudentAssignmentResponse{}, ErrAssignmentNotFound
	}

	enrolled, err := s.enrollments.HasActiveEnrollment(ctx, assignment.ClassID, actor.ID)
	if err != nil {
		return dto.StudentAssignmentResponse{}, err
	}
	if !enrolled {
		return dto.StudentAssignmentResponse{}, ErrNotEnrolled
	}

	byAssignment := map[uint]models.Submission{}
	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, actor.ID)
	if err == nil {
		byAssignment[assignment.ID] = submission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentAssignmentResponse{}, err
	}

	return s.studentView(s.now(), assignment, byAssignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if !actor.IsAdmin() && assignment.TeacherID != actor.ID {
		return ErrNotClassOwner
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "delete_assignment",
		ResourceType: "assignment",
		ResourceID:   &id,
		Details:      map[string]interface{}{"title": assignment.Title},
	})

	return nil
}

func (s *assignmentService) studentView(now time.Time, assignment models.Assignment, submissions map[uint]models.Submission) dto.StudentAssignmentResponse {
	var submissionRef *models.Submission
	if submission, ok := submissions[assignment.ID]; ok {
		submissionRef = &submission
	}

	state := DeriveAssignmentState(now, assignment.DueDate, submissionRef)

	response := dto.StudentAssignmentResponse{
		AssignmentResponse: dto.NewAssignmentResponse(assignment),
		Status:             state.Status,
		DaysUntilDue:       state.DaysUntilDue,
		Urgent:             state.Urgent,
	}

	if submissionRef != nil {
		response.Grade = submissionRef.Grade
		response.SubmissionID = &submissionRef.ID
		response.SubmittedAt = submissionRef.SubmittedAt
	}

	return response
}
