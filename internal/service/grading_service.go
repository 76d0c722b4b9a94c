package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/observability"
	"github.com/bedaya-app/lms-api/internal/repository"
)

// ErrNotAssignmentOwner indicates the acting teacher does not own the
// assignment behind the submission being graded.
var ErrNotAssignmentOwner = errors.New("submission belongs to another teacher's assignment")

// GradeOutOfRangeError reports the valid range for a rejected grade. Empty
// and non-numeric input are rejected identically to out-of-range values.
type GradeOutOfRangeError struct {
	MaxScore int
}

func (e GradeOutOfRangeError) Error() string {
	return fmt.Sprintf("grade must be an integer between 0 and %d", e.MaxScore)
}

// GradingService records teacher grading actions. Re-grading an already
// graded submission simply overwrites the prior grade and feedback.
type GradingService interface {
	Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	audit       AuditRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(submissions repository.SubmissionRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		audit:       audit,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/bedaya-app/lms-api/internal/service/grading"),
		now:         time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.record", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	// Ownership is checked before any mutation is attempted, never inferred
	// from a backend rejection.
	if !actor.IsAdmin() && submission.Assignment.TeacherID != actor.ID {
		span.SetStatus(codes.Error, "not_owner")
		return dto.SubmissionResponse{}, ErrNotAssignmentOwner
	}

	maxScore := submission.Assignment.MaxScore
	grade, err := parseGrade(payload.Grade, maxScore)
	if err != nil {
		span.SetStatus(codes.Error, "grade_out_of_range")
		return dto.SubmissionResponse{}, err
	}

	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))

	gradedAt := s.now()
	gradedBy := actor.ID
	submission.Grade = &grade
	submission.Feedback = feedback
	submission.Status = models.SubmissionStatusGraded
	submission.GradedAt = &gradedAt
	submission.GradedBy = &gradedBy

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.Grades().Inc()

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "grade_submission",
		ResourceType: "submission",
		ResourceID:   &submission.ID,
		Details: map[string]interface{}{
			"assignment_id": submission.AssignmentID,
			"student_id":    submission.StudentID,
			"grade":         grade,
			"max_score":     maxScore,
		},
	})

	span.SetAttributes(attribute.Int("grading.grade", grade))
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("grade", grade).
		Msg("submission graded")

	return dto.NewSubmissionResponse(submission), nil
}

func parseGrade(raw string, maxScore int) (int, error) {
	grade, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, GradeOutOfRangeError{MaxScore: maxScore}
	}
	if grade < 0 || grade > maxScore {
		return 0, GradeOutOfRangeError{MaxScore: maxScore}
	}
	return grade, nil
}
