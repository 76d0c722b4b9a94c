package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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

// Submission workflow failures. Validation and authorization errors are
// resolved before any storage call is attempted.
var (
	// ErrAssignmentNotFound indicates the assignment does not exist or is not
	// visible to the acting student.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrSubmissionNotFound indicates a submission could not be located.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrNotEnrolled indicates the student holds no active enrollment in the
	// assignment's class.
	ErrNotEnrolled = errors.New("student is not enrolled in this class")
	// ErrFileRequired indicates the multipart payload carried no file.
	ErrFileRequired = errors.New("a submission file is required")
	// ErrFileTooLarge indicates the upload exceeds the configured ceiling.
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
	// ErrFileTypeNotAllowed indicates the detected MIME type is not accepted.
	ErrFileTypeNotAllowed = errors.New("file type is not allowed")
	// ErrResubmissionNotAllowed indicates a second submission was attempted
	// where the assignment permits only one.
	ErrResubmissionNotAllowed = errors.New("multiple submissions are not allowed for this assignment")
	// ErrStorageTimeout indicates the blob store did not answer in time.
	ErrStorageTimeout = errors.New("storage request timed out")
	// ErrStorageUnavailable indicates the blob store rejected or failed the
	// request.
	ErrStorageUnavailable = errors.New("storage is unavailable")
	// ErrFileAccessDenied indicates the actor may not read the requested file.
	ErrFileAccessDenied = errors.New("not allowed to access this file")
)

const signedURLTTL = time.Hour

// SubmissionService orchestrates the student submission workflow.
type SubmissionService interface {
	Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	List(ctx context.Context, actor Actor, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error)
	SignedFileURL(ctx context.Context, actor Actor, submissionID uint) (dto.SignedURLResponse, error)
}

type submissionService struct {
	submissions    repository.SubmissionRepository
	assignments    repository.AssignmentRepository
	enrollments    repository.EnrollmentRepository
	blobs          BlobStore
	audit          AuditRecorder
	validator      *validator.Validate
	logger         zerolog.Logger
	tracer         trace.Tracer
	maxSize        int64
	allowedTypes   []string
	storageTimeout time.Duration
	now            func() time.Time
}

// SubmissionPolicy carries the configurable upload limits.
type SubmissionPolicy struct {
	MaxFileSize    int64
	AllowedTypes   []string
	StorageTimeout time.Duration
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	enrollments repository.EnrollmentRepository,
	blobs BlobStore,
	audit AuditRecorder,
	validate *validator.Validate,
	policy SubmissionPolicy,
	logger zerolog.Logger,
) SubmissionService {
	if policy.MaxFileSize <= 0 {
		policy.MaxFileSize = 10 << 20
	}
	if len(policy.AllowedTypes) == 0 {
		policy.AllowedTypes = []string{"application/pdf"}
	}
	if policy.StorageTimeout <= 0 {
		policy.StorageTimeout = 30 * time.Second
	}

	return &submissionService{
		submissions:    submissions,
		assignments:    assignments,
		enrollments:    enrollments,
		blobs:          blobs,
		audit:          audit,
		validator:      validate,
		logger:         logger.With().Str("component", "submission_service").Logger(),
		tracer:         otel.Tracer("github.com/bedaya-app/lms-api/internal/service/submission"),
		maxSize:        policy.MaxFileSize,
		allowedTypes:   policy.AllowedTypes,
		storageTimeout: policy.StorageTimeout,
		now:            time.Now,
	}
}

// Create validates, uploads and records a submission. All validation and the
// resubmission-policy check happen before the blob upload; the database row is
// only written after the upload succeeds, so a recorded submission always has
// a stored file behind it.
func (s *submissionService) Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.create", trace.WithAttributes(
		attribute.Int64("submission.assignment_id", int64(payload.AssignmentID)),
		attribute.Int64("submission.student_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if file == nil {
		return dto.SubmissionResponse{}, ErrFileRequired
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	// Unpublished assignments are indistinguishable from missing ones for
	// students.
	if !assignment.IsPublished {
		return dto.SubmissionResponse{}, ErrAssignmentNotFound
	}

	enrolled, err := s.enrollments.HasActiveEnrollment(ctx, assignment.ClassID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	if file.Size > s.maxSize {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxSize)
	}

	detected, err := s.detectType(file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, actor.ID)
	hasExisting := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	if hasExisting && !assignment.AllowMultipleSubmissions {
		span.SetStatus(codes.Error, "resubmission_not_allowed")
		return dto.SubmissionResponse{}, ErrResubmissionNotAllowed
	}

	now := s.now()
	key := s.buildStorageKey(assignment, actor.ID, now, detected.Extension())

	if err := s.upload(ctx, key, file); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload_failed")
		return dto.SubmissionResponse{}, err
	}

	status := models.SubmissionStatusSubmitted
	if assignment.IsPastDue(now) {
		status = models.SubmissionStatusLate
	}

	var stored models.Submission
	if hasExisting {
		previousKey := existing.FilePath
		existing.FilePath = key
		existing.FileName = file.Filename
		existing.FileSize = file.Size
		existing.Status = models.SubmissionStatusResubmitted
		existing.SubmittedAt = now
		// A resubmission supersedes any earlier grade; the graded state must
		// only ever coexist with a non-nil grade.
		existing.Grade = nil
		existing.Feedback = ""
		existing.GradedAt = nil
		existing.GradedBy = nil

		if err := s.submissions.Update(ctx, &existing); err != nil {
			return dto.SubmissionResponse{}, err
		}
		stored = existing

		// Best-effort: the row already points at the new blob, so a failed
		// cleanup only leaves an orphaned object behind.
		if previousKey != "" && previousKey != key {
			if err := s.blobs.Delete(ctx, previousKey); err != nil {
				s.logger.Warn().Err(err).Str("key", previousKey).Msg("failed to remove replaced submission file")
			}
		}
	} else {
		stored = models.Submission{
			AssignmentID: assignment.ID,
			StudentID:    actor.ID,
			FilePath:     key,
			FileName:     file.Filename,
			FileSize:     file.Size,
			Status:       status,
			SubmittedAt:  now,
		}
		if err := s.submissions.Create(ctx, &stored); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	observability.Submissions().WithLabelValues(stored.Status).Inc()

	action := "submit_assignment"
	if hasExisting {
		action = "resubmit_assignment"
	}
	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       action,
		ResourceType: "submission",
		ResourceID:   &stored.ID,
		Details: map[string]interface{}{
			"assignment_id": assignment.ID,
			"file_name":     stored.FileName,
			"status":        stored.Status,
		},
	})

	created, err := s.submissions.GetByID(ctx, stored.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", created.ID).
		Uint("assignment_id", assignment.ID).
		Str("status", created.Status).
		Msg("submission recorded")

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) List(ctx context.Context, actor Actor, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	// Students only ever see their own submissions; teachers only those for
	// assignments they own.
	switch {
	case actor.IsStudent():
		filter.StudentID = &actor.ID
		filter.TeacherID = nil
	case actor.IsTeacher():
		filter.TeacherID = &actor.ID
	}

	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// SignedFileURL issues a time-limited download link for a submission file,
// restricted to the owning student, the assignment's teacher, or an admin.
func (s *submissionService) SignedFileURL(ctx context.Context, actor Actor, submissionID uint) (dto.SignedURLResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SignedURLResponse{}, ErrSubmissionNotFound
		}
		return dto.SignedURLResponse{}, err
	}

	allowed := actor.IsAdmin() ||
		submission.StudentID == actor.ID ||
		(actor.IsTeacher() && submission.Assignment.TeacherID == actor.ID)
	if !allowed {
		return dto.SignedURLResponse{}, ErrFileAccessDenied
	}

	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	url, err := s.blobs.SignedURL(ctx, submission.FilePath, signedURLTTL)
	if err != nil {
		return dto.SignedURLResponse{}, s.classifyStorageErr(err)
	}

	return dto.SignedURLResponse{URL: url, ExpiresAt: s.now().Add(signedURLTTL)}, nil
}

func (s *submissionService) detectType(file *multipart.FileHeader) (*mimetype.MIME, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	detected, err := mimetype.DetectReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	for _, allowed := range s.allowedTypes {
		if detected.Is(allowed) {
			return detected, nil
		}
	}

	return nil, fmt.Errorf("%w: got %s, expected one of %s",
		ErrFileTypeNotAllowed, detected.String(), strings.Join(s.allowedTypes, ", "))
}

func (s *submissionService) upload(ctx context.Context, key string, file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	if err := s.blobs.Upload(ctx, key, reader); err != nil {
		return s.classifyStorageErr(err)
	}

	return nil
}

func (s *submissionService) classifyStorageErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStorageTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// buildStorageKey produces a collision-free, non-guessable object key scoped
// by school, class and assignment.
func (s *submissionService) buildStorageKey(assignment models.Assignment, studentID uint, now time.Time, ext string) string {
	if ext == "" {
		ext = ".pdf"
	}
	nonce := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("submissions/%d/%d/%d/%d_%d_%s%s",
		assignment.Class.SchoolID, assignment.ClassID, assignment.ID, studentID, now.Unix(), nonce, ext)
}
