package service

import (
	"context"
	"errors"
	"mime/multipart"
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

// ErrLessonNotFound indicates the lesson does not exist or is not visible to
// the caller.
var ErrLessonNotFound = errors.New("lesson not found")

// ErrVideoRequired indicates the multipart payload carried no video file.
var ErrVideoRequired = errors.New("a video file is required")

const maxVideoSize = 500 << 20

// LessonService manages recorded lesson videos. Video bytes live on the
// media CDN; the database stores only metadata and the delivery URL.
type LessonService interface {
	Create(ctx context.Context, actor Actor, payload dto.LessonCreateRequest, video *multipart.FileHeader) (dto.LessonResponse, error)
	ListForTeacher(ctx context.Context, actor Actor) ([]dto.LessonResponse, error)
	ListForStudent(ctx context.Context, actor Actor) ([]dto.LessonResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type lessonService struct {
	lessons     repository.LessonRepository
	classes     repository.ClassRepository
	enrollments repository.EnrollmentRepository
	videos      VideoUploader
	audit       AuditRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	uploadWait  time.Duration
}

// NewLessonService constructs a LessonService instance.
func NewLessonService(
	lessons repository.LessonRepository,
	classes repository.ClassRepository,
	enrollments repository.EnrollmentRepository,
	videos VideoUploader,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) LessonService {
	return &lessonService{
		lessons:     lessons,
		classes:     classes,
		enrollments: enrollments,
		videos:      videos,
		audit:       audit,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "lesson_service").Logger(),
		uploadWait:  2 * time.Minute,
	}
}

func (s *lessonService) Create(ctx context.Context, actor Actor, payload dto.LessonCreateRequest, video *multipart.FileHeader) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	if video == nil {
		return dto.LessonResponse{}, ErrVideoRequired
	}
	if video.Size > maxVideoSize {
		return dto.LessonResponse{}, ErrFileTooLarge
	}

	class, err := s.classes.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrClassNotFound
		}
		return dto.LessonResponse{}, err
	}

	if !actor.IsAdmin() && class.TeacherID != actor.ID {
		return dto.LessonResponse{}, ErrNotClassOwner
	}

	file, err := video.Open()
	if err != nil {
		return dto.LessonResponse{}, err
	}
	defer file.Close()

	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadWait)
	defer cancel()

	videoURL, err := s.videos.Upload(uploadCtx, video.Filename, file)
	if err != nil {
		s.logger.Error().Err(err).Str("file", video.Filename).Msg("video upload failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return dto.LessonResponse{}, ErrStorageTimeout
		}
		return dto.LessonResponse{}, ErrStorageUnavailable
	}

	lesson := models.Lesson{
		ClassID:         class.ID,
		TeacherID:       actor.ID,
		Title:           strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		VideoURL:        videoURL,
		VideoPath:       video.Filename,
		DurationMinutes: payload.DurationMinutes,
		IsPublished:     true,
	}

	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "create_lesson",
		ResourceType: "lesson",
		ResourceID:   &lesson.ID,
		Details: map[string]interface{}{
			"title":    lesson.Title,
			"class_id": lesson.ClassID,
		},
	})

	created, err := s.lessons.GetByID(ctx, lesson.ID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	return dto.NewLessonResponse(created), nil
}

func (s *lessonService) ListForTeacher(ctx context.Context, actor Actor) ([]dto.LessonResponse, error) {
	filter := repository.LessonFilter{}
	if !actor.IsAdmin() {
		filter.TeacherID = &actor.ID
	}

	lessons, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *lessonService) ListForStudent(ctx context.Context, actor Actor) ([]dto.LessonResponse, error) {
	enrollments, err := s.enrollments.ListActiveByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if len(enrollments) == 0 {
		return []dto.LessonResponse{}, nil
	}

	classIDs := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		classIDs = append(classIDs, enrollment.ClassID)
	}

	lessons, err := s.lessons.List(ctx, repository.LessonFilter{
		ClassIDs:      classIDs,
		PublishedOnly: true,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *lessonService) Delete(ctx context.Context, actor Actor, id uint) error {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}

	if !actor.IsAdmin() && lesson.TeacherID != actor.ID {
		return ErrNotClassOwner
	}

	if err := s.lessons.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       actor.ID,
		Action:       "delete_lesson",
		ResourceType: "lesson",
		ResourceID:   &id,
		Details:      map[string]interface{}{"title": lesson.Title},
	})

	return nil
}
