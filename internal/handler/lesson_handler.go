package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/service"
	"github.com/bedaya-app/lms-api/internal/utils"
)

// LessonHandler wires lesson video routes.
type LessonHandler struct {
	service service.LessonService
	logger  zerolog.Logger
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service service.LessonService, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		service: service,
		logger:  logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// RegisterTeacher attaches the teacher-facing endpoints.
func (h *LessonHandler) RegisterTeacher(router fiber.Router) {
	router.Get("", h.listForTeacher)
	router.Post("", h.create)
	router.Delete("/:id", h.delete)
}

// RegisterStudent attaches the student-facing endpoints.
func (h *LessonHandler) RegisterStudent(router fiber.Router) {
	router.Get("", h.listForStudent)
}

func (h *LessonHandler) create(c *fiber.Ctx) error {
	payload := dto.LessonCreateRequest{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
	}

	if classID, err := strconv.ParseUint(strings.TrimSpace(c.FormValue("class_id")), 10, 64); err == nil {
		payload.ClassID = uint(classID)
	}
	if duration, err := strconv.Atoi(strings.TrimSpace(c.FormValue("duration_minutes"))); err == nil {
		payload.DurationMinutes = duration
	}

	video, err := c.FormFile("video")
	if err != nil {
		video = nil
	}

	lesson, err := h.service.Create(c.Context(), actorFromContext(c), payload, video)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *LessonHandler) listForTeacher(c *fiber.Ctx) error {
	lessons, err := h.service.ListForTeacher(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *LessonHandler) listForStudent(c *fiber.Ctx) error {
	lessons, err := h.service.ListForStudent(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *LessonHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson deleted", fiber.Map{"id": id})
}

func (h *LessonHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrNotClassOwner):
		return utils.SendError(c, fiber.StatusForbidden, "class belongs to another teacher")
	case errors.Is(err, service.ErrVideoRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "a video file is required")
	case errors.Is(err, service.ErrFileTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds the size limit")
	case errors.Is(err, service.ErrStorageTimeout):
		return utils.SendError(c, fiber.StatusGatewayTimeout, "media storage timed out")
	case errors.Is(err, service.ErrStorageUnavailable):
		return utils.SendError(c, fiber.StatusBadGateway, "media storage unavailable")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
