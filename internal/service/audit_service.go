package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/observability"
	"github.com/bedaya-app/lms-api/internal/repository"
)

const auditBufferSize = 64

// auditWriteTimeout bounds each background insert so a stalled database
// cannot wedge the worker.
const auditWriteTimeout = 5 * time.Second

// AuditEntry captures one auditable action.
type AuditEntry struct {
	UserID       uint
	Action       string
	ResourceType string
	ResourceID   *uint
	Details      map[string]interface{}
}

// AuditRecorder is the fire-and-forget side of the audit trail. Enqueue never
// blocks and never reports failure to the caller; audit logging must not
// affect the outcome of the operation it describes.
type AuditRecorder interface {
	Enqueue(entry AuditEntry)
}

// AuditService persists and queries the audit trail.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error)
	Start(ctx context.Context)
}

type auditService struct {
	repo    repository.AuditLogRepository
	nats    *nats.Conn
	subject string
	entries chan AuditEntry
	logger  zerolog.Logger
}

// NewAuditService constructs the audit service. natsConn may be nil when no
// external sink is configured.
func NewAuditService(repo repository.AuditLogRepository, natsConn *nats.Conn, subject string, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:    repo,
		nats:    natsConn,
		subject: subject,
		entries: make(chan AuditEntry, auditBufferSize),
		logger:  logger.With().Str("component", "audit_service").Logger(),
	}
}

// Start launches the background writer. It runs until ctx is cancelled.
func (s *auditService) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry := <-s.entries:
				s.write(entry)
			}
		}
	}()
}

func (s *auditService) Enqueue(entry AuditEntry) {
	if strings.TrimSpace(entry.Action) == "" || strings.TrimSpace(entry.ResourceType) == "" {
		s.logger.Warn().Msg("discarding audit entry without action or resource type")
		return
	}

	select {
	case s.entries <- entry:
	default:
		observability.AuditDropped().Inc()
		s.logger.Warn().Str("action", entry.Action).Msg("audit buffer full, entry dropped")
	}
}

func (s *auditService) write(entry AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	model := models.AuditLog{
		UserID:       entry.UserID,
		Action:       strings.ToLower(strings.TrimSpace(entry.Action)),
		ResourceType: strings.ToLower(strings.TrimSpace(entry.ResourceType)),
		ResourceID:   entry.ResourceID,
		Details:      sanitizeDetails(entry.Details),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", model.Action).Msg("failed to persist audit entry")
		return
	}

	s.publish(model)
}

func (s *auditService) publish(model models.AuditLog) {
	if s.nats == nil || s.subject == "" {
		return
	}

	payload, err := json.Marshal(dto.NewAuditEntryResponse(model))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode audit event")
		return
	}

	if err := s.nats.Publish(s.subject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish audit event")
	}
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	filter := repository.AuditLogFilter{
		Action:       strings.TrimSpace(req.Action),
		ResourceType: strings.TrimSpace(req.ResourceType),
		Page:         req.Page,
		PageSize:     req.PageSize,
	}
	if req.UserID > 0 {
		filter.UserID = &req.UserID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditListResponse{}, err
	}

	return dto.NewAuditListResponse(entries, req.Page, req.PageSize, total), nil
}

func sanitizeDetails(details map[string]interface{}) datatypes.JSONMap {
	sanitized := datatypes.JSONMap{}
	for key, value := range details {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
