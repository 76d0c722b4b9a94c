package dto

import (
	"math"
	"time"

	"github.com/bedaya-app/lms-api/internal/models"
)

// AuditListRequest narrows audit log listings.
type AuditListRequest struct {
	UserID       uint   `query:"user_id"`
	Action       string `query:"action"`
	ResourceType string `query:"resource_type"`
	Page         int    `query:"page"`
	PageSize     int    `query:"page_size"`
}

// AuditEntryResponse serializes one audit trail record.
type AuditEntryResponse struct {
	ID           uint                   `json:"id"`
	UserID       uint                   `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   *uint                  `json:"resource_id"`
	Details      map[string]interface{} `json:"details"`
	CreatedAt    time.Time              `json:"created_at"`
}

// PaginationMeta reports listing position and totals.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// AuditListResponse is a paginated collection of audit entries.
type AuditListResponse struct {
	Items      []AuditEntryResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewAuditEntryResponse converts a model into a DTO.
func NewAuditEntryResponse(model models.AuditLog) AuditEntryResponse {
	return AuditEntryResponse{
		ID:           model.ID,
		UserID:       model.UserID,
		Action:       model.Action,
		ResourceType: model.ResourceType,
		ResourceID:   model.ResourceID,
		Details:      model.Details,
		CreatedAt:    model.CreatedAt,
	}
}

// NewAuditListResponse assembles the paginated listing.
func NewAuditListResponse(entries []models.AuditLog, page, pageSize int, total int64) AuditListResponse {
	items := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, NewAuditEntryResponse(entry))
	}

	meta := PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: 1,
	}
	if meta.Page <= 0 {
		meta.Page = 1
	}
	if pageSize > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}

	return AuditListResponse{Items: items, Pagination: meta}
}
