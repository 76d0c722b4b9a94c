package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
)

type failingAuditRepo struct {
	mu    sync.Mutex
	calls int
}

func (f *failingAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("database down")
}

func (f *failingAuditRepo) List(ctx context.Context, filter repository.AuditLogFilter) ([]models.AuditLog, int64, error) {
	return nil, 0, nil
}

func (f *failingAuditRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func setupAuditService(t *testing.T) (AuditService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:audit_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))

	service := NewAuditService(repository.NewAuditLogRepository(db), nil, "", zerolog.Nop())
	return service, db
}

func TestAuditServicePersistsEntries(t *testing.T) {
	service, db := setupAuditService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.Start(ctx)

	resourceID := uint(42)
	service.Enqueue(AuditEntry{
		UserID:       7,
		Action:       "Grade_Submission",
		ResourceType: "Submission",
		ResourceID:   &resourceID,
		Details:      map[string]interface{}{"grade": 90},
	})

	require.Eventually(t, func() bool {
		var count int64
		return db.Model(&models.AuditLog{}).Count(&count).Error == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	var stored models.AuditLog
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, "grade_submission", stored.Action)
	require.Equal(t, "submission", stored.ResourceType)
	require.Equal(t, uint(7), stored.UserID)
}

func TestAuditServiceMasksSecrets(t *testing.T) {
	service, db := setupAuditService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.Start(ctx)

	service.Enqueue(AuditEntry{
		UserID:       1,
		Action:       "sign_in",
		ResourceType: "session",
		Details:      map[string]interface{}{"password": "hunter2", "access_token": "abc", "role": "student"},
	})

	require.Eventually(t, func() bool {
		var count int64
		return db.Model(&models.AuditLog{}).Count(&count).Error == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	var stored models.AuditLog
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, "***", stored.Details["password"])
	require.Equal(t, "***", stored.Details["access_token"])
	require.Equal(t, "student", stored.Details["role"])
}

func TestAuditServiceDropsInvalidEntries(t *testing.T) {
	service, db := setupAuditService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.Start(ctx)

	service.Enqueue(AuditEntry{UserID: 1, Action: "", ResourceType: "submission"})
	service.Enqueue(AuditEntry{UserID: 1, Action: "submit_assignment", ResourceType: " "})

	time.Sleep(50 * time.Millisecond)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAuditServiceWriteFailureDoesNotPropagate(t *testing.T) {
	repo := &failingAuditRepo{}
	service := NewAuditService(repo, nil, "", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.Start(ctx)

	// Enqueue must not block or surface errors to the caller.
	service.Enqueue(AuditEntry{UserID: 1, Action: "submit_assignment", ResourceType: "submission"})

	require.Eventually(t, func() bool {
		return repo.callCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAuditServiceListPaginates(t *testing.T) {
	service, db := setupAuditService(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.AuditLog{
			UserID:       1,
			Action:       "create_user",
			ResourceType: "user",
		}).Error)
	}

	response, err := service.List(context.Background(), dto.AuditListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, response.Items, 2)
	require.Equal(t, int64(5), response.Pagination.TotalItems)
	require.Equal(t, 3, response.Pagination.TotalPages)
}
