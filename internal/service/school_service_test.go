package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
)

func setupSchoolService(t *testing.T) (SchoolService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:school_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.School{}, &models.Class{}, &models.User{}))

	service := NewSchoolService(
		repository.NewSchoolRepository(db),
		&stubAuditRecorder{},
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
	return service, db
}

func TestSchoolCreateTrimsFields(t *testing.T) {
	service, _ := setupSchoolService(t)

	school, err := service.Create(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, dto.SchoolCreateRequest{
		Name:        "  South Campus  ",
		Description: " Evening programs ",
	})
	require.NoError(t, err)
	require.Equal(t, "South Campus", school.Name)
	require.Equal(t, "Evening programs", school.Description)
}

func TestSchoolCreateValidatesName(t *testing.T) {
	service, _ := setupSchoolService(t)

	_, err := service.Create(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, dto.SchoolCreateRequest{Name: "A"})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestSchoolDeleteCascadesToClasses(t *testing.T) {
	service, db := setupSchoolService(t)

	school, err := service.Create(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, dto.SchoolCreateRequest{Name: "West Campus"})
	require.NoError(t, err)

	teacher := models.User{Email: "teacher@test.dev", Role: models.RoleTeacher, IsActive: true}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&models.Class{Name: "Art", SchoolID: school.ID, TeacherID: teacher.ID, IsActive: true}).Error)

	require.NoError(t, service.Delete(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, school.ID))

	var classes int64
	require.NoError(t, db.Model(&models.Class{}).Where("school_id = ?", school.ID).Count(&classes).Error)
	require.Zero(t, classes)

	err = service.Delete(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, school.ID)
	require.ErrorIs(t, err, ErrSchoolNotFound)
}

func TestSchoolGetMissing(t *testing.T) {
	service, _ := setupSchoolService(t)

	_, err := service.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrSchoolNotFound)
}
