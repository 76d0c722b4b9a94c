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

type classFixture struct {
	db      *gorm.DB
	service ClassService
	school  models.School
	teacher models.User
	student models.User
}

func setupClassService(t *testing.T) *classFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:class_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.School{}, &models.Class{}, &models.Enrollment{},
	))

	school := models.School{Name: "West Campus"}
	require.NoError(t, db.Create(&school).Error)

	teacher := models.User{Email: "teacher@test.dev", Name: "Ada", Role: models.RoleTeacher, IsActive: true}
	student := models.User{Email: "student@test.dev", Name: "Sam", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	service := NewClassService(
		repository.NewClassRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewUserRepository(db),
		repository.NewSchoolRepository(db),
		&stubAuditRecorder{},
		validate,
		zerolog.Nop(),
	)

	return &classFixture{db: db, service: service, school: school, teacher: teacher, student: student}
}

func (f *classFixture) admin() Actor {
	return Actor{ID: 1, Role: models.RoleAdmin}
}

func (f *classFixture) createClass(t *testing.T) dto.ClassResponse {
	t.Helper()
	class, err := f.service.Create(context.Background(), f.admin(), dto.ClassCreateRequest{
		Name:      "Biology",
		SchoolID:  f.school.ID,
		TeacherID: f.teacher.ID,
	})
	require.NoError(t, err)
	return class
}

func TestClassCreateEmbedsNames(t *testing.T) {
	f := setupClassService(t)

	class := f.createClass(t)
	require.Equal(t, "Biology", class.Name)
	require.Equal(t, "West Campus", class.SchoolName)
	require.Equal(t, "Ada", class.TeacherName)
	require.True(t, class.IsActive)
}

func TestClassCreateRejectsNonTeacher(t *testing.T) {
	f := setupClassService(t)

	_, err := f.service.Create(context.Background(), f.admin(), dto.ClassCreateRequest{
		Name:      "Biology",
		SchoolID:  f.school.ID,
		TeacherID: f.student.ID,
	})
	require.ErrorIs(t, err, ErrTeacherRoleRequired)
}

func TestEnrollCreatesActiveRecord(t *testing.T) {
	f := setupClassService(t)
	class := f.createClass(t)

	enrollment, err := f.service.Enroll(context.Background(), f.admin(), class.ID, dto.EnrollRequest{StudentID: f.student.ID})
	require.NoError(t, err)
	require.True(t, enrollment.Active)
	require.Equal(t, "Sam", enrollment.StudentName)
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	f := setupClassService(t)
	class := f.createClass(t)

	_, err := f.service.Enroll(context.Background(), f.admin(), class.ID, dto.EnrollRequest{StudentID: f.student.ID})
	require.NoError(t, err)

	_, err = f.service.Enroll(context.Background(), f.admin(), class.ID, dto.EnrollRequest{StudentID: f.student.ID})
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestEnrollReactivatesInsteadOfDuplicating(t *testing.T) {
	f := setupClassService(t)
	class := f.createClass(t)

	first, err := f.service.Enroll(context.Background(), f.admin(), class.ID, dto.EnrollRequest{StudentID: f.student.ID})
	require.NoError(t, err)

	require.NoError(t, f.service.Unenroll(context.Background(), f.admin(), class.ID, f.student.ID))

	second, err := f.service.Enroll(context.Background(), f.admin(), class.ID, dto.EnrollRequest{StudentID: f.student.ID})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.True(t, second.Active)

	var count int64
	require.NoError(t, f.db.Model(&models.Enrollment{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestEnrollRejectsNonStudent(t *testing.T) {
	f := setupClassService(t)
	class := f.createClass(t)

	_, err := f.service.Enroll(context.Background(), f.admin(), class.ID, dto.EnrollRequest{StudentID: f.teacher.ID})
	require.ErrorIs(t, err, ErrStudentRoleRequired)
}

func TestUnenrollIsIdempotent(t *testing.T) {
	f := setupClassService(t)
	class := f.createClass(t)

	_, err := f.service.Enroll(context.Background(), f.admin(), class.ID, dto.EnrollRequest{StudentID: f.student.ID})
	require.NoError(t, err)

	require.NoError(t, f.service.Unenroll(context.Background(), f.admin(), class.ID, f.student.ID))
	require.NoError(t, f.service.Unenroll(context.Background(), f.admin(), class.ID, f.student.ID))
}

func TestRosterListsEnrollments(t *testing.T) {
	f := setupClassService(t)
	class := f.createClass(t)

	_, err := f.service.Enroll(context.Background(), f.admin(), class.ID, dto.EnrollRequest{StudentID: f.student.ID})
	require.NoError(t, err)

	roster, err := f.service.Roster(context.Background(), class.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, f.student.ID, roster[0].StudentID)
}
