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

type assignmentFixture struct {
	db      *gorm.DB
	service AssignmentService
	audit   *stubAuditRecorder
	school  models.School
	teacher models.User
	student models.User
	class   models.Class
}

func setupAssignmentService(t *testing.T) *assignmentFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:assignment_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.School{}, &models.Class{}, &models.Enrollment{},
		&models.Assignment{}, &models.Submission{},
	))

	school := models.School{Name: "East Campus"}
	require.NoError(t, db.Create(&school).Error)

	teacher := models.User{Email: "teacher@test.dev", Name: "Ada", Role: models.RoleTeacher, IsActive: true}
	student := models.User{Email: "student@test.dev", Name: "Sam", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)

	class := models.Class{Name: "Algebra", SchoolID: school.ID, TeacherID: teacher.ID, IsActive: true}
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&models.Enrollment{ClassID: class.ID, StudentID: student.ID, Active: true}).Error)

	audit := &stubAuditRecorder{}
	service := NewAssignmentService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewClassRepository(db),
		audit,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)

	return &assignmentFixture{
		db: db, service: service, audit: audit,
		school: school, teacher: teacher, student: student, class: class,
	}
}

func (f *assignmentFixture) teacherActor() Actor {
	return Actor{ID: f.teacher.ID, Role: models.RoleTeacher}
}

func (f *assignmentFixture) studentActor() Actor {
	return Actor{ID: f.student.ID, Role: models.RoleStudent}
}

func (f *assignmentFixture) createRequest(due time.Time) dto.AssignmentCreateRequest {
	return dto.AssignmentCreateRequest{
		ClassID:     f.class.ID,
		Title:       "Chapter 3 Problems",
		DueDate:     due.UTC().Format(time.RFC3339),
		IsPublished: true,
	}
}

func TestAssignmentCreateDefaultsMaxScore(t *testing.T) {
	f := setupAssignmentService(t)

	created, err := f.service.Create(context.Background(), f.teacherActor(), f.createRequest(time.Now().Add(72*time.Hour)))
	require.NoError(t, err)
	require.Equal(t, 100, created.MaxScore)
	require.Equal(t, f.class.ID, created.ClassID)
	require.Equal(t, "Algebra", created.ClassName)

	require.Len(t, f.audit.entries, 1)
	require.Equal(t, "create_assignment", f.audit.entries[0].Action)
}

func TestAssignmentCreateSanitizesMarkup(t *testing.T) {
	f := setupAssignmentService(t)

	request := f.createRequest(time.Now().Add(72 * time.Hour))
	request.Title = "<b>Essay</b> outline"
	request.Description = "<script>alert(1)</script>Compare two sources"

	created, err := f.service.Create(context.Background(), f.teacherActor(), request)
	require.NoError(t, err)
	require.Equal(t, "Essay outline", created.Title)
	require.Equal(t, "Compare two sources", created.Description)
}

func TestAssignmentCreateRejectsForeignClass(t *testing.T) {
	f := setupAssignmentService(t)

	other := models.User{Email: "other@test.dev", Role: models.RoleTeacher, IsActive: true}
	require.NoError(t, f.db.Create(&other).Error)

	_, err := f.service.Create(context.Background(), Actor{ID: other.ID, Role: models.RoleTeacher}, f.createRequest(time.Now().Add(time.Hour)))
	require.ErrorIs(t, err, ErrNotClassOwner)
}

func TestAssignmentCreateUnknownClass(t *testing.T) {
	f := setupAssignmentService(t)

	request := f.createRequest(time.Now().Add(time.Hour))
	request.ClassID = 999

	_, err := f.service.Create(context.Background(), f.teacherActor(), request)
	require.ErrorIs(t, err, ErrClassNotFound)
}

func TestAssignmentCreateValidatesPayload(t *testing.T) {
	f := setupAssignmentService(t)

	overLimit := f.createRequest(time.Now().Add(time.Hour))
	overLimit.MaxScore = 1001
	_, err := f.service.Create(context.Background(), f.teacherActor(), overLimit)
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	badDate := f.createRequest(time.Now().Add(time.Hour))
	badDate.DueDate = "next tuesday"
	_, err = f.service.Create(context.Background(), f.teacherActor(), badDate)
	require.ErrorAs(t, err, &validationErrors)
}

func TestAssignmentListForStudentDerivesStatus(t *testing.T) {
	f := setupAssignmentService(t)

	pending, err := f.service.Create(context.Background(), f.teacherActor(), f.createRequest(time.Now().Add(10*24*time.Hour)))
	require.NoError(t, err)

	urgentReq := f.createRequest(time.Now().Add(24 * time.Hour))
	urgentReq.Title = "Due Tomorrow"
	urgent, err := f.service.Create(context.Background(), f.teacherActor(), urgentReq)
	require.NoError(t, err)

	overdueReq := f.createRequest(time.Now().Add(-48 * time.Hour))
	overdueReq.Title = "Missed Deadline"
	overdue, err := f.service.Create(context.Background(), f.teacherActor(), overdueReq)
	require.NoError(t, err)

	grade := 88
	require.NoError(t, f.db.Create(&models.Submission{
		AssignmentID: urgent.ID,
		StudentID:    f.student.ID,
		FilePath:     "submissions/x.pdf",
		FileName:     "x.pdf",
		FileSize:     10,
		Status:       models.SubmissionStatusGraded,
		SubmittedAt:  time.Now().Add(-time.Hour),
		Grade:        &grade,
	}).Error)

	listing, err := f.service.ListForStudent(context.Background(), f.studentActor())
	require.NoError(t, err)
	require.Len(t, listing, 3)

	byID := make(map[uint]dto.StudentAssignmentResponse, len(listing))
	for _, item := range listing {
		byID[item.ID] = item
	}

	require.Equal(t, StatusPending, byID[pending.ID].Status)
	require.False(t, byID[pending.ID].Urgent)

	require.Equal(t, models.SubmissionStatusGraded, byID[urgent.ID].Status)
	require.NotNil(t, byID[urgent.ID].Grade)
	require.Equal(t, 88, *byID[urgent.ID].Grade)

	require.Equal(t, StatusOverdue, byID[overdue.ID].Status)
	require.Negative(t, byID[overdue.ID].DaysUntilDue)
}

func TestAssignmentListForStudentSkipsUnpublished(t *testing.T) {
	f := setupAssignmentService(t)

	draft := f.createRequest(time.Now().Add(time.Hour))
	draft.IsPublished = false
	_, err := f.service.Create(context.Background(), f.teacherActor(), draft)
	require.NoError(t, err)

	listing, err := f.service.ListForStudent(context.Background(), f.studentActor())
	require.NoError(t, err)
	require.Empty(t, listing)
}

func TestAssignmentGetForStudentHidesUnpublished(t *testing.T) {
	f := setupAssignmentService(t)

	draft := f.createRequest(time.Now().Add(time.Hour))
	draft.IsPublished = false
	created, err := f.service.Create(context.Background(), f.teacherActor(), draft)
	require.NoError(t, err)

	_, err = f.service.GetForStudent(context.Background(), f.studentActor(), created.ID)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentGetForStudentRequiresEnrollment(t *testing.T) {
	f := setupAssignmentService(t)

	created, err := f.service.Create(context.Background(), f.teacherActor(), f.createRequest(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	outsider := models.User{Email: "outsider@test.dev", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, f.db.Create(&outsider).Error)

	_, err = f.service.GetForStudent(context.Background(), Actor{ID: outsider.ID, Role: models.RoleStudent}, created.ID)
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestAssignmentDeleteRequiresOwnership(t *testing.T) {
	f := setupAssignmentService(t)

	created, err := f.service.Create(context.Background(), f.teacherActor(), f.createRequest(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	other := models.User{Email: "other@test.dev", Role: models.RoleTeacher, IsActive: true}
	require.NoError(t, f.db.Create(&other).Error)

	err = f.service.Delete(context.Background(), Actor{ID: other.ID, Role: models.RoleTeacher}, created.ID)
	require.ErrorIs(t, err, ErrNotClassOwner)

	require.NoError(t, f.service.Delete(context.Background(), f.teacherActor(), created.ID))

	err = f.service.Delete(context.Background(), f.teacherActor(), created.ID)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
