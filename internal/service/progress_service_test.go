package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
)

type progressFixture struct {
	db      *gorm.DB
	service ProgressService
	teacher models.User
	student models.User
	class   models.Class
}

func setupProgressService(t *testing.T) *progressFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:progress_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	class := models.Class{SchoolID: school.ID, TeacherID: teacher.ID, Name: "History", IsActive: true}
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&models.Enrollment{ClassID: class.ID, StudentID: student.ID, Active: true}).Error)

	service := NewProgressService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewClassRepository(db),
		zerolog.Nop(),
	)

	return &progressFixture{db: db, service: service, teacher: teacher, student: student, class: class}
}

func (f *progressFixture) addAssignment(t *testing.T, title string, due time.Time) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		ClassID:     f.class.ID,
		TeacherID:   f.teacher.ID,
		Title:       title,
		DueDate:     due,
		MaxScore:    100,
		IsPublished: true,
	}
	require.NoError(t, f.db.Create(&assignment).Error)
	return assignment
}

func (f *progressFixture) addSubmission(t *testing.T, assignmentID uint, grade *int) {
	t.Helper()
	submission := models.Submission{
		AssignmentID: assignmentID,
		StudentID:    f.student.ID,
		FilePath:     "submissions/test.pdf",
		FileName:     "test.pdf",
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  time.Now(),
		Grade:        grade,
	}
	if grade != nil {
		submission.Status = models.SubmissionStatusGraded
	}
	require.NoError(t, f.db.Create(&submission).Error)
}

func TestStudentProgressEmpty(t *testing.T) {
	f := setupProgressService(t)

	progress, err := f.service.StudentProgress(context.Background(), Actor{ID: f.student.ID, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Zero(t, progress.TotalAssignments)
	require.Zero(t, progress.CompletedAssignments)
	require.Zero(t, progress.PendingAssignments)
	require.Zero(t, progress.AverageGrade)
	require.False(t, progress.HasGrades)
	require.Empty(t, progress.Assignments)
}

func TestStudentProgressCounts(t *testing.T) {
	f := setupProgressService(t)
	due := time.Now().Add(72 * time.Hour)

	a1 := f.addAssignment(t, "One", due)
	a2 := f.addAssignment(t, "Two", due)
	f.addAssignment(t, "Three", due)

	grade := 80
	f.addSubmission(t, a1.ID, &grade)
	f.addSubmission(t, a2.ID, nil)

	progress, err := f.service.StudentProgress(context.Background(), Actor{ID: f.student.ID, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Equal(t, 3, progress.TotalAssignments)
	require.Equal(t, 2, progress.CompletedAssignments)
	require.Equal(t, 1, progress.PendingAssignments)
	require.Equal(t, 1, progress.GradedSubmissions)
	require.Equal(t, 80, progress.AverageGrade)
	require.True(t, progress.HasGrades)
	require.Len(t, progress.Assignments, 3)
}

func TestStudentProgressAverageRounds(t *testing.T) {
	f := setupProgressService(t)
	due := time.Now().Add(72 * time.Hour)

	grades := []int{70, 75, 80}
	for i, g := range grades {
		assignment := f.addAssignment(t, fmt.Sprintf("A%d", i), due)
		grade := g
		f.addSubmission(t, assignment.ID, &grade)
	}

	progress, err := f.service.StudentProgress(context.Background(), Actor{ID: f.student.ID, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Equal(t, 75, progress.AverageGrade)
}

func TestStudentProgressNoGradesNeverDivides(t *testing.T) {
	f := setupProgressService(t)
	assignment := f.addAssignment(t, "One", time.Now().Add(24*time.Hour))
	f.addSubmission(t, assignment.ID, nil)

	progress, err := f.service.StudentProgress(context.Background(), Actor{ID: f.student.ID, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Zero(t, progress.GradedSubmissions)
	require.Zero(t, progress.AverageGrade)
	require.False(t, progress.HasGrades)
}

func TestStudentProgressIgnoresUnpublished(t *testing.T) {
	f := setupProgressService(t)
	assignment := f.addAssignment(t, "Hidden", time.Now().Add(24*time.Hour))
	require.NoError(t, f.db.Model(&assignment).Update("is_published", false).Error)

	progress, err := f.service.StudentProgress(context.Background(), Actor{ID: f.student.ID, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Zero(t, progress.TotalAssignments)
}

func TestClassReportAggregates(t *testing.T) {
	f := setupProgressService(t)

	second := models.User{Email: "second@test.dev", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, f.db.Create(&second).Error)
	require.NoError(t, f.db.Create(&models.Enrollment{ClassID: f.class.ID, StudentID: second.ID, Active: true}).Error)

	assignment := f.addAssignment(t, "Essay", time.Now().Add(24*time.Hour))
	grade := 90
	f.addSubmission(t, assignment.ID, &grade)

	report, err := f.service.ClassReport(context.Background(), Actor{ID: f.teacher.ID, Role: models.RoleTeacher}, f.class.ID)
	require.NoError(t, err)
	require.Equal(t, 2, report.ActiveStudents)
	require.Len(t, report.Assignments, 1)
	require.Equal(t, 1, report.Assignments[0].Submitted)
	require.Equal(t, 1, report.Assignments[0].Pending)
	require.Equal(t, 1, report.Assignments[0].Graded)
	require.Equal(t, 90, report.Assignments[0].AverageGrade)
	require.True(t, report.Assignments[0].HasGrades)
}

func TestClassReportOwnershipEnforced(t *testing.T) {
	f := setupProgressService(t)

	_, err := f.service.ClassReport(context.Background(), Actor{ID: 999, Role: models.RoleTeacher}, f.class.ID)
	require.ErrorIs(t, err, ErrNotClassOwner)

	_, err = f.service.ClassReport(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, f.class.ID)
	require.NoError(t, err)

	_, err = f.service.ClassReport(context.Background(), Actor{ID: f.teacher.ID, Role: models.RoleTeacher}, 404)
	require.ErrorIs(t, err, ErrClassNotFound)
}
