package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
	"github.com/bedaya-app/lms-api/internal/service"
)

type memoryBlobStore struct {
	keys []string
}

func (m *memoryBlobStore) Upload(ctx context.Context, key string, reader io.Reader) error {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return err
	}
	m.keys = append(m.keys, key)
	return nil
}

func (m *memoryBlobStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://files.test.dev/" + key + "?token=stub", nil
}

func (m *memoryBlobStore) Delete(ctx context.Context, key string) error {
	return nil
}

type noopAudit struct{}

func (noopAudit) Enqueue(entry service.AuditEntry) {}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type submissionHandlerFixture struct {
	app     *fiber.App
	db      *gorm.DB
	teacher models.User
	student models.User
}

// asUser injects the authenticated identity the way the JWT middleware does,
// so routes run with real role scoping but without token plumbing.
func asUser(user models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		return c.Next()
	}
}

func setupSubmissionRoutes(t *testing.T) *submissionHandlerFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.School{}, &models.Class{}, &models.Enrollment{},
		&models.Assignment{}, &models.Submission{},
	))

	school := models.School{Name: "Main Campus"}
	require.NoError(t, db.Create(&school).Error)

	teacher := models.User{Email: "teacher@test.dev", Name: "Ada", Role: models.RoleTeacher, IsActive: true}
	student := models.User{Email: "student@test.dev", Name: "Sam", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)

	class := models.Class{Name: "History", SchoolID: school.ID, TeacherID: teacher.ID, IsActive: true}
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&models.Enrollment{ClassID: class.ID, StudentID: student.ID, Active: true}).Error)

	assignment := models.Assignment{
		ClassID:     class.ID,
		TeacherID:   teacher.ID,
		Title:       "Sources Essay",
		DueDate:     time.Now().Add(72 * time.Hour),
		MaxScore:    100,
		IsPublished: true,
	}
	require.NoError(t, db.Create(&assignment).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	submissions := service.NewSubmissionService(
		repository.NewSubmissionRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewEnrollmentRepository(db),
		&memoryBlobStore{},
		noopAudit{},
		validate,
		service.SubmissionPolicy{},
		zerolog.Nop(),
	)
	grading := service.NewGradingService(repository.NewSubmissionRepository(db), noopAudit{}, validate, zerolog.Nop())

	handler := NewSubmissionHandler(submissions, grading, zerolog.Nop())

	app := fiber.New()
	studentGroup := app.Group("/student/submissions", asUser(student))
	handler.RegisterStudent(studentGroup)
	teacherGroup := app.Group("/teacher/submissions", asUser(teacher))
	handler.RegisterTeacher(teacherGroup)

	return &submissionHandlerFixture{app: app, db: db, teacher: teacher, student: student}
}

func multipartSubmission(t *testing.T, assignmentID uint, filename string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("assignment_id", fmt.Sprintf("%d", assignmentID)))
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPost, "/student/submissions", body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}

func decodeEnvelope(t *testing.T, response *http.Response) envelope {
	t.Helper()
	defer response.Body.Close()

	var decoded envelope
	require.NoError(t, json.NewDecoder(response.Body).Decode(&decoded))
	return decoded
}

func TestSubmitAndGradeFlow(t *testing.T) {
	f := setupSubmissionRoutes(t)

	pdf := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 64)...)
	response, err := f.app.Test(multipartSubmission(t, 1, "essay.pdf", pdf))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, response.StatusCode)

	created := decodeEnvelope(t, response)
	require.True(t, created.Success)

	var submission dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(created.Data, &submission))
	require.Equal(t, models.SubmissionStatusSubmitted, submission.Status)

	gradeBody, err := json.Marshal(dto.GradeRequest{Grade: "92", Feedback: "Strong argument"})
	require.NoError(t, err)
	gradeRequest := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/teacher/submissions/%d/grade", submission.ID), bytes.NewReader(gradeBody))
	gradeRequest.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	response, err = f.app.Test(gradeRequest)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, response.StatusCode)

	graded := decodeEnvelope(t, response)
	var result dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(graded.Data, &result))
	require.NotNil(t, result.Grade)
	require.Equal(t, 92, *result.Grade)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
}

func TestGradeOutOfRangeReturnsBadRequest(t *testing.T) {
	f := setupSubmissionRoutes(t)

	pdf := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 64)...)
	response, err := f.app.Test(multipartSubmission(t, 1, "essay.pdf", pdf))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, response.StatusCode)

	created := decodeEnvelope(t, response)
	var submission dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(created.Data, &submission))

	gradeBody, err := json.Marshal(dto.GradeRequest{Grade: "101"})
	require.NoError(t, err)
	gradeRequest := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/teacher/submissions/%d/grade", submission.ID), bytes.NewReader(gradeBody))
	gradeRequest.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	response, err = f.app.Test(gradeRequest)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, response.StatusCode)

	failed := decodeEnvelope(t, response)
	require.False(t, failed.Success)
	require.Contains(t, failed.Message, "between 0 and 100")
}

func TestSubmissionMissingFileReturnsBadRequest(t *testing.T) {
	f := setupSubmissionRoutes(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("assignment_id", "1"))
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPost, "/student/submissions", body)
	request.Header.Set("Content-Type", writer.FormDataContentType())

	response, err := f.app.Test(request)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, response.StatusCode)
}

func TestWrongFileTypeReturnsUnsupportedMedia(t *testing.T) {
	f := setupSubmissionRoutes(t)

	response, err := f.app.Test(multipartSubmission(t, 1, "essay.pdf", []byte("plain text pretending")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnsupportedMediaType, response.StatusCode)
}
