package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bedaya-app/lms-api/internal/config"
	"github.com/bedaya-app/lms-api/internal/handler"
	"github.com/bedaya-app/lms-api/internal/middleware"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	ProgressHandler   *handler.ProgressHandler
	LessonHandler     *handler.LessonHandler
	AdminHandler      *handler.AdminHandler
	AuditHandler      *handler.AuditHandler
	JWTMiddleware     fiber.Handler
	SessionMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	sessionMiddleware := deps.SessionMiddleware
	if sessionMiddleware == nil {
		sessionMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.Use(middleware.RateLimit("auth", 10, time.Minute))
		deps.AuthHandler.RegisterPublic(auth)

		protected := api.Group("/auth", jwtMiddleware, sessionMiddleware)
		deps.AuthHandler.RegisterProtected(protected)
	}

	student := api.Group("/student", jwtMiddleware, sessionMiddleware, middleware.RequireRole(models.RoleStudent))
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterStudent(student.Group("/assignments"))
	}
	if deps.SubmissionHandler != nil {
		submissions := student.Group("/submissions")
		submissions.Use(middleware.RateLimit("student_submissions", 30, time.Minute))
		deps.SubmissionHandler.RegisterStudent(submissions)
	}
	if deps.LessonHandler != nil {
		deps.LessonHandler.RegisterStudent(student.Group("/lessons"))
	}
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.RegisterStudent(student)
	}

	teacher := api.Group("/teacher", jwtMiddleware, sessionMiddleware, middleware.RequireRole(models.RoleTeacher, models.RoleAdmin))
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterTeacher(teacher.Group("/assignments"))
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterTeacher(teacher.Group("/submissions"))
	}
	if deps.LessonHandler != nil {
		deps.LessonHandler.RegisterTeacher(teacher.Group("/lessons"))
	}
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.RegisterTeacher(teacher)
	}

	admin := api.Group("/admin", jwtMiddleware, sessionMiddleware, middleware.RequireRole(models.RoleAdmin))
	if deps.AdminHandler != nil {
		deps.AdminHandler.Register(admin)
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(admin.Group("/audit"))
	}
}
