package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
)

// ProgressService computes aggregate progress statistics. Results are
// recomputed from the submission tables on every call, never cached, so a
// grade recorded a moment ago is visible immediately.
type ProgressService interface {
	StudentProgress(ctx context.Context, actor Actor) (dto.StudentProgressResponse, error)
	ClassReport(ctx context.Context, actor Actor, classID uint) (dto.ClassReportResponse, error)
}

type progressService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentRepository
	classes     repository.ClassRepository
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewProgressService constructs a ProgressService instance.
func NewProgressService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	enrollments repository.EnrollmentRepository,
	classes repository.ClassRepository,
	logger zerolog.Logger,
) ProgressService {
	return &progressService{
		assignments: assignments,
		submissions: submissions,
		enrollments: enrollments,
		classes:     classes,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		tracer:      otel.Tracer("progress-service"),
		now:         time.Now,
	}
}

// StudentProgress aggregates the acting student's standing across all
// published assignments in their active classes. An assignment counts as
// completed once any submission exists for it, graded or not.
func (s *progressService) StudentProgress(ctx context.Context, actor Actor) (dto.StudentProgressResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.student")
	defer span.End()

	enrollments, err := s.enrollments.ListActiveByStudent(ctx, actor.ID)
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	classIDs := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		classIDs = append(classIDs, enrollment.ClassID)
	}

	var assignments []models.Assignment
	if len(classIDs) > 0 {
		assignments, err = s.assignments.List(ctx, repository.AssignmentFilter{
			ClassIDs:      classIDs,
			PublishedOnly: true,
		})
		if err != nil {
			return dto.StudentProgressResponse{}, err
		}
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &actor.ID})
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	byAssignment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = submission
	}

	now := s.now()
	response := dto.StudentProgressResponse{
		TotalAssignments: len(assignments),
		Assignments:      make([]dto.AssignmentProgress, 0, len(assignments)),
	}

	gradeSum := 0
	for _, assignment := range assignments {
		var submissionRef *models.Submission
		if submission, ok := byAssignment[assignment.ID]; ok {
			submissionRef = &submission
			response.CompletedAssignments++
		}

		state := DeriveAssignmentState(now, assignment.DueDate, submissionRef)

		entry := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			ClassName:    assignment.Class.Name,
			DueDate:      assignment.DueDate,
			MaxScore:     assignment.MaxScore,
			Status:       state.Status,
			DaysUntilDue: state.DaysUntilDue,
			Urgent:       state.Urgent,
		}

		if submissionRef != nil && submissionRef.IsGraded() {
			entry.Grade = submissionRef.Grade
			response.GradedSubmissions++
			gradeSum += *submissionRef.Grade
		}

		response.Assignments = append(response.Assignments, entry)
	}

	response.PendingAssignments = response.TotalAssignments - response.CompletedAssignments

	if response.GradedSubmissions > 0 {
		response.HasGrades = true
		response.AverageGrade = int(math.Round(float64(gradeSum) / float64(response.GradedSubmissions)))
	}

	return response, nil
}

// ClassReport summarizes submission coverage for a class the teacher owns.
func (s *progressService) ClassReport(ctx context.Context, actor Actor, classID uint) (dto.ClassReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.class_report")
	defer span.End()

	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassReportResponse{}, ErrClassNotFound
		}
		return dto.ClassReportResponse{}, err
	}

	if !actor.IsAdmin() && class.TeacherID != actor.ID {
		return dto.ClassReportResponse{}, ErrNotClassOwner
	}

	enrollments, err := s.enrollments.ListByClass(ctx, classID)
	if err != nil {
		return dto.ClassReportResponse{}, err
	}

	activeStudents := 0
	for _, enrollment := range enrollments {
		if enrollment.Active {
			activeStudents++
		}
	}

	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{
		ClassIDs: []uint{classID},
	})
	if err != nil {
		return dto.ClassReportResponse{}, err
	}

	response := dto.ClassReportResponse{
		ClassID:        class.ID,
		ClassName:      class.Name,
		ActiveStudents: activeStudents,
		Assignments:    make([]dto.AssignmentReport, 0, len(assignments)),
	}

	for _, assignment := range assignments {
		assignmentID := assignment.ID
		submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignmentID})
		if err != nil {
			return dto.ClassReportResponse{}, err
		}

		report := dto.AssignmentReport{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
			MaxScore:     assignment.MaxScore,
			Submitted:    len(submissions),
			Pending:      activeStudents - len(submissions),
		}

		gradeSum := 0
		for _, submission := range submissions {
			if submission.IsGraded() {
				report.Graded++
				gradeSum += *submission.Grade
			}
		}
		if report.Graded > 0 {
			report.AverageGrade = int(math.Round(float64(gradeSum) / float64(report.Graded)))
			report.HasGrades = true
		}

		response.Assignments = append(response.Assignments, report)
	}

	return response, nil
}
