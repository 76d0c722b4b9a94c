package service

import (
	"math"
	"time"

	"github.com/bedaya-app/lms-api/internal/models"
)

// Display-only statuses derived for assignments without a submission.
const (
	StatusPending = "pending"
	StatusOverdue = "overdue"
)

// Days-until-due window, inclusive, inside which an assignment is urgent.
const urgentWindowDays = 2

// AssignmentState is the derived display state for one assignment as seen by
// one student. It is recomputed from "now" on every evaluation and never
// persisted.
type AssignmentState struct {
	Status       string
	DaysUntilDue int
	Urgent       bool
}

// DeriveAssignmentState computes the lifecycle status of an assignment for a
// student. Deterministic given (now, dueDate, submission, grade presence):
// graded when a grade exists, submitted when only a submission exists,
// overdue when the deadline passed with nothing submitted, pending otherwise.
func DeriveAssignmentState(now, dueDate time.Time, submission *models.Submission) AssignmentState {
	days := DaysUntilDue(now, dueDate)

	status := StatusPending
	switch {
	case submission != nil && submission.Grade != nil:
		status = models.SubmissionStatusGraded
	case submission != nil:
		status = models.SubmissionStatusSubmitted
	case now.After(dueDate):
		status = StatusOverdue
	}

	return AssignmentState{
		Status:       status,
		DaysUntilDue: days,
		Urgent:       days >= 0 && days <= urgentWindowDays,
	}
}

// DaysUntilDue returns the whole number of days remaining until the deadline,
// rounded up. Zero means due today, one means due tomorrow; negative values
// mean overdue by that many days.
func DaysUntilDue(now, dueDate time.Time) int {
	return int(math.Ceil(dueDate.Sub(now).Hours() / 24))
}
