package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bedaya-app/lms-api/internal/models"
)

func TestDeriveAssignmentStatePending(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(10 * 24 * time.Hour)

	state := DeriveAssignmentState(now, due, nil)
	require.Equal(t, StatusPending, state.Status)
	require.Equal(t, 10, state.DaysUntilDue)
	require.False(t, state.Urgent)
}

func TestDeriveAssignmentStateOverdue(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(-3 * 24 * time.Hour)

	state := DeriveAssignmentState(now, due, nil)
	require.Equal(t, StatusOverdue, state.Status)
	require.Equal(t, -3, state.DaysUntilDue)
	require.False(t, state.Urgent)
}

func TestDeriveAssignmentStateSubmittedBeatsOverdue(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(-24 * time.Hour)
	submission := &models.Submission{ID: 1, Status: models.SubmissionStatusLate}

	state := DeriveAssignmentState(now, due, submission)
	require.Equal(t, models.SubmissionStatusSubmitted, state.Status)
}

func TestDeriveAssignmentStateGradedBeatsSubmitted(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)
	grade := 85
	submission := &models.Submission{ID: 1, Grade: &grade}

	state := DeriveAssignmentState(now, due, submission)
	require.Equal(t, models.SubmissionStatusGraded, state.Status)
}

func TestDeriveAssignmentStateUrgentWindow(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		due    time.Time
		urgent bool
	}{
		{"due in two days", now.Add(48 * time.Hour), true},
		{"due today", now, true},
		{"due in three days", now.Add(72 * time.Hour), false},
		{"already overdue", now.Add(-24 * time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := DeriveAssignmentState(now, tc.due, nil)
			require.Equal(t, tc.urgent, state.Urgent)
		})
	}
}

func TestDaysUntilDueRoundsUp(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, 1, DaysUntilDue(now, now.Add(2*time.Hour)))
	require.Equal(t, 0, DaysUntilDue(now, now))
	require.Equal(t, -1, DaysUntilDue(now, now.Add(-30*time.Hour)))
	require.Equal(t, 3, DaysUntilDue(now, now.Add(49*time.Hour)))
}
