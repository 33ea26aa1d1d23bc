package internship

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const studentID = "3f2504e0-4f89-41d3-9a0c-0305e82c3302"

func newTestInternship(t *testing.T) *Internship {
	t.Helper()
	i, err := NewInternship(NewInternshipParams{
		ID:            "3f2504e0-4f89-41d3-9a0c-0305e82c3310",
		ApplicationID: "3f2504e0-4f89-41d3-9a0c-0305e82c3301",
		StudentID:     studentID,
		CompanyID:     "3f2504e0-4f89-41d3-9a0c-0305e82c3303",
	})
	require.NoError(t, err)
	return i
}

func TestNewInternship(t *testing.T) {
	i := newTestInternship(t)

	assert.Equal(t, StatusActive, i.Status)
	assert.Zero(t, i.LoggedHours)
	assert.Empty(t, i.WorkLog)
	assert.False(t, i.StartDate.IsZero())
	assert.True(t, i.IsConsistent())
}

func TestInternship_LogHours(t *testing.T) {
	i := newTestInternship(t)

	err := i.LogHours(studentID, LogEntry{Hours: 8, Description: "onboarding"})
	require.NoError(t, err)

	assert.Equal(t, 8, i.LoggedHours)
	require.Len(t, i.WorkLog, 1)
	assert.Equal(t, "onboarding", i.WorkLog[0].Description)
	assert.False(t, i.WorkLog[0].Date.IsZero())
	assert.Equal(t, StatusActive, i.Status)
	assert.True(t, i.IsConsistent())
}

func TestInternship_LogHours_HoursOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		hours int
	}{
		{"zero", 0},
		{"negative", -5},
		{"over a day", 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := newTestInternship(t)

			err := i.LogHours(studentID, LogEntry{Hours: tt.hours, Description: "x"})
			assert.ErrorIs(t, err, ErrHoursOutOfRange)

			// State unchanged on failure.
			assert.Zero(t, i.LoggedHours)
			assert.Empty(t, i.WorkLog)
		})
	}
}

func TestInternship_LogHours_EmptyDescription(t *testing.T) {
	i := newTestInternship(t)

	err := i.LogHours(studentID, LogEntry{Hours: 4, Description: "   "})
	assert.ErrorIs(t, err, ErrEmptyDescription)
	assert.Zero(t, i.LoggedHours)
}

func TestInternship_LogHours_NotOwner(t *testing.T) {
	i := newTestInternship(t)

	err := i.LogHours("somebody-else", LogEntry{Hours: 5, Description: "x"})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Zero(t, i.LoggedHours)
	assert.Empty(t, i.WorkLog)
}

func TestInternship_CompletionAtThreshold(t *testing.T) {
	i := newTestInternship(t)

	// 180 = 15 entries of 12 hours; completion fires exactly on the last one.
	for n := 0; n < 15; n++ {
		require.NoError(t, i.LogHours(studentID, LogEntry{Hours: 12, Description: "shift"}))
	}

	assert.Equal(t, CompletionThreshold, i.LoggedHours)
	assert.Equal(t, StatusCompleted, i.Status)
	assert.True(t, i.IsConsistent())

	// Completed is terminal: further logging fails, state untouched.
	err := i.LogHours(studentID, LogEntry{Hours: 1, Description: "extra"})
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, CompletionThreshold, i.LoggedHours)
	assert.Len(t, i.WorkLog, 15)
}

func TestInternship_OverLoggingCrossesThreshold(t *testing.T) {
	i := newTestInternship(t)

	// 8 entries of 24 = 192: the final entry overshoots the threshold and
	// is kept in full.
	for n := 0; n < 8; n++ {
		require.NoError(t, i.LogHours(studentID, LogEntry{Hours: 24, Description: "long shift"}))
	}

	assert.Equal(t, 192, i.LoggedHours)
	assert.Equal(t, StatusCompleted, i.Status)
	assert.True(t, i.IsConsistent())
}

func TestInternship_Progress(t *testing.T) {
	tests := []struct {
		name        string
		loggedHours int
		wantPercent float64
	}{
		{"empty", 0, 0},
		{"halfway", 90, 50.0},
		{"exactly at threshold", 180, 100.0},
		{"over-logged, no clamping", 270, 150.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := newTestInternship(t)
			i.LoggedHours = tt.loggedHours

			p := i.Progress()
			assert.Equal(t, tt.loggedHours, p.LoggedHours)
			assert.Equal(t, CompletionThreshold, p.Threshold)
			assert.InDelta(t, tt.wantPercent, p.Percent, 0.0001)
		})
	}
}

func TestInternship_WorkLogPreservesSubmissionOrder(t *testing.T) {
	i := newTestInternship(t)

	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for n := 0; n < 5; n++ {
		require.NoError(t, i.LogHours(studentID, LogEntry{
			// Dates deliberately descending: ordering is insertion order,
			// not chronological re-sorting.
			Date:        day.AddDate(0, 0, -n),
			Hours:       n + 1,
			Description: "entry",
		}))
	}

	require.Len(t, i.WorkLog, 5)
	for n := 0; n < 5; n++ {
		assert.Equal(t, n+1, i.WorkLog[n].Hours)
	}
	assert.True(t, i.IsConsistent())
}

func TestInternship_Clone(t *testing.T) {
	i := newTestInternship(t)
	require.NoError(t, i.LogHours(studentID, LogEntry{Hours: 3, Description: "setup"}))

	clone := i.Clone()
	require.NoError(t, clone.LogHours(studentID, LogEntry{Hours: 4, Description: "more"}))

	assert.Equal(t, 3, i.LoggedHours)
	assert.Equal(t, 7, clone.LoggedHours)
	assert.Len(t, i.WorkLog, 1)
	assert.Len(t, clone.WorkLog, 2)
}
