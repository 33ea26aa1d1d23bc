// Package internship contains the domain model for active placements.
// An internship is spawned from an accepted application and accumulates
// logged hours until the completion threshold is reached.
package internship

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CompletionThreshold is the number of logged hours after which an
// internship is considered complete.
const CompletionThreshold = 180

// Bounds for a single work log entry.
const (
	MinEntryHours = 1
	MaxEntryHours = 24
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// LogEntry is one immutable work log record. Entries keep insertion order;
// they are never re-sorted or removed.
type LogEntry struct {
	// Date - when the work was done.
	Date time.Time

	// Hours - worked hours, integer in [1, 24].
	Hours int

	// Description - what was done. Never empty.
	Description string
}

// Validate checks the entry bounds.
func (e LogEntry) Validate() error {
	if e.Hours < MinEntryHours || e.Hours > MaxEntryHours {
		return ErrHoursOutOfRange
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// Progress is the read-side report of an internship's advancement.
// Percent is deliberately not clamped: over-logging past the threshold is
// allowed and simply reported above 100.
type Progress struct {
	LoggedHours int     `json:"logged_hours"`
	Threshold   int     `json:"threshold"`
	Percent     float64 `json:"percent"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle state of an internship.
type Status string

const (
	// StatusActive - the student is logging hours.
	StatusActive Status = "active"
	// StatusCompleted - logged hours reached the threshold. Terminal; there
	// is no un-completion operation.
	StatusCompleted Status = "completed"
)

// IsValid checks that the status is one of the known states.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusCompleted
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: INTERNSHIP
// ══════════════════════════════════════════════════════════════════════════════

// Internship represents an active or historical placement. Never deleted.
//
// Invariant: LoggedHours always equals the sum of Hours across WorkLog.
// Both are persisted, but the entity is the single writer keeping them in
// step - the store never mutates one without the other.
type Internship struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// ApplicationID - the accepted application this placement was spawned
	// from. Owning reference; exactly one internship per application.
	ApplicationID string

	// StudentID, CompanyID - copied from the application at acceptance.
	StudentID string
	CompanyID string

	// StartDate - when the placement began.
	StartDate time.Time

	// LoggedHours - total worked hours. Non-negative, monotonically
	// non-decreasing.
	LoggedHours int

	// WorkLog - append-only record of log entries in submission order.
	WorkLog []LogEntry

	// Status - active or completed.
	Status Status

	// Version - revision counter for compare-and-swap writes.
	Version int64
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInternshipNotFound - internship not found.
	ErrInternshipNotFound = errors.New("internship not found")

	// ErrHoursOutOfRange - a log entry's hours fall outside [1, 24].
	ErrHoursOutOfRange = errors.New("hours must be between 1 and 24")

	// ErrEmptyDescription - a log entry's description is empty or whitespace.
	ErrEmptyDescription = errors.New("description must not be empty")

	// ErrNotActive - hour logging attempted on a completed internship.
	ErrNotActive = errors.New("internship is not active")

	// ErrNotOwner - hour logging attempted by someone other than the
	// enrolled student.
	ErrNotOwner = errors.New("only the enrolled student may log hours")

	// ErrActiveInternshipExists - the student already has an active
	// internship.
	ErrActiveInternshipExists = errors.New("student already has an active internship")

	// ErrStaleInternship - a compare-and-swap write lost against a concurrent
	// update of the same internship.
	ErrStaleInternship = errors.New("internship was modified concurrently")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewInternshipParams contains parameters for opening an internship.
type NewInternshipParams struct {
	ID            string
	ApplicationID string
	StudentID     string
	CompanyID     string
	StartDate     time.Time
}

// NewInternship creates an active internship with zero logged hours.
func NewInternship(params NewInternshipParams) (*Internship, error) {
	if params.ID == "" {
		return nil, errors.New("internship id is required")
	}
	if params.ApplicationID == "" {
		return nil, errors.New("application id is required")
	}
	if params.StudentID == "" {
		return nil, errors.New("student id is required")
	}
	if params.CompanyID == "" {
		return nil, errors.New("company id is required")
	}

	startDate := params.StartDate
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}

	return &Internship{
		ID:            params.ID,
		ApplicationID: params.ApplicationID,
		StudentID:     params.StudentID,
		CompanyID:     params.CompanyID,
		StartDate:     startDate,
		LoggedHours:   0,
		WorkLog:       []LogEntry{},
		Status:        StatusActive,
		Version:       1,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// LogHours appends a work log entry on behalf of the enrolled student.
// On success the entry is appended, LoggedHours grows by the entry's hours,
// and the internship flips to completed once the threshold is reached.
// On any error the internship is left untouched.
func (i *Internship) LogHours(actorStudentID string, entry LogEntry) error {
	if actorStudentID != i.StudentID {
		return ErrNotOwner
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if i.Status != StatusActive {
		return ErrNotActive
	}

	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	entry.Description = strings.TrimSpace(entry.Description)

	i.WorkLog = append(i.WorkLog, entry)
	i.LoggedHours += entry.Hours

	if i.LoggedHours >= CompletionThreshold {
		i.Status = StatusCompleted
	}

	return nil
}

// Progress computes the read-side progress report.
func (i *Internship) Progress() Progress {
	return Progress{
		LoggedHours: i.LoggedHours,
		Threshold:   CompletionThreshold,
		Percent:     float64(i.LoggedHours) / float64(CompletionThreshold) * 100,
	}
}

// IsConsistent verifies the LoggedHours == sum(WorkLog) invariant.
// The tracker checks it after every mutation in tests.
func (i *Internship) IsConsistent() bool {
	sum := 0
	for _, e := range i.WorkLog {
		sum += e.Hours
	}
	return sum == i.LoggedHours
}

// String returns a string representation for logging.
func (i *Internship) String() string {
	return fmt.Sprintf(
		"Internship{ID: %s, Student: %s, Hours: %d/%d, Status: %s}",
		i.ID, i.StudentID, i.LoggedHours, CompletionThreshold, i.Status,
	)
}

// Clone creates a deep copy of the internship, including the work log.
func (i *Internship) Clone() *Internship {
	if i == nil {
		return nil
	}
	clone := *i
	clone.WorkLog = make([]LogEntry, len(i.WorkLog))
	copy(clone.WorkLog, i.WorkLog)
	return &clone
}
