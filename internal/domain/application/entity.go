// Package application contains the domain model for internship applications.
// This is the core of the placement workflow - here there are no external
// dependencies, only the state machine and its invariants.
package application

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Curriculum is a free-text résumé embedded into an application by value at
// submission time. It has no lifecycle of its own.
type Curriculum struct {
	// Summary - short self-description. Required.
	Summary string

	// Education - degrees and coursework. Required.
	Education string

	// Experience - prior work experience.
	Experience string

	// Skills - technical and soft skills.
	Skills string

	// About - anything the student wants to add.
	About string
}

// Validate checks that the required fields are present.
func (c Curriculum) Validate() error {
	if strings.TrimSpace(c.Summary) == "" {
		return ErrCurriculumIncomplete
	}
	if strings.TrimSpace(c.Education) == "" {
		return ErrCurriculumIncomplete
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the workflow state of an application.
//
// Transitions are monotonic and one-directional:
//
//	pending  --tutor review-->   approved | rejected
//	approved --company decide--> accepted | rejected
//
// rejected (from either stage) and accepted are terminal and never revisited.
type Status string

const (
	// StatusPending - submitted, awaiting tutor review.
	StatusPending Status = "pending"
	// StatusApproved - endorsed by a tutor, awaiting company decision.
	StatusApproved Status = "approved"
	// StatusRejected - declined by the tutor or the company. Terminal.
	StatusRejected Status = "rejected"
	// StatusAccepted - offered an internship by the company. Terminal.
	StatusAccepted Status = "accepted"
)

// IsValid checks that the status is one of the known workflow states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusAccepted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status can never change again.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusAccepted
}

// IsOpen reports whether the application still occupies the student-company
// pair: at most one open application per pair may exist at a time.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusApproved
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ReviewDecision is the tutor's verdict on a pending application.
type ReviewDecision string

const (
	// ReviewApproved - the tutor endorses the application.
	ReviewApproved ReviewDecision = "approved"
	// ReviewRejected - the tutor declines the application.
	ReviewRejected ReviewDecision = "rejected"
)

// IsValid checks that the decision is one of the two verdicts.
func (d ReviewDecision) IsValid() bool {
	return d == ReviewApproved || d == ReviewRejected
}

// CompanyDecision is the company's verdict on an approved application.
type CompanyDecision string

const (
	// DecisionAccepted - the company offers the internship.
	DecisionAccepted CompanyDecision = "accepted"
	// DecisionRejected - the company declines the candidate.
	DecisionRejected CompanyDecision = "rejected"
)

// IsValid checks that the decision is one of the two verdicts.
func (d CompanyDecision) IsValid() bool {
	return d == DecisionAccepted || d == DecisionRejected
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// Application represents one student's candidacy to one company.
// Applications are never deleted; they serve as the audit trail of the
// placement workflow.
type Application struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// StudentID - the applying student.
	StudentID string

	// CompanyID - the company applied to.
	CompanyID string

	// Curriculum - the résumé snapshot captured at submission.
	Curriculum Curriculum

	// Status - current workflow state.
	Status Status

	// StudentName, CompanyName - display names copied at submission time.
	// A non-normalized read cache, not a live reference: renames after
	// submission are deliberately not reflected here.
	StudentName string
	CompanyName string

	// TutorID, TutorName - set when a tutor reviews the application.
	TutorID   string
	TutorName string

	// SubmittedAt - time of submission.
	SubmittedAt time.Time

	// ReviewedAt - time of the tutor verdict, zero until reviewed.
	ReviewedAt time.Time

	// AcceptedAt, RejectedAt - terminal transition timestamps.
	AcceptedAt time.Time
	RejectedAt time.Time

	// Version - revision counter for compare-and-swap writes.
	Version int64
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrApplicationNotFound - application not found.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrCurriculumIncomplete - required curriculum fields are missing.
	ErrCurriculumIncomplete = errors.New("curriculum is incomplete: summary and education are required")

	// ErrNotPending - tutor review attempted on a non-pending application.
	ErrNotPending = errors.New("application is not pending review")

	// ErrNotApproved - company decision attempted before tutor approval.
	ErrNotApproved = errors.New("application is not approved")

	// ErrWrongCompany - company decision attempted by a different company.
	ErrWrongCompany = errors.New("application belongs to another company")

	// ErrOpenApplicationExists - the student already has an open application
	// for this company.
	ErrOpenApplicationExists = errors.New("an open application for this company already exists")

	// ErrInvalidDecision - unknown review or company decision.
	ErrInvalidDecision = errors.New("invalid decision")

	// ErrStaleApplication - a compare-and-swap write lost against a concurrent
	// transition on the same application.
	ErrStaleApplication = errors.New("application was modified concurrently")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewApplicationParams contains parameters for a student submission.
type NewApplicationParams struct {
	ID          string
	StudentID   string
	CompanyID   string
	StudentName string
	CompanyName string
	Curriculum  Curriculum
}

// NewApplication creates a pending application with validation.
func NewApplication(params NewApplicationParams) (*Application, error) {
	if params.ID == "" {
		return nil, errors.New("application id is required")
	}
	if params.StudentID == "" {
		return nil, errors.New("student id is required")
	}
	if params.CompanyID == "" {
		return nil, errors.New("company id is required")
	}
	if err := params.Curriculum.Validate(); err != nil {
		return nil, err
	}

	return &Application{
		ID:          params.ID,
		StudentID:   params.StudentID,
		CompanyID:   params.CompanyID,
		Curriculum:  params.Curriculum,
		Status:      StatusPending,
		StudentName: strings.TrimSpace(params.StudentName),
		CompanyName: strings.TrimSpace(params.CompanyName),
		SubmittedAt: time.Now().UTC(),
		Version:     1,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (State Machine)
// ══════════════════════════════════════════════════════════════════════════════

// Review applies the tutor verdict. Only a pending application can be
// reviewed; this is the single transition available to the tutor role.
func (a *Application) Review(tutorID, tutorName string, decision ReviewDecision) error {
	if !decision.IsValid() {
		return ErrInvalidDecision
	}
	if a.Status != StatusPending {
		return ErrNotPending
	}

	now := time.Now().UTC()
	a.TutorID = tutorID
	a.TutorName = strings.TrimSpace(tutorName)
	a.ReviewedAt = now

	switch decision {
	case ReviewApproved:
		a.Status = StatusApproved
	case ReviewRejected:
		a.Status = StatusRejected
		a.RejectedAt = now
	}

	return nil
}

// Decide applies the company verdict. Only an approved application can be
// decided, and only by the company it was addressed to.
func (a *Application) Decide(companyID string, decision CompanyDecision) error {
	if !decision.IsValid() {
		return ErrInvalidDecision
	}
	if a.Status != StatusApproved {
		return ErrNotApproved
	}
	if a.CompanyID != companyID {
		return ErrWrongCompany
	}

	now := time.Now().UTC()
	switch decision {
	case DecisionAccepted:
		a.Status = StatusAccepted
		a.AcceptedAt = now
	case DecisionRejected:
		a.Status = StatusRejected
		a.RejectedAt = now
	}

	return nil
}

// RevertAcceptance is the compensating transition used when the internship
// write failed after the application was already marked accepted. It is the
// only sanctioned move out of a terminal state and exists solely so the
// acceptance flow can undo its first write.
func (a *Application) RevertAcceptance() error {
	if a.Status != StatusAccepted {
		return ErrNotApproved
	}
	a.Status = StatusApproved
	a.AcceptedAt = time.Time{}
	return nil
}

// String returns a string representation for logging.
func (a *Application) String() string {
	return fmt.Sprintf(
		"Application{ID: %s, Student: %s, Company: %s, Status: %s}",
		a.ID, a.StudentID, a.CompanyID, a.Status,
	)
}

// Clone creates a deep copy of the application.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
