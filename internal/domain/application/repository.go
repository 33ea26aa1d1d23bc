package application

import (
	"context"
)

// Repository defines persistence operations for applications.
// Implementations live in infrastructure/persistence.
//
// Transitions go through UpdateStatus, a compare-and-swap against the
// version the caller loaded: the store re-checks the precondition at commit
// time so two racing writers cannot both win.
type Repository interface {
	// Create persists a new application.
	Create(ctx context.Context, app *Application) error

	// GetByID returns an application by ID.
	// Returns ErrApplicationNotFound if the application does not exist.
	GetByID(ctx context.Context, id string) (*Application, error)

	// UpdateStatus persists a state transition. The write succeeds only if
	// the stored version still equals expectedVersion; otherwise
	// ErrStaleApplication is returned (ErrApplicationNotFound if the row is
	// gone). On success the application's Version is incremented.
	UpdateStatus(ctx context.Context, app *Application, expectedVersion int64) error

	// FindOpenByStudentAndCompany returns the open (pending or approved)
	// application for a student-company pair, if any.
	// Returns ErrApplicationNotFound when no open application exists.
	FindOpenByStudentAndCompany(ctx context.Context, studentID, companyID string) (*Application, error)

	// ListByStatus returns applications with the given status, oldest first.
	ListByStatus(ctx context.Context, status Status) ([]*Application, error)

	// ListByCompanyAndStatus returns a company's applications with the given
	// status, oldest first.
	ListByCompanyAndStatus(ctx context.Context, companyID string, status Status) ([]*Application, error)

	// LatestByStudent returns the student's most recently submitted
	// application. Returns ErrApplicationNotFound when the student has never
	// applied.
	LatestByStudent(ctx context.Context, studentID string) (*Application, error)
}
