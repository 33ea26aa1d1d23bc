package internship

import (
	"context"
)

// Repository defines persistence operations for internships.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Create persists a newly opened internship.
	// Returns ErrActiveInternshipExists if the student already has an
	// active internship (enforced at the store level as well, so two
	// racing acceptance flows cannot both create one).
	Create(ctx context.Context, i *Internship) error

	// GetByID returns an internship by ID.
	// Returns ErrInternshipNotFound if the internship does not exist.
	GetByID(ctx context.Context, id string) (*Internship, error)

	// Update persists a mutation (work log append, completion). The write
	// succeeds only if the stored version still equals expectedVersion;
	// otherwise ErrStaleInternship is returned. On success the internship's
	// Version is incremented.
	Update(ctx context.Context, i *Internship, expectedVersion int64) error

	// Delete removes an internship. Used only by the acceptance flow's
	// compensation path; regular operation never deletes.
	Delete(ctx context.Context, id string) error

	// FindActiveByStudent returns the student's active internship, if any.
	// Returns ErrInternshipNotFound when the student has no active placement.
	FindActiveByStudent(ctx context.Context, studentID string) (*Internship, error)

	// FindByApplicationID returns the internship opened by the acceptance
	// of the given application, regardless of its current status.
	// Returns ErrInternshipNotFound when the application never opened one.
	FindByApplicationID(ctx context.Context, applicationID string) (*Internship, error)

	// ListByCompany returns a company's internships, newest first.
	ListByCompany(ctx context.Context, companyID string) ([]*Internship, error)
}
