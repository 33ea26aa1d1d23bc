package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT APPLICATION COMMAND
// A student submits a curriculum to a company. The application starts the
// workflow in the pending state, waiting for tutor review.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitApplicationCommand contains the data for a student submission.
type SubmitApplicationCommand struct {
	// StudentID is the submitting student (actor identity, already resolved
	// by the interface layer).
	StudentID string

	// CompanyID is the company being applied to.
	CompanyID string

	// Curriculum is the résumé to embed into the application.
	Curriculum application.Curriculum

	// IdempotencyKey deduplicates client retries. Optional.
	IdempotencyKey string
}

// Validate validates the command.
func (c SubmitApplicationCommand) Validate() error {
	if c.StudentID == "" {
		return shared.NewDomainError("application", "Submit", shared.ErrInvalidInput, "student id is required")
	}
	if c.CompanyID == "" {
		return shared.NewDomainError("application", "Submit", shared.ErrInvalidInput, "company id is required")
	}
	return nil
}

// SubmitApplicationResult contains the result of a submission.
type SubmitApplicationResult struct {
	// Application is the created (or, on an idempotent retry, the original)
	// application.
	Application *application.Application

	// Deduplicated is true when an idempotency key matched a previous
	// submission and no new application was created.
	Deduplicated bool
}

// SubmitApplicationHandler handles the SubmitApplicationCommand.
type SubmitApplicationHandler struct {
	applications application.Repository
	users        user.Repository
	idempotency  IdempotencyStore
	idGenerator  IDGenerator
	publisher    shared.EventPublisher
}

// NewSubmitApplicationHandler creates a new SubmitApplicationHandler.
func NewSubmitApplicationHandler(
	applications application.Repository,
	users user.Repository,
	idempotency IdempotencyStore,
	idGenerator IDGenerator,
	publisher shared.EventPublisher,
) *SubmitApplicationHandler {
	return &SubmitApplicationHandler{
		applications: applications,
		users:        users,
		idempotency:  idempotency,
		idGenerator:  idGenerator,
		publisher:    publisher,
	}
}

// Handle executes the submit command.
func (h *SubmitApplicationHandler) Handle(ctx context.Context, cmd SubmitApplicationCommand) (*SubmitApplicationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if cmd.IdempotencyKey != "" {
		if result, err := h.replay(ctx, cmd.IdempotencyKey); result != nil || err != nil {
			return result, err
		}
	}

	student, err := h.users.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, h.fail(ctx, cmd.IdempotencyKey, wrapUserLookup("Submit", "student", err))
	}
	if !student.IsStudent() {
		return nil, h.fail(ctx, cmd.IdempotencyKey,
			shared.NewDomainError("application", "Submit", shared.ErrForbidden, "only students may submit applications"))
	}

	company, err := h.users.GetByID(ctx, cmd.CompanyID)
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return nil, h.fail(ctx, cmd.IdempotencyKey, wrapUserLookup("Submit", "company", err))
	}
	if err != nil || !company.IsCompany() {
		// A missing or non-company target is a caller mistake, not a race.
		return nil, h.fail(ctx, cmd.IdempotencyKey,
			shared.NewDomainError("application", "Submit", shared.ErrValidation, "company does not exist"))
	}

	// At most one open application per student-company pair. This is
	// re-checked here rather than assumed from storage.
	if _, err := h.applications.FindOpenByStudentAndCompany(ctx, cmd.StudentID, cmd.CompanyID); err == nil {
		return nil, h.fail(ctx, cmd.IdempotencyKey,
			shared.NewDomainError("application", "Submit", shared.ErrConflict, "an open application for this company already exists"))
	} else if !errors.Is(err, application.ErrApplicationNotFound) {
		return nil, h.fail(ctx, cmd.IdempotencyKey, wrapStore("application", "Submit", err))
	}

	app, err := application.NewApplication(application.NewApplicationParams{
		ID:          h.idGenerator.GenerateID(),
		StudentID:   cmd.StudentID,
		CompanyID:   cmd.CompanyID,
		StudentName: student.Name,
		CompanyName: company.Name,
		Curriculum:  cmd.Curriculum,
	})
	if err != nil {
		return nil, h.fail(ctx, cmd.IdempotencyKey,
			shared.WrapError("application", "Submit", shared.ErrValidation, "invalid submission", err))
	}

	if err := h.applications.Create(ctx, app); err != nil {
		return nil, h.fail(ctx, cmd.IdempotencyKey, wrapStore("application", "Submit", err))
	}

	if cmd.IdempotencyKey != "" {
		// The application exists; a failed completion only risks a
		// duplicate on retry, it must not fail the submission.
		_ = h.idempotency.Complete(ctx, cmd.IdempotencyKey, app.ID)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewApplicationSubmittedEvent(app.ID, app.StudentID, app.CompanyID))
	}

	return &SubmitApplicationResult{Application: app}, nil
}

// replay resolves an idempotency key. It returns a non-nil result when a
// previous submission under the same key already produced an application.
func (h *SubmitApplicationHandler) replay(ctx context.Context, key string) (*SubmitApplicationResult, error) {
	existingID, ok, err := h.idempotency.Reserve(ctx, key)
	if err != nil {
		return nil, wrapStore("application", "Submit", err)
	}
	if ok {
		return nil, nil
	}
	if existingID == "" {
		return nil, shared.NewDomainError("application", "Submit", shared.ErrConflict, "a submission with this idempotency key is in flight")
	}

	app, err := h.applications.GetByID(ctx, existingID)
	if err != nil {
		return nil, wrapStore("application", "Submit", err)
	}
	return &SubmitApplicationResult{Application: app, Deduplicated: true}, nil
}

// fail releases the idempotency key so the client may retry, then returns err.
func (h *SubmitApplicationHandler) fail(ctx context.Context, key string, err error) error {
	if key != "" {
		_ = h.idempotency.Release(ctx, key)
	}
	return err
}

// wrapUserLookup maps user repository errors for actor/target lookups.
func wrapUserLookup(op, who string, err error) error {
	if errors.Is(err, user.ErrUserNotFound) {
		return shared.WrapError("application", op, shared.ErrNotFound, fmt.Sprintf("%s not found", who), err)
	}
	return wrapStore("application", op, err)
}

// wrapStore maps unexpected store errors, preserving kinds already attached.
func wrapStore(domain, op string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.WrapError(domain, op, shared.ErrStoreUnavailable, "store operation failed", err)
}
