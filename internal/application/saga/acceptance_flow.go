// Package saga contains multi-step business processes that span aggregates.
// Sagas ensure consistency across operations and handle compensation on failures.
package saga

import (
	"context"
	"errors"
	"time"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
	"github.com/pasantia-hub/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCEPTANCE FLOW SAGA
// The company verdict on an approved application. A rejection is a single
// state transition; an acceptance is a two-step process spanning aggregates:
//
//	Mark Application Accepted (CAS) → Open Internship → Publish Events
//
// When opening the internship fails, the flow compensates by reverting the
// application to approved. If the compensation write itself fails, the caller
// gets a partial-failure error and a rollback event is published for
// reconciliation.
// ══════════════════════════════════════════════════════════════════════════════

// IDGenerator generates unique identifiers for new internships.
type IDGenerator interface {
	GenerateID() string
}

// IdempotencyStore deduplicates retried decisions. It shares the contract of
// the command layer's store.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (existingID string, ok bool, err error)
	Complete(ctx context.Context, key, entityID string) error
	Release(ctx context.Context, key string) error
}

// DecideApplicationInput contains the company verdict.
type DecideApplicationInput struct {
	ApplicationID string
	CompanyID     string
	Decision      application.CompanyDecision

	// IdempotencyKey deduplicates client retries. Optional.
	IdempotencyKey string
}

// Validate checks if the input is valid.
func (in DecideApplicationInput) Validate() error {
	if in.ApplicationID == "" {
		return shared.NewDomainError("application", "Decide", shared.ErrInvalidInput, "application id is required")
	}
	if in.CompanyID == "" {
		return shared.NewDomainError("application", "Decide", shared.ErrInvalidInput, "company id is required")
	}
	if !in.Decision.IsValid() {
		return shared.NewDomainError("application", "Decide", shared.ErrValidation, "decision must be accepted or rejected")
	}
	return nil
}

// DecideApplicationResult contains the outcome of the flow.
type DecideApplicationResult struct {
	// Application reflects the final state of the application.
	Application *application.Application

	// Internship is the placement opened on acceptance, nil on rejection.
	Internship *internship.Internship

	// Deduplicated is true when an idempotency key matched a previous
	// decision and nothing new was written.
	Deduplicated bool

	// ProcessedAt - when the flow completed.
	ProcessedAt time.Time
}

// AcceptanceFlow orchestrates the company decision across the application
// and internship aggregates.
type AcceptanceFlow struct {
	applications application.Repository
	internships  internship.Repository
	users        user.Repository
	idempotency  IdempotencyStore
	idGenerator  IDGenerator
	publisher    shared.EventPublisher
	logger       *logger.Logger
}

// NewAcceptanceFlow creates a new AcceptanceFlow.
func NewAcceptanceFlow(
	applications application.Repository,
	internships internship.Repository,
	users user.Repository,
	idempotency IdempotencyStore,
	idGenerator IDGenerator,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *AcceptanceFlow {
	return &AcceptanceFlow{
		applications: applications,
		internships:  internships,
		users:        users,
		idempotency:  idempotency,
		idGenerator:  idGenerator,
		publisher:    publisher,
		logger:       log,
	}
}

// Execute runs the decision flow.
func (f *AcceptanceFlow) Execute(ctx context.Context, input DecideApplicationInput) (*DecideApplicationResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != "" {
		result, err := f.replay(ctx, input.IdempotencyKey)
		if result != nil || err != nil {
			return result, err
		}
	}

	result, err := f.decideOnce(ctx, input)
	if err != nil {
		if input.IdempotencyKey != "" {
			_ = f.idempotency.Release(ctx, input.IdempotencyKey)
		}
		return nil, err
	}

	if input.IdempotencyKey != "" {
		_ = f.idempotency.Complete(ctx, input.IdempotencyKey, result.Application.ID)
	}
	return result, nil
}

func (f *AcceptanceFlow) decideOnce(ctx context.Context, input DecideApplicationInput) (*DecideApplicationResult, error) {
	company, err := f.users.GetByID(ctx, input.CompanyID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, shared.WrapError("application", "Decide", shared.ErrNotFound, "company not found", err)
		}
		return nil, storeFailure("Decide", err)
	}
	if !company.IsCompany() {
		return nil, shared.NewDomainError("application", "Decide", shared.ErrForbidden, "only companies may decide applications")
	}

	app, err := f.applications.GetByID(ctx, input.ApplicationID)
	if err != nil {
		if errors.Is(err, application.ErrApplicationNotFound) {
			return nil, shared.WrapError("application", "Decide", shared.ErrNotFound, "application not found", err)
		}
		return nil, storeFailure("Decide", err)
	}

	expectedVersion := app.Version
	if err := app.Decide(input.CompanyID, input.Decision); err != nil {
		switch {
		case errors.Is(err, application.ErrWrongCompany):
			return nil, shared.WrapError("application", "Decide", shared.ErrForbidden, "application belongs to another company", err)
		case errors.Is(err, application.ErrNotApproved):
			return nil, shared.WrapError("application", "Decide", shared.ErrInvalidState, "application is not approved", err)
		default:
			return nil, shared.WrapError("application", "Decide", shared.ErrValidation, "invalid decision", err)
		}
	}

	// Step 1: commit the verdict. Losing the CAS means another decision won
	// the race; the caller sees the same error as a wrong-state request.
	if err := f.applications.UpdateStatus(ctx, app, expectedVersion); err != nil {
		switch {
		case errors.Is(err, application.ErrStaleApplication):
			return nil, shared.WrapError("application", "Decide", shared.ErrInvalidState, "application was decided concurrently", err)
		case errors.Is(err, application.ErrApplicationNotFound):
			return nil, shared.WrapError("application", "Decide", shared.ErrNotFound, "application not found", err)
		default:
			return nil, storeFailure("Decide", err)
		}
	}

	result := &DecideApplicationResult{Application: app, ProcessedAt: time.Now().UTC()}

	if input.Decision == application.DecisionRejected {
		if f.publisher != nil {
			_ = f.publisher.Publish(shared.NewApplicationRejectedEvent(app.ID, app.CompanyID, app.StudentID))
		}
		return result, nil
	}

	// Step 2: open the internship.
	ship, err := internship.NewInternship(internship.NewInternshipParams{
		ID:            f.idGenerator.GenerateID(),
		ApplicationID: app.ID,
		StudentID:     app.StudentID,
		CompanyID:     app.CompanyID,
	})
	if err != nil {
		return nil, f.compensate(ctx, app, shared.WrapError("internship", "Decide", shared.ErrInvalidInput, "failed to open internship", err))
	}

	if err := f.internships.Create(ctx, ship); err != nil {
		var cause error
		if errors.Is(err, internship.ErrActiveInternshipExists) {
			cause = shared.WrapError("internship", "Decide", shared.ErrConflict, "student already has an active internship", err)
		} else {
			cause = storeFailure("Decide", err)
		}
		return nil, f.compensate(ctx, app, cause)
	}

	if f.publisher != nil {
		_ = f.publisher.Publish(shared.NewApplicationAcceptedEvent(app.ID, app.CompanyID, app.StudentID, ship.ID))
		_ = f.publisher.Publish(shared.NewInternshipOpenedEvent(ship.ID, app.ID, ship.StudentID, ship.CompanyID))
	}

	result.Internship = ship
	return result, nil
}

// compensate reverts the accepted application back to approved after a
// failed internship open. cause is the error that triggered the rollback
// and is always returned to the caller; a failed rollback upgrades it to a
// partial failure.
func (f *AcceptanceFlow) compensate(ctx context.Context, app *application.Application, cause error) error {
	expectedVersion := app.Version
	if err := app.RevertAcceptance(); err != nil {
		return f.partialFailure(app, cause, err)
	}
	if err := f.applications.UpdateStatus(ctx, app, expectedVersion); err != nil {
		return f.partialFailure(app, cause, err)
	}

	if f.logger != nil {
		f.logger.Warn("acceptance rolled back",
			logger.ApplicationID(app.ID),
			logger.Err(cause),
		)
	}
	if f.publisher != nil {
		_ = f.publisher.Publish(shared.NewAcceptanceRolledBackEvent(app.ID, app.CompanyID, cause.Error()))
	}
	return cause
}

// partialFailure reports an acceptance whose rollback also failed. The
// application is stored as accepted with no internship behind it, which
// requires reconciliation.
func (f *AcceptanceFlow) partialFailure(app *application.Application, cause, rollbackErr error) error {
	if f.logger != nil {
		f.logger.Error("acceptance rollback failed, application left accepted without internship",
			logger.ApplicationID(app.ID),
			logger.String("cause", cause.Error()),
			logger.Err(rollbackErr),
		)
	}
	if f.publisher != nil {
		_ = f.publisher.Publish(shared.NewAcceptanceRolledBackEvent(app.ID, app.CompanyID, "rollback failed: "+rollbackErr.Error()))
	}
	return shared.WrapError("application", "Decide", shared.ErrPartialFailure,
		"application accepted but internship could not be opened", cause)
}

// replay resolves an idempotency key against a previously completed decision.
func (f *AcceptanceFlow) replay(ctx context.Context, key string) (*DecideApplicationResult, error) {
	existingID, ok, err := f.idempotency.Reserve(ctx, key)
	if err != nil {
		return nil, storeFailure("Decide", err)
	}
	if ok {
		return nil, nil
	}
	if existingID == "" {
		return nil, shared.NewDomainError("application", "Decide", shared.ErrConflict, "a decision with this idempotency key is in flight")
	}

	app, err := f.applications.GetByID(ctx, existingID)
	if err != nil {
		return nil, storeFailure("Decide", err)
	}

	result := &DecideApplicationResult{Application: app, Deduplicated: true, ProcessedAt: time.Now().UTC()}
	if app.Status == application.StatusAccepted {
		ship, err := f.internships.FindByApplicationID(ctx, app.ID)
		if err != nil && !errors.Is(err, internship.ErrInternshipNotFound) {
			return nil, storeFailure("Decide", err)
		}
		if err == nil {
			result.Internship = ship
		}
	}
	return result, nil
}

func storeFailure(op string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.WrapError("application", op, shared.ErrStoreUnavailable, "store operation failed", err)
}
