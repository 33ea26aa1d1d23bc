package command

import (
	"context"
	"errors"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW APPLICATION COMMAND
// A tutor reviews a pending application, moving it to approved or rejected.
// The write is a compare-and-swap on the version read here; a concurrent
// reviewer loses and gets an invalid-state error.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewApplicationCommand contains the data for a tutor review.
type ReviewApplicationCommand struct {
	ApplicationID string
	TutorID       string
	Decision      application.ReviewDecision
}

// Validate validates the command.
func (c ReviewApplicationCommand) Validate() error {
	if c.ApplicationID == "" {
		return shared.NewDomainError("application", "Review", shared.ErrInvalidInput, "application id is required")
	}
	if c.TutorID == "" {
		return shared.NewDomainError("application", "Review", shared.ErrInvalidInput, "tutor id is required")
	}
	if !c.Decision.IsValid() {
		return shared.NewDomainError("application", "Review", shared.ErrValidation, "decision must be approved or rejected")
	}
	return nil
}

// ReviewApplicationHandler handles the ReviewApplicationCommand.
type ReviewApplicationHandler struct {
	applications application.Repository
	users        user.Repository
	publisher    shared.EventPublisher
}

// NewReviewApplicationHandler creates a new ReviewApplicationHandler.
func NewReviewApplicationHandler(
	applications application.Repository,
	users user.Repository,
	publisher shared.EventPublisher,
) *ReviewApplicationHandler {
	return &ReviewApplicationHandler{
		applications: applications,
		users:        users,
		publisher:    publisher,
	}
}

// Handle executes the review command.
func (h *ReviewApplicationHandler) Handle(ctx context.Context, cmd ReviewApplicationCommand) (*application.Application, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tutor, err := h.users.GetByID(ctx, cmd.TutorID)
	if err != nil {
		return nil, wrapUserLookup("Review", "tutor", err)
	}
	if !tutor.IsTutor() {
		return nil, shared.NewDomainError("application", "Review", shared.ErrForbidden, "only tutors may review applications")
	}

	app, err := h.applications.GetByID(ctx, cmd.ApplicationID)
	if err != nil {
		if errors.Is(err, application.ErrApplicationNotFound) {
			return nil, shared.WrapError("application", "Review", shared.ErrNotFound, "application not found", err)
		}
		return nil, wrapStore("application", "Review", err)
	}

	expectedVersion := app.Version
	if err := app.Review(cmd.TutorID, tutor.Name, cmd.Decision); err != nil {
		return nil, shared.WrapError("application", "Review", shared.ErrInvalidState, "application is not pending", err)
	}

	if err := h.applications.UpdateStatus(ctx, app, expectedVersion); err != nil {
		switch {
		case errors.Is(err, application.ErrStaleApplication):
			// Someone else reviewed between our read and write.
			return nil, shared.WrapError("application", "Review", shared.ErrInvalidState, "application was reviewed concurrently", err)
		case errors.Is(err, application.ErrApplicationNotFound):
			return nil, shared.WrapError("application", "Review", shared.ErrNotFound, "application not found", err)
		default:
			return nil, wrapStore("application", "Review", err)
		}
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewApplicationReviewedEvent(app.ID, cmd.TutorID, string(cmd.Decision)))
	}

	return app, nil
}
