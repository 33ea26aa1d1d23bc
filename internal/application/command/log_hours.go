package command

import (
	"context"
	"errors"
	"time"

	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG HOURS COMMAND
// The enrolled student records worked hours against an active internship.
// Crossing the completion threshold flips the internship to completed in the
// same write.
// ══════════════════════════════════════════════════════════════════════════════

// LogHoursCommand contains the data for a work log entry.
type LogHoursCommand struct {
	InternshipID string
	StudentID    string
	Date         time.Time
	Hours        int
	Description  string

	// IdempotencyKey deduplicates client retries. Optional.
	IdempotencyKey string
}

// Validate validates the command.
func (c LogHoursCommand) Validate() error {
	if c.InternshipID == "" {
		return shared.NewDomainError("internship", "LogHours", shared.ErrInvalidInput, "internship id is required")
	}
	if c.StudentID == "" {
		return shared.NewDomainError("internship", "LogHours", shared.ErrInvalidInput, "student id is required")
	}
	return nil
}

// LogHoursResult contains the result of logging hours.
type LogHoursResult struct {
	Internship *internship.Internship

	// Completed is true when this entry pushed the internship over the
	// completion threshold.
	Completed bool

	// Deduplicated is true when an idempotency key matched a previous entry
	// and no new hours were recorded.
	Deduplicated bool
}

// LogHoursHandler handles the LogHoursCommand.
type LogHoursHandler struct {
	internships internship.Repository
	idempotency IdempotencyStore
	publisher   shared.EventPublisher
}

// NewLogHoursHandler creates a new LogHoursHandler.
func NewLogHoursHandler(
	internships internship.Repository,
	idempotency IdempotencyStore,
	publisher shared.EventPublisher,
) *LogHoursHandler {
	return &LogHoursHandler{
		internships: internships,
		idempotency: idempotency,
		publisher:   publisher,
	}
}

// Handle executes the log-hours command.
func (h *LogHoursHandler) Handle(ctx context.Context, cmd LogHoursCommand) (*LogHoursResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if cmd.IdempotencyKey != "" {
		existingID, ok, err := h.idempotency.Reserve(ctx, cmd.IdempotencyKey)
		if err != nil {
			return nil, wrapStore("internship", "LogHours", err)
		}
		if !ok {
			if existingID == "" {
				return nil, shared.NewDomainError("internship", "LogHours", shared.ErrConflict, "an entry with this idempotency key is in flight")
			}
			current, err := h.internships.GetByID(ctx, existingID)
			if err != nil {
				return nil, wrapStore("internship", "LogHours", err)
			}
			return &LogHoursResult{Internship: current, Deduplicated: true}, nil
		}
	}

	result, err := h.logOnce(ctx, cmd)
	if err != nil {
		if cmd.IdempotencyKey != "" {
			_ = h.idempotency.Release(ctx, cmd.IdempotencyKey)
		}
		return nil, err
	}

	if cmd.IdempotencyKey != "" {
		_ = h.idempotency.Complete(ctx, cmd.IdempotencyKey, result.Internship.ID)
	}
	return result, nil
}

func (h *LogHoursHandler) logOnce(ctx context.Context, cmd LogHoursCommand) (*LogHoursResult, error) {
	ship, err := h.internships.GetByID(ctx, cmd.InternshipID)
	if err != nil {
		if errors.Is(err, internship.ErrInternshipNotFound) {
			return nil, shared.WrapError("internship", "LogHours", shared.ErrNotFound, "internship not found", err)
		}
		return nil, wrapStore("internship", "LogHours", err)
	}

	expectedVersion := ship.Version
	entry := internship.LogEntry{Date: cmd.Date, Hours: cmd.Hours, Description: cmd.Description}
	if err := ship.LogHours(cmd.StudentID, entry); err != nil {
		switch {
		case errors.Is(err, internship.ErrNotOwner):
			return nil, shared.WrapError("internship", "LogHours", shared.ErrForbidden, "only the enrolled student may log hours", err)
		case errors.Is(err, internship.ErrNotActive):
			return nil, shared.WrapError("internship", "LogHours", shared.ErrInvalidState, "internship is not active", err)
		default:
			return nil, shared.WrapError("internship", "LogHours", shared.ErrValidation, "invalid log entry", err)
		}
	}

	if err := h.internships.Update(ctx, ship, expectedVersion); err != nil {
		switch {
		case errors.Is(err, internship.ErrStaleInternship):
			return nil, shared.WrapError("internship", "LogHours", shared.ErrInvalidState, "internship was modified concurrently", err)
		case errors.Is(err, internship.ErrInternshipNotFound):
			return nil, shared.WrapError("internship", "LogHours", shared.ErrNotFound, "internship not found", err)
		default:
			return nil, wrapStore("internship", "LogHours", err)
		}
	}

	completed := ship.Status == internship.StatusCompleted
	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewHoursLoggedEvent(ship.ID, ship.StudentID, cmd.Hours, ship.LoggedHours))
		if completed {
			_ = h.publisher.Publish(shared.NewInternshipCompletedEvent(ship.ID, ship.StudentID, ship.CompanyID, ship.LoggedHours))
		}
	}

	return &LogHoursResult{Internship: ship, Completed: completed}, nil
}
