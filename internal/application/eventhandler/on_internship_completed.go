package eventhandler

import (
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON INTERNSHIP COMPLETED HANDLER
// Marks the graduation moment in the audit trail. Completion is derived
// state, so this handler never writes back to the internship; it only
// records that the threshold was crossed.
// ══════════════════════════════════════════════════════════════════════════════

// OnInternshipCompletedHandler records internship completions.
type OnInternshipCompletedHandler struct {
	logger *logger.Logger
}

// NewOnInternshipCompletedHandler creates a new OnInternshipCompletedHandler.
func NewOnInternshipCompletedHandler(log *logger.Logger) *OnInternshipCompletedHandler {
	return &OnInternshipCompletedHandler{logger: log}
}

// Subscribe registers the handler on the bus.
func (h *OnInternshipCompletedHandler) Subscribe(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventInternshipOpened, h.onOpened); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventInternshipCompleted, h.onCompleted)
}

func (h *OnInternshipCompletedHandler) onOpened(event shared.Event) error {
	opened, ok := event.(shared.InternshipOpenedEvent)
	if !ok {
		return nil
	}

	h.logger.Info("internship opened",
		logger.InternshipID(opened.AggregateID()),
		logger.ApplicationID(opened.ApplicationID),
		logger.StudentID(opened.StudentID),
		logger.CompanyID(opened.CompanyID),
	)
	return nil
}

func (h *OnInternshipCompletedHandler) onCompleted(event shared.Event) error {
	completed, ok := event.(shared.InternshipCompletedEvent)
	if !ok {
		return nil
	}

	h.logger.Info("internship completed",
		logger.InternshipID(completed.AggregateID()),
		logger.StudentID(completed.StudentID),
		logger.CompanyID(completed.CompanyID),
		logger.LoggedHours(completed.LoggedHours),
	)
	return nil
}
