// Package eventhandler contains subscribers for domain events. They are the
// reactive part of the system: side effects like audit logging run here,
// decoupled from the command path that produced the event.
package eventhandler

import (
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON APPLICATION DECIDED HANDLER
// Writes the audit trail for company verdicts and for acceptance rollbacks.
// Rollback events are the reconciliation signal: an operator grepping for
// them finds every acceptance that did not produce an internship.
// ══════════════════════════════════════════════════════════════════════════════

// OnApplicationDecidedHandler records company decisions.
type OnApplicationDecidedHandler struct {
	logger *logger.Logger
}

// NewOnApplicationDecidedHandler creates a new OnApplicationDecidedHandler.
func NewOnApplicationDecidedHandler(log *logger.Logger) *OnApplicationDecidedHandler {
	return &OnApplicationDecidedHandler{logger: log}
}

// Subscribe registers the handler on the bus.
func (h *OnApplicationDecidedHandler) Subscribe(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventApplicationAccepted, h.onDecided); err != nil {
		return err
	}
	if err := bus.Subscribe(shared.EventApplicationRejected, h.onDecided); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventAcceptanceRolledBack, h.onRolledBack)
}

func (h *OnApplicationDecidedHandler) onDecided(event shared.Event) error {
	decided, ok := event.(shared.ApplicationDecidedEvent)
	if !ok {
		return nil
	}

	fields := []logger.Field{
		logger.ApplicationID(decided.AggregateID()),
		logger.CompanyID(decided.CompanyID),
		logger.StudentID(decided.StudentID),
		logger.String("decision", string(decided.EventType())),
	}
	if decided.InternshipID != "" {
		fields = append(fields, logger.InternshipID(decided.InternshipID))
	}
	h.logger.Info("application decided", fields...)
	return nil
}

func (h *OnApplicationDecidedHandler) onRolledBack(event shared.Event) error {
	rolled, ok := event.(shared.AcceptanceRolledBackEvent)
	if !ok {
		return nil
	}

	h.logger.Warn("acceptance rolled back",
		logger.ApplicationID(rolled.AggregateID()),
		logger.CompanyID(rolled.CompanyID),
		logger.String("reason", rolled.Reason),
	)
	return nil
}
