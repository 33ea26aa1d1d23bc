// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - each represents something significant that happened
// in the placement workflow.
const (
	// Application events
	EventApplicationSubmitted EventType = "application.submitted"
	EventApplicationReviewed  EventType = "application.reviewed"
	EventApplicationAccepted  EventType = "application.accepted"
	EventApplicationRejected  EventType = "application.rejected"

	// Internship events
	EventInternshipOpened    EventType = "internship.opened"
	EventHoursLogged         EventType = "internship.hours_logged"
	EventInternshipCompleted EventType = "internship.completed"

	// User events
	EventUserRegistered EventType = "user.registered"

	// System events
	EventAcceptanceRolledBack EventType = "system.acceptance_rolled_back"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Application Events
// ═══════════════════════════════════════════════════════════════════════════

// ApplicationSubmittedEvent is emitted when a student submits a curriculum.
type ApplicationSubmittedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	CompanyID string `json:"company_id"`
}

// Payload implements Event interface.
func (e ApplicationSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"company_id": e.CompanyID,
	}
}

// NewApplicationSubmittedEvent creates an ApplicationSubmittedEvent.
func NewApplicationSubmittedEvent(applicationID, studentID, companyID string) ApplicationSubmittedEvent {
	return ApplicationSubmittedEvent{
		BaseEvent: NewBaseEvent(EventApplicationSubmitted, applicationID),
		StudentID: studentID,
		CompanyID: companyID,
	}
}

// ApplicationReviewedEvent is emitted when a tutor approves or rejects a
// pending application.
type ApplicationReviewedEvent struct {
	BaseEvent
	TutorID  string `json:"tutor_id"`
	Decision string `json:"decision"`
}

// Payload implements Event interface.
func (e ApplicationReviewedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tutor_id": e.TutorID,
		"decision": e.Decision,
	}
}

// NewApplicationReviewedEvent creates an ApplicationReviewedEvent.
func NewApplicationReviewedEvent(applicationID, tutorID, decision string) ApplicationReviewedEvent {
	return ApplicationReviewedEvent{
		BaseEvent: NewBaseEvent(EventApplicationReviewed, applicationID),
		TutorID:   tutorID,
		Decision:  decision,
	}
}

// ApplicationDecidedEvent is emitted when a company accepts or rejects an
// approved application.
type ApplicationDecidedEvent struct {
	BaseEvent
	CompanyID    string `json:"company_id"`
	StudentID    string `json:"student_id"`
	InternshipID string `json:"internship_id,omitempty"`
}

// Payload implements Event interface.
func (e ApplicationDecidedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"company_id":    e.CompanyID,
		"student_id":    e.StudentID,
		"internship_id": e.InternshipID,
	}
}

// NewApplicationAcceptedEvent creates the accepted-side decision event.
func NewApplicationAcceptedEvent(applicationID, companyID, studentID, internshipID string) ApplicationDecidedEvent {
	return ApplicationDecidedEvent{
		BaseEvent:    NewBaseEvent(EventApplicationAccepted, applicationID),
		CompanyID:    companyID,
		StudentID:    studentID,
		InternshipID: internshipID,
	}
}

// NewApplicationRejectedEvent creates the rejected-side decision event.
func NewApplicationRejectedEvent(applicationID, companyID, studentID string) ApplicationDecidedEvent {
	return ApplicationDecidedEvent{
		BaseEvent: NewBaseEvent(EventApplicationRejected, applicationID),
		CompanyID: companyID,
		StudentID: studentID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Internship Events
// ═══════════════════════════════════════════════════════════════════════════

// InternshipOpenedEvent is emitted when an accepted application spawns an
// active internship.
type InternshipOpenedEvent struct {
	BaseEvent
	ApplicationID string `json:"application_id"`
	StudentID     string `json:"student_id"`
	CompanyID     string `json:"company_id"`
}

// Payload implements Event interface.
func (e InternshipOpenedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"application_id": e.ApplicationID,
		"student_id":     e.StudentID,
		"company_id":     e.CompanyID,
	}
}

// NewInternshipOpenedEvent creates an InternshipOpenedEvent.
func NewInternshipOpenedEvent(internshipID, applicationID, studentID, companyID string) InternshipOpenedEvent {
	return InternshipOpenedEvent{
		BaseEvent:     NewBaseEvent(EventInternshipOpened, internshipID),
		ApplicationID: applicationID,
		StudentID:     studentID,
		CompanyID:     companyID,
	}
}

// HoursLoggedEvent is emitted after every successful work log append.
type HoursLoggedEvent struct {
	BaseEvent
	StudentID   string `json:"student_id"`
	Hours       int    `json:"hours"`
	LoggedHours int    `json:"logged_hours"`
}

// Payload implements Event interface.
func (e HoursLoggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":   e.StudentID,
		"hours":        e.Hours,
		"logged_hours": e.LoggedHours,
	}
}

// NewHoursLoggedEvent creates a HoursLoggedEvent.
func NewHoursLoggedEvent(internshipID, studentID string, hours, loggedHours int) HoursLoggedEvent {
	return HoursLoggedEvent{
		BaseEvent:   NewBaseEvent(EventHoursLogged, internshipID),
		StudentID:   studentID,
		Hours:       hours,
		LoggedHours: loggedHours,
	}
}

// InternshipCompletedEvent is emitted when logged hours cross the completion
// threshold.
type InternshipCompletedEvent struct {
	BaseEvent
	StudentID   string `json:"student_id"`
	CompanyID   string `json:"company_id"`
	LoggedHours int    `json:"logged_hours"`
}

// Payload implements Event interface.
func (e InternshipCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":   e.StudentID,
		"company_id":   e.CompanyID,
		"logged_hours": e.LoggedHours,
	}
}

// NewInternshipCompletedEvent creates an InternshipCompletedEvent.
func NewInternshipCompletedEvent(internshipID, studentID, companyID string, loggedHours int) InternshipCompletedEvent {
	return InternshipCompletedEvent{
		BaseEvent:   NewBaseEvent(EventInternshipCompleted, internshipID),
		StudentID:   studentID,
		CompanyID:   companyID,
		LoggedHours: loggedHours,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// AcceptanceRolledBackEvent is emitted when the acceptance flow had to revert
// an application after the internship write failed. Logged for reconciliation.
type AcceptanceRolledBackEvent struct {
	BaseEvent
	CompanyID string `json:"company_id"`
	Reason    string `json:"reason"`
}

// Payload implements Event interface.
func (e AcceptanceRolledBackEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"company_id": e.CompanyID,
		"reason":     e.Reason,
	}
}

// NewAcceptanceRolledBackEvent creates an AcceptanceRolledBackEvent.
func NewAcceptanceRolledBackEvent(applicationID, companyID, reason string) AcceptanceRolledBackEvent {
	return AcceptanceRolledBackEvent{
		BaseEvent: NewBaseEvent(EventAcceptanceRolledBack, applicationID),
		CompanyID: companyID,
		Reason:    reason,
	}
}
