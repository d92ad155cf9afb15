// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant
// that happened in the domain.
const (
	// Student events
	EventStudentRegistered EventType = "student.registered"
	EventStudentLoggedIn   EventType = "student.logged_in"
	EventProfileUpdated    EventType = "student.profile_updated"

	// Assessment events
	EventScoreRecorded EventType = "assessment.score_recorded"

	// Survey events
	EventSurveyClassified EventType = "survey.classified"

	// Guidance events
	EventGuidanceGenerated EventType = "guidance.generated"
	EventGuidanceFailed    EventType = "guidance.failed"
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

// EventHandler processes domain events.
type EventHandler interface {
	Handle(event Event) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(event Event) error

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(event Event) error {
	return f(event)
}

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus extends EventPublisher with subscription management.
// Implementations live in infrastructure/messaging.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for every event.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down, waiting for in-flight handlers.
	Close() error
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
// Student Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentRegisteredEvent is emitted when a new student registers.
type StudentRegisteredEvent struct {
	BaseEvent
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	ClassLevel  string `json:"class_level"`
}

// Payload implements Event interface.
func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":        e.Email,
		"display_name": e.DisplayName,
		"class_level":  e.ClassLevel,
	}
}

// NewStudentRegisteredEvent creates a new StudentRegisteredEvent.
func NewStudentRegisteredEvent(studentID, email, displayName, classLevel string) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventStudentRegistered, studentID),
		Email:       email,
		DisplayName: displayName,
		ClassLevel:  classLevel,
	}
}

// ProfileUpdatedEvent is emitted when a student updates their profile.
type ProfileUpdatedEvent struct {
	BaseEvent
	ChangedFields []string `json:"changed_fields"`
}

// Payload implements Event interface.
func (e ProfileUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"changed_fields": e.ChangedFields,
	}
}

// NewProfileUpdatedEvent creates a new ProfileUpdatedEvent.
func NewProfileUpdatedEvent(studentID string, changedFields []string) ProfileUpdatedEvent {
	return ProfileUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventProfileUpdated, studentID),
		ChangedFields: changedFields,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Assessment Events
// ═══════════════════════════════════════════════════════════════════════════

// ScoreRecordedEvent is emitted when a student records a new test entry.
type ScoreRecordedEvent struct {
	BaseEvent
	RecordID   string         `json:"record_id"`
	Subjects   map[string]int `json:"subjects"`
	ClassLabel string         `json:"class_label"`
}

// Payload implements Event interface.
func (e ScoreRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"record_id":   e.RecordID,
		"subjects":    e.Subjects,
		"class_label": e.ClassLabel,
	}
}

// NewScoreRecordedEvent creates a new ScoreRecordedEvent.
func NewScoreRecordedEvent(studentID, recordID string, subjects map[string]int, classLabel string) ScoreRecordedEvent {
	return ScoreRecordedEvent{
		BaseEvent:  NewBaseEvent(EventScoreRecorded, studentID),
		RecordID:   recordID,
		Subjects:   subjects,
		ClassLabel: classLabel,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Survey Events
// ═══════════════════════════════════════════════════════════════════════════

// SurveyClassifiedEvent is emitted when a submitted survey is classified.
type SurveyClassifiedEvent struct {
	BaseEvent
	WinningDomain string         `json:"winning_domain"`
	DomainScores  map[string]int `json:"domain_scores"`
}

// Payload implements Event interface.
func (e SurveyClassifiedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"winning_domain": e.WinningDomain,
		"domain_scores":  e.DomainScores,
	}
}

// NewSurveyClassifiedEvent creates a new SurveyClassifiedEvent.
func NewSurveyClassifiedEvent(studentID, winningDomain string, domainScores map[string]int) SurveyClassifiedEvent {
	return SurveyClassifiedEvent{
		BaseEvent:     NewBaseEvent(EventSurveyClassified, studentID),
		WinningDomain: winningDomain,
		DomainScores:  domainScores,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Guidance Events
// ═══════════════════════════════════════════════════════════════════════════

// GuidanceGeneratedEvent is emitted when guidance text is produced and archived.
type GuidanceGeneratedEvent struct {
	BaseEvent
	RecordID   string `json:"record_id"`
	Model      string `json:"model"`
	PromptSize int    `json:"prompt_size"`
}

// Payload implements Event interface.
func (e GuidanceGeneratedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"record_id":   e.RecordID,
		"model":       e.Model,
		"prompt_size": e.PromptSize,
	}
}

// NewGuidanceGeneratedEvent creates a new GuidanceGeneratedEvent.
func NewGuidanceGeneratedEvent(studentID, recordID, model string, promptSize int) GuidanceGeneratedEvent {
	return GuidanceGeneratedEvent{
		BaseEvent:  NewBaseEvent(EventGuidanceGenerated, studentID),
		RecordID:   recordID,
		Model:      model,
		PromptSize: promptSize,
	}
}

// GuidanceFailedEvent is emitted when the guidance collaborator fails.
// The request itself still succeeds from the student's point of view:
// the handler returns an error string in place of guidance text.
type GuidanceFailedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// Payload implements Event interface.
func (e GuidanceFailedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"reason": e.Reason,
	}
}

// NewGuidanceFailedEvent creates a new GuidanceFailedEvent.
func NewGuidanceFailedEvent(studentID, reason string) GuidanceFailedEvent {
	return GuidanceFailedEvent{
		BaseEvent: NewBaseEvent(EventGuidanceFailed, studentID),
		Reason:    reason,
	}
}
