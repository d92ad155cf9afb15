package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/assessment"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/guidance"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST GUIDANCE COMMAND
// Builds the deterministic prompt from the student's profile and score
// history, calls the external model exactly once, and archives successful
// replies. The call is the only impure step: any failure is converted
// into a displayable string prefixed with the error marker so the caller
// always gets renderable text back.
// ══════════════════════════════════════════════════════════════════════════════

// GuidanceTextCache caches generated guidance text per student and
// subject-set version. Implementations live in infrastructure.
type GuidanceTextCache interface {
	Get(ctx context.Context, studentID string, subjectSetVersion int) (string, bool, error)
	Set(ctx context.Context, studentID string, subjectSetVersion int, text string) error
}

// RequestGuidanceCommand asks for fresh guidance text for a student.
type RequestGuidanceCommand struct {
	StudentID string

	// Refresh bypasses the guidance cache.
	Refresh bool

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RequestGuidanceCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("request_guidance: student_id is required")
	}
	return nil
}

// RequestGuidanceResult carries the guidance text back to the caller.
type RequestGuidanceResult struct {
	// Text is the guidance to display. When Failed is true it begins
	// with the error marker instead of model output.
	Text string

	// Failed reports whether the external call failed.
	Failed bool

	// Cached reports whether the text was served from cache.
	Cached bool

	// RecordID identifies the archived record; empty when Failed or Cached.
	RecordID string

	// Model names the model that served the request; empty when Failed or Cached.
	Model string
}

// RequestGuidanceHandler handles the RequestGuidanceCommand.
type RequestGuidanceHandler struct {
	studentRepo    student.Repository
	scoreRepo      assessment.Repository
	guidanceRepo   guidance.Repository
	generator      guidance.Generator
	eventPublisher shared.EventPublisher

	// cache is optional; nil disables guidance caching.
	cache GuidanceTextCache
}

// NewRequestGuidanceHandler creates a new RequestGuidanceHandler.
func NewRequestGuidanceHandler(
	studentRepo student.Repository,
	scoreRepo assessment.Repository,
	guidanceRepo guidance.Repository,
	generator guidance.Generator,
	eventPublisher shared.EventPublisher,
) *RequestGuidanceHandler {
	return &RequestGuidanceHandler{
		studentRepo:    studentRepo,
		scoreRepo:      scoreRepo,
		guidanceRepo:   guidanceRepo,
		generator:      generator,
		eventPublisher: eventPublisher,
	}
}

// WithCache enables guidance caching on the handler.
func (h *RequestGuidanceHandler) WithCache(cache GuidanceTextCache) *RequestGuidanceHandler {
	h.cache = cache
	return h
}

// Handle executes the request guidance command.
//
// Errors are returned only for failures before the prompt is built
// (unknown student, storage trouble). Once the external call starts,
// failures come back inside the result as marker-prefixed text.
func (h *RequestGuidanceHandler) Handle(ctx context.Context, cmd RequestGuidanceCommand) (*RequestGuidanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("request_guidance: validation failed: %w", err)
	}

	stud, err := h.studentRepo.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("request_guidance: failed to load student: %w", err)
	}

	if h.cache != nil && !cmd.Refresh {
		if text, ok, err := h.cache.Get(ctx, stud.ID, stud.SubjectSet.Version); err == nil && ok {
			return &RequestGuidanceResult{Text: text, Cached: true}, nil
		}
	}

	history, err := h.scoreRepo.GetHistoryByVersion(ctx, stud.ID, stud.SubjectSet.Version)
	if err != nil {
		return nil, fmt.Errorf("request_guidance: failed to load score history: %w", err)
	}

	req := guidance.NewRequest(stud.DisplayName, history, stud.Location, stud.Interest)
	prompt := guidance.BuildPrompt(req)

	// One attempt, no retry. Users re-ask explicitly if they want
	// another try; silent retries would double-bill the upstream quota.
	generation, err := h.generator.Generate(ctx, prompt)
	if err != nil {
		return h.failed(cmd, err), nil
	}
	if generation.Text == "" {
		return h.failed(cmd, guidance.ErrEmptyText), nil
	}

	record, err := guidance.NewRecord(uuid.New().String(), stud.ID, prompt, generation.Text, generation.Model)
	if err != nil {
		return h.failed(cmd, err), nil
	}

	if err := h.guidanceRepo.Append(ctx, record); err != nil {
		// The text is good even if archiving broke; still show it.
		record.ID = ""
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, stud.ID, stud.SubjectSet.Version, record.Text)
	}

	event := shared.NewGuidanceGeneratedEvent(stud.ID, record.ID, record.Model, len(prompt))
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RequestGuidanceResult{
		Text:     record.Text,
		RecordID: record.ID,
		Model:    record.Model,
	}, nil
}

// failed renders the marker-prefixed string and publishes the failure
// event. Failed generations are never archived.
func (h *RequestGuidanceHandler) failed(cmd RequestGuidanceCommand, cause error) *RequestGuidanceResult {
	event := shared.NewGuidanceFailedEvent(cmd.StudentID, cause.Error())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RequestGuidanceResult{
		Text:   fmt.Sprintf("%s %s", guidance.ErrorMarker, cause.Error()),
		Failed: true,
	}
}
