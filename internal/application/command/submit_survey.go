package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/survey"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT SURVEY COMMAND
// Validates the 31-question Likert questionnaire, classifies it into a
// career domain, and stores the response. Write-once per student.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitSurveyCommand contains a student's questionnaire answers.
type SubmitSurveyCommand struct {
	StudentID string

	// Answers maps question number (1..31) to rating (1..5).
	Answers map[int]int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SubmitSurveyCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("submit_survey: student_id is required")
	}
	if len(c.Answers) == 0 {
		return errors.New("submit_survey: answers are required")
	}
	return nil
}

// SubmitSurveyResult contains the classification outcome.
type SubmitSurveyResult struct {
	// WinningDomain is the classified best-fit career domain.
	WinningDomain string

	// DomainScores holds the per-domain weighted sums.
	DomainScores map[string]int
}

// SubmitSurveyHandler handles the SubmitSurveyCommand.
type SubmitSurveyHandler struct {
	surveyRepo     survey.Repository
	eventPublisher shared.EventPublisher
}

// NewSubmitSurveyHandler creates a new SubmitSurveyHandler.
func NewSubmitSurveyHandler(surveyRepo survey.Repository, eventPublisher shared.EventPublisher) *SubmitSurveyHandler {
	return &SubmitSurveyHandler{
		surveyRepo:     surveyRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the submit survey command.
func (h *SubmitSurveyHandler) Handle(ctx context.Context, cmd SubmitSurveyCommand) (*SubmitSurveyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_survey: validation failed: %w", err)
	}

	answers := make(survey.Responses, len(cmd.Answers))
	for n, rating := range cmd.Answers {
		answers[survey.Q(n)] = rating
	}

	response, err := survey.NewResponse(cmd.StudentID, answers)
	if err != nil {
		return nil, fmt.Errorf("submit_survey: %w", err)
	}

	if err := h.surveyRepo.Save(ctx, response); err != nil {
		if errors.Is(err, survey.ErrAlreadySubmitted) {
			return nil, survey.ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("submit_survey: failed to save response: %w", err)
	}

	scores := make(map[string]int, len(response.DomainScores))
	for domain, sum := range response.DomainScores {
		scores[string(domain)] = sum
	}

	event := shared.NewSurveyClassifiedEvent(cmd.StudentID, string(response.WinningDomain), scores)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &SubmitSurveyResult{
		WinningDomain: string(response.WinningDomain),
		DomainScores:  scores,
	}, nil
}
