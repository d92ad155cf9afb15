package query

import (
	"context"
	"errors"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/survey"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SURVEY RESULT QUERY
// Returns the student's stored questionnaire classification. The survey
// is write-once, so this is a stable read.
// ══════════════════════════════════════════════════════════════════════════════

// GetSurveyResultQuery contains the survey result request parameters.
type GetSurveyResultQuery struct {
	// StudentID is the internal student ID.
	StudentID string

	// IncludeAnswers also returns the raw Q1..Q31 ratings.
	IncludeAnswers bool
}

// Validate checks the query parameters.
func (q *GetSurveyResultQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id must be provided")
	}
	return nil
}

// GetSurveyResultResult contains the stored classification.
type GetSurveyResultResult struct {
	// StudentID is the student the result belongs to.
	StudentID string `json:"student_id"`

	// WinningDomain is the classified best-fit career domain.
	WinningDomain string `json:"winning_domain"`

	// DomainScores holds the per-domain weighted sums.
	DomainScores map[string]int `json:"domain_scores"`

	// Answers holds the raw ratings (only when requested).
	Answers map[string]int `json:"answers,omitempty"`

	// SubmittedAt is the submission timestamp.
	SubmittedAt time.Time `json:"submitted_at"`
}

// GetSurveyResultHandler handles survey result queries.
type GetSurveyResultHandler struct {
	surveyRepo survey.Repository
}

// NewGetSurveyResultHandler creates a new handler.
func NewGetSurveyResultHandler(surveyRepo survey.Repository) *GetSurveyResultHandler {
	return &GetSurveyResultHandler{surveyRepo: surveyRepo}
}

// Handle executes the query.
func (h *GetSurveyResultHandler) Handle(ctx context.Context, query GetSurveyResultQuery) (*GetSurveyResultResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetSurveyResult", shared.ErrValidation, err.Error(), err)
	}

	response, err := h.surveyRepo.GetByStudent(ctx, query.StudentID)
	if err != nil {
		if errors.Is(err, survey.ErrResponseNotFound) {
			return nil, shared.WrapError("query", "GetSurveyResult", shared.ErrNotFound, "survey not submitted yet", err)
		}
		return nil, shared.WrapError("query", "GetSurveyResult", shared.ErrInternal, "failed to load survey response", err)
	}

	scores := make(map[string]int, len(response.DomainScores))
	for domain, sum := range response.DomainScores {
		scores[string(domain)] = sum
	}

	result := &GetSurveyResultResult{
		StudentID:     response.StudentID,
		WinningDomain: string(response.WinningDomain),
		DomainScores:  scores,
		SubmittedAt:   response.SubmittedAt,
	}

	if query.IncludeAnswers {
		answers := make(map[string]int, len(response.Answers))
		for question, rating := range response.Answers {
			answers[string(question)] = rating
		}
		result.Answers = answers
	}

	return result, nil
}
