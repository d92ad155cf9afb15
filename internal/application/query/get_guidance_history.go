package query

import (
	"context"
	"errors"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/guidance"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET GUIDANCE HISTORY QUERY
// Returns a student's archived guidance exchanges, newest first. Only
// successful generations are archived, so every row carries real text.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultGuidanceHistoryLimit bounds unpaginated history reads.
const DefaultGuidanceHistoryLimit = 20

// GetGuidanceHistoryQuery contains the history request parameters.
type GetGuidanceHistoryQuery struct {
	// StudentID is the internal student ID.
	StudentID string

	// Limit caps the number of records (0 = default).
	Limit int

	// IncludePrompts also returns the rendered prompts.
	IncludePrompts bool
}

// Validate checks the query parameters.
func (q *GetGuidanceHistoryQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id must be provided")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 || q.Limit > 100 {
		q.Limit = DefaultGuidanceHistoryLimit
	}
	return nil
}

// GuidanceRecordDTO is one archived exchange.
type GuidanceRecordDTO struct {
	// RecordID is the record's internal ID.
	RecordID string `json:"record_id"`

	// Text is the guidance text the model returned.
	Text string `json:"text"`

	// Model names the model that produced the text.
	Model string `json:"model"`

	// Prompt is the rendered prompt (only when requested).
	Prompt string `json:"prompt,omitempty"`

	// CreatedAt is the archive timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// GetGuidanceHistoryResult contains the history response.
type GetGuidanceHistoryResult struct {
	// StudentID is the student the history belongs to.
	StudentID string `json:"student_id"`

	// Records holds the exchanges, newest first.
	Records []GuidanceRecordDTO `json:"records"`

	// Count is the number of records returned.
	Count int `json:"count"`

	// GeneratedAt is when the response was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetGuidanceHistoryHandler handles guidance history queries.
type GetGuidanceHistoryHandler struct {
	guidanceRepo guidance.Repository
}

// NewGetGuidanceHistoryHandler creates a new handler.
func NewGetGuidanceHistoryHandler(guidanceRepo guidance.Repository) *GetGuidanceHistoryHandler {
	return &GetGuidanceHistoryHandler{guidanceRepo: guidanceRepo}
}

// Handle executes the query.
func (h *GetGuidanceHistoryHandler) Handle(ctx context.Context, query GetGuidanceHistoryQuery) (*GetGuidanceHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetGuidanceHistory", shared.ErrValidation, err.Error(), err)
	}

	records, err := h.guidanceRepo.ListByStudent(ctx, query.StudentID, query.Limit)
	if err != nil {
		return nil, shared.WrapError("query", "GetGuidanceHistory", shared.ErrInternal, "failed to load guidance history", err)
	}

	dtos := make([]GuidanceRecordDTO, 0, len(records))
	for _, record := range records {
		dto := GuidanceRecordDTO{
			RecordID:  record.ID,
			Text:      record.Text,
			Model:     record.Model,
			CreatedAt: record.CreatedAt,
		}
		if query.IncludePrompts {
			dto.Prompt = record.Prompt
		}
		dtos = append(dtos, dto)
	}

	return &GetGuidanceHistoryResult{
		StudentID:   query.StudentID,
		Records:     dtos,
		Count:       len(dtos),
		GeneratedAt: time.Now().UTC(),
	}, nil
}
