// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/assessment"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SCORE HISTORY QUERY
// Returns a student's chronological test history for the current
// subject-set version, shaped for direct JSON rendering.
// ══════════════════════════════════════════════════════════════════════════════

// GetScoreHistoryQuery contains the history request parameters.
type GetScoreHistoryQuery struct {
	// StudentID is the internal student ID.
	StudentID string

	// SubjectSetVersion restricts the history to one version
	// (0 = the student's current version).
	SubjectSetVersion int

	// AllVersions returns the full history across versions.
	AllVersions bool
}

// Validate checks the query parameters.
func (q *GetScoreHistoryQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id must be provided")
	}
	if q.SubjectSetVersion < 0 {
		return errors.New("subject_set_version cannot be negative")
	}
	return nil
}

// ScoreRecordDTO is one test row.
type ScoreRecordDTO struct {
	// RecordID is the record's internal ID.
	RecordID string `json:"record_id"`

	// Subjects maps subject name to score.
	Subjects map[string]int `json:"subjects"`

	// ClassLabel is the class at the time of the test.
	ClassLabel string `json:"class_label"`

	// SubjectSetVersion is the version the record was entered under.
	SubjectSetVersion int `json:"subject_set_version"`

	// EnteredAt is the entry timestamp.
	EnteredAt time.Time `json:"entered_at"`
}

// GetScoreHistoryResult contains the history response.
type GetScoreHistoryResult struct {
	// StudentID is the student the history belongs to.
	StudentID string `json:"student_id"`

	// Subjects lists the tracked subject names, sorted.
	Subjects []string `json:"subjects"`

	// Records holds the tests in chronological order.
	Records []ScoreRecordDTO `json:"records"`

	// Count is the number of records returned.
	Count int `json:"count"`

	// GeneratedAt is when the response was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetScoreHistoryHandler handles score history queries.
type GetScoreHistoryHandler struct {
	studentRepo student.Repository
	scoreRepo   assessment.Repository
}

// NewGetScoreHistoryHandler creates a new handler.
func NewGetScoreHistoryHandler(studentRepo student.Repository, scoreRepo assessment.Repository) *GetScoreHistoryHandler {
	return &GetScoreHistoryHandler{
		studentRepo: studentRepo,
		scoreRepo:   scoreRepo,
	}
}

// Handle executes the query.
func (h *GetScoreHistoryHandler) Handle(ctx context.Context, query GetScoreHistoryQuery) (*GetScoreHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetScoreHistory", shared.ErrValidation, err.Error(), err)
	}

	stud, err := h.studentRepo.GetByID(ctx, query.StudentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetScoreHistory", shared.ErrNotFound, "student not found", err)
	}

	var history assessment.ScoreHistory
	switch {
	case query.AllVersions:
		history, err = h.scoreRepo.GetHistory(ctx, stud.ID)
	case query.SubjectSetVersion > 0:
		history, err = h.scoreRepo.GetHistoryByVersion(ctx, stud.ID, query.SubjectSetVersion)
	default:
		history, err = h.scoreRepo.GetHistoryByVersion(ctx, stud.ID, stud.SubjectSet.Version)
	}
	if err != nil {
		return nil, shared.WrapError("query", "GetScoreHistory", shared.ErrInternal, "failed to load history", err)
	}

	records := make([]ScoreRecordDTO, 0, len(history.Records))
	for _, record := range history.Records {
		records = append(records, ScoreRecordDTO{
			RecordID:          record.ID,
			Subjects:          record.Subjects,
			ClassLabel:        record.ClassLabel,
			SubjectSetVersion: record.SubjectSetVersion,
			EnteredAt:         record.EnteredAt,
		})
	}

	return &GetScoreHistoryResult{
		StudentID:   stud.ID,
		Subjects:    history.Subjects(),
		Records:     records,
		Count:       len(records),
		GeneratedAt: time.Now().UTC(),
	}, nil
}
