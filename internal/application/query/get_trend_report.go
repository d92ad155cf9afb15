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
// GET TREND REPORT QUERY
// Classifies each tracked subject's trajectory by comparing the first
// and the most recent score. Fewer than two tests in a subject yields
// the "Not enough data" verdict rather than an error.
// ══════════════════════════════════════════════════════════════════════════════

// GetTrendReportQuery contains the trend request parameters.
type GetTrendReportQuery struct {
	// StudentID is the internal student ID.
	StudentID string
}

// Validate checks the query parameters.
func (q *GetTrendReportQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id must be provided")
	}
	return nil
}

// SubjectTrendDTO is one subject's verdict.
type SubjectTrendDTO struct {
	// Subject is the subject name.
	Subject string `json:"subject"`

	// Trend is the classified trajectory.
	Trend string `json:"trend"`

	// FirstScore is the earliest recorded score (omitted without data).
	FirstScore *int `json:"first_score,omitempty"`

	// LastScore is the most recent recorded score (omitted without data).
	LastScore *int `json:"last_score,omitempty"`

	// SampleSize is how many tests carried this subject.
	SampleSize int `json:"sample_size"`
}

// GetTrendReportResult contains the trend response.
type GetTrendReportResult struct {
	// StudentID is the student the report belongs to.
	StudentID string `json:"student_id"`

	// SubjectSetVersion is the version the report was computed against.
	SubjectSetVersion int `json:"subject_set_version"`

	// Trends holds one verdict per tracked subject, sorted by name.
	Trends []SubjectTrendDTO `json:"trends"`

	// TestCount is the number of tests in the underlying history.
	TestCount int `json:"test_count"`

	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetTrendReportHandler handles trend report queries.
type GetTrendReportHandler struct {
	studentRepo student.Repository
	scoreRepo   assessment.Repository
}

// NewGetTrendReportHandler creates a new handler.
func NewGetTrendReportHandler(studentRepo student.Repository, scoreRepo assessment.Repository) *GetTrendReportHandler {
	return &GetTrendReportHandler{
		studentRepo: studentRepo,
		scoreRepo:   scoreRepo,
	}
}

// Handle executes the query.
func (h *GetTrendReportHandler) Handle(ctx context.Context, query GetTrendReportQuery) (*GetTrendReportResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetTrendReport", shared.ErrValidation, err.Error(), err)
	}

	stud, err := h.studentRepo.GetByID(ctx, query.StudentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetTrendReport", shared.ErrNotFound, "student not found", err)
	}

	history, err := h.scoreRepo.GetHistoryByVersion(ctx, stud.ID, stud.SubjectSet.Version)
	if err != nil {
		return nil, shared.WrapError("query", "GetTrendReport", shared.ErrInternal, "failed to load history", err)
	}

	subjects := history.Subjects()
	trends := make([]SubjectTrendDTO, 0, len(subjects))
	for _, subject := range subjects {
		scores := history.SubjectScores(subject)

		dto := SubjectTrendDTO{
			Subject:    subject,
			Trend:      string(assessment.AnalyzeTrend(scores)),
			SampleSize: len(scores),
		}
		if len(scores) > 0 {
			first, last := scores[0], scores[len(scores)-1]
			dto.FirstScore = &first
			dto.LastScore = &last
		}
		trends = append(trends, dto)
	}

	return &GetTrendReportResult{
		StudentID:         stud.ID,
		SubjectSetVersion: stud.SubjectSet.Version,
		Trends:            trends,
		TestCount:         len(history.Records),
		GeneratedAt:       time.Now().UTC(),
	}, nil
}
