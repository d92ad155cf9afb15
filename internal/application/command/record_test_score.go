package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/assessment"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD TEST SCORE COMMAND
// Appends one test's subject scores to the student's history. Rows are
// immutable; the record is stamped with the student's current subject-set
// version so old histories survive a subject revision.
// ══════════════════════════════════════════════════════════════════════════════

// RecordTestScoreCommand contains one test's scores.
type RecordTestScoreCommand struct {
	StudentID string

	// Subjects maps subject name to score [0, 100]. Bookkeeping keys
	// such as "Class" or "date" are tolerated and stripped.
	Subjects map[string]int

	// ClassLabel overrides the student's current class level (optional).
	ClassLabel string

	// EnteredAt overrides the entry timestamp (optional, defaults to now).
	EnteredAt time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordTestScoreCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("record_test_score: student_id is required")
	}
	if len(c.Subjects) == 0 {
		return errors.New("record_test_score: at least one subject score is required")
	}
	return nil
}

// RecordTestScoreResult contains the stored record's identity.
type RecordTestScoreResult struct {
	RecordID          string
	SubjectSetVersion int
	EnteredAt         time.Time
}

// RecordTestScoreHandler handles the RecordTestScoreCommand.
type RecordTestScoreHandler struct {
	studentRepo    student.Repository
	scoreRepo      assessment.Repository
	eventPublisher shared.EventPublisher
}

// NewRecordTestScoreHandler creates a new RecordTestScoreHandler.
func NewRecordTestScoreHandler(
	studentRepo student.Repository,
	scoreRepo assessment.Repository,
	eventPublisher shared.EventPublisher,
) *RecordTestScoreHandler {
	return &RecordTestScoreHandler{
		studentRepo:    studentRepo,
		scoreRepo:      scoreRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the record test score command.
func (h *RecordTestScoreHandler) Handle(ctx context.Context, cmd RecordTestScoreCommand) (*RecordTestScoreResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_test_score: validation failed: %w", err)
	}

	stud, err := h.studentRepo.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("record_test_score: failed to load student: %w", err)
	}

	classLabel := cmd.ClassLabel
	if classLabel == "" {
		classLabel = stud.ClassLevel.String()
	}

	enteredAt := cmd.EnteredAt
	if enteredAt.IsZero() {
		enteredAt = time.Now().UTC()
	}

	record, err := assessment.NewScoreRecord(
		uuid.New().String(),
		stud.ID,
		stud.SubjectSet.Version,
		cmd.Subjects,
		classLabel,
		enteredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("record_test_score: %w", err)
	}

	if err := h.scoreRepo.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("record_test_score: failed to append record: %w", err)
	}

	event := shared.NewScoreRecordedEvent(stud.ID, record.ID, record.Subjects, record.ClassLabel)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RecordTestScoreResult{
		RecordID:          record.ID,
		SubjectSetVersion: record.SubjectSetVersion,
		EnteredAt:         record.EnteredAt,
	}, nil
}
