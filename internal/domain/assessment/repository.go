package assessment

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Score rows are append-only: there are no update or delete operations.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines operations for the score record store.
type Repository interface {
	// Append stores a new score record. Records are immutable once stored.
	Append(ctx context.Context, record *ScoreRecord) error

	// GetHistory returns a student's full score history in chronological
	// order. An empty history is returned (not an error) when the student
	// has no records yet.
	GetHistory(ctx context.Context, studentID string) (ScoreHistory, error)

	// GetHistoryByVersion returns the history restricted to one
	// subject-set version, in chronological order.
	GetHistoryByVersion(ctx context.Context, studentID string, subjectSetVersion int) (ScoreHistory, error)

	// CountForStudent returns the number of records a student has.
	CountForStudent(ctx context.Context, studentID string) (int, error)
}
