package survey

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Survey responses are write-once per student: the store must reject a
// second submission. Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines operations for the survey response store.
type Repository interface {
	// Save stores a classified response.
	// Returns ErrAlreadySubmitted if the student has already submitted.
	Save(ctx context.Context, response *Response) error

	// GetByStudent returns the student's response.
	// Returns ErrResponseNotFound if none exists.
	GetByStudent(ctx context.Context, studentID string) (*Response, error)

	// Exists reports whether the student has already submitted.
	Exists(ctx context.Context, studentID string) (bool, error)
}
