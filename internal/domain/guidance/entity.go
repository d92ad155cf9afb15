package guidance

import (
	"context"
	"errors"
	"time"
)

// ErrorMarker prefixes the displayable string returned in place of
// guidance text when the external collaborator fails. Callers always
// receive a renderable string, never an exception.
const ErrorMarker = "⚠️ Error:"

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrRecordNotFound - the guidance record does not exist.
	ErrRecordNotFound = errors.New("guidance record not found")

	// ErrEmptyText - the model returned no usable text.
	ErrEmptyText = errors.New("guidance text is empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// GUIDANCE RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record archives one guidance exchange: the rendered prompt, the text
// the model returned, and request metadata. Append-only: records are
// never mutated or deleted.
type Record struct {
	// ID is the internal unique identifier (UUID in string form).
	ID string

	// StudentID is the owning student.
	StudentID string

	// Prompt is the exact rendered prompt that was sent.
	Prompt string

	// Text is the guidance text the model returned.
	Text string

	// Model names the model that produced the text.
	Model string

	// CreatedAt is the archive timestamp.
	CreatedAt time.Time
}

// NewRecord validates and creates a guidance record.
func NewRecord(id, studentID, prompt, text, model string) (*Record, error) {
	if id == "" {
		return nil, errors.New("guidance record id is required")
	}
	if studentID == "" {
		return nil, errors.New("student id is required")
	}
	if text == "" {
		return nil, ErrEmptyText
	}

	return &Record{
		ID:        id,
		StudentID: studentID,
		Prompt:    prompt,
		Text:      text,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATOR INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Generation is the external model's reply.
type Generation struct {
	// Text is the plain text (with markdown) guidance.
	Text string

	// Model is the model that actually served the request.
	Model string
}

// Generator is the external guidance service: an opaque function from
// prompt to free text. No latency, idempotence or schema is guaranteed
// beyond "plain text containing markdown". Implementations live in
// infrastructure/external.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Repository defines operations for the guidance archive.
// Append-only: no update or delete operations exist.
type Repository interface {
	// Append archives a guidance record.
	Append(ctx context.Context, record *Record) error

	// GetByID returns one guidance record.
	// Returns ErrRecordNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*Record, error)

	// ListByStudent returns a student's guidance history, newest first.
	ListByStudent(ctx context.Context, studentID string, limit int) ([]*Record, error)
}
