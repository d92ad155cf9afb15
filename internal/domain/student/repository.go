package student

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the contract for working with the data store.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines CRUD operations for students.
type Repository interface {
	// Create creates a new student.
	// Returns ErrStudentAlreadyExists if the email is already registered.
	Create(ctx context.Context, student *Student) error

	// GetByID returns a student by internal ID.
	// Returns ErrStudentNotFound if the student does not exist.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetByEmail returns a student by normalized email.
	// Returns ErrStudentNotFound if the student does not exist.
	GetByEmail(ctx context.Context, email Email) (*Student, error)

	// Update updates a student's mutable profile fields.
	// Returns ErrStudentNotFound if the student does not exist.
	Update(ctx context.Context, student *Student) error

	// ExistsByEmail checks whether the email is already registered.
	ExistsByEmail(ctx context.Context, email Email) (bool, error)

	// Count returns the total number of registered students.
	Count(ctx context.Context) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// Bearer-token sessions backing the HTTP authentication middleware.
// Usually implemented with Redis.
// ══════════════════════════════════════════════════════════════════════════════

// Session represents an authenticated login session.
type Session struct {
	// Token is the opaque bearer token handed to the client.
	Token string

	// StudentID is the authenticated student.
	StudentID string

	// CreatedAt is when the session was issued.
	CreatedAt time.Time

	// ExpiresAt is when the session expires.
	ExpiresAt time.Time
}

// IsExpired reports whether the session has expired at the given time.
func (s Session) IsExpired(at time.Time) bool {
	return !s.ExpiresAt.IsZero() && at.After(s.ExpiresAt)
}

// SessionStore defines operations for login session management.
type SessionStore interface {
	// Save stores a session with the given TTL.
	Save(ctx context.Context, session Session, ttl time.Duration) error

	// Get returns the session for a token, or an error if missing/expired.
	Get(ctx context.Context, token string) (Session, error)

	// Delete removes a session (logout).
	Delete(ctx context.Context, token string) error

	// DeleteAllForStudent removes every session belonging to a student.
	DeleteAllForStudent(ctx context.Context, studentID string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache defines caching operations for student profiles.
type Cache interface {
	// Get retrieves a student from the cache.
	Get(ctx context.Context, studentID string) (*Student, error)

	// Set stores a student in the cache.
	Set(ctx context.Context, student *Student, ttl time.Duration) error

	// Invalidate removes a student's cache entries.
	Invalidate(ctx context.Context, studentID string) error
}
