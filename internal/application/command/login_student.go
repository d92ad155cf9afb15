package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN STUDENT COMMAND
// Verifies credentials and issues a bearer session token stored with TTL.
// A wrong email and a wrong password produce the same error so the
// endpoint does not leak which accounts exist.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultSessionTTL is how long a login session stays valid.
const DefaultSessionTTL = 24 * time.Hour

// LoginStudentCommand contains login credentials.
type LoginStudentCommand struct {
	Email    string
	Password string

	// TTL overrides the default session lifetime (optional).
	TTL time.Duration
}

// Validate validates the command.
func (c LoginStudentCommand) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("login_student: email is required")
	}
	if c.Password == "" {
		return errors.New("login_student: password is required")
	}
	return nil
}

// LoginStudentResult contains the issued session.
type LoginStudentResult struct {
	StudentID string
	Token     string
	ExpiresAt time.Time
}

// LoginStudentHandler handles the LoginStudentCommand.
type LoginStudentHandler struct {
	studentRepo  student.Repository
	sessionStore student.SessionStore
}

// NewLoginStudentHandler creates a new LoginStudentHandler.
func NewLoginStudentHandler(studentRepo student.Repository, sessionStore student.SessionStore) *LoginStudentHandler {
	return &LoginStudentHandler{
		studentRepo:  studentRepo,
		sessionStore: sessionStore,
	}
}

// Handle executes the login command.
func (h *LoginStudentHandler) Handle(ctx context.Context, cmd LoginStudentCommand) (*LoginStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("login_student: validation failed: %w", err)
	}

	email := student.Email(cmd.Email).Normalize()

	stud, err := h.studentRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login_student: failed to load student: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stud.PasswordHash), []byte(cmd.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	ttl := cmd.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := time.Now().UTC()
	session := student.Session{
		Token:     uuid.New().String(),
		StudentID: stud.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := h.sessionStore.Save(ctx, session, ttl); err != nil {
		return nil, fmt.Errorf("login_student: failed to save session: %w", err)
	}

	return &LoginStudentResult{
		StudentID: stud.ID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGOUT
// ══════════════════════════════════════════════════════════════════════════════

// LogoutStudentHandler invalidates a session token.
type LogoutStudentHandler struct {
	sessionStore student.SessionStore
}

// NewLogoutStudentHandler creates a new LogoutStudentHandler.
func NewLogoutStudentHandler(sessionStore student.SessionStore) *LogoutStudentHandler {
	return &LogoutStudentHandler{sessionStore: sessionStore}
}

// Handle removes the session for the given token.
func (h *LogoutStudentHandler) Handle(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("logout_student: token is required")
	}
	return h.sessionStore.Delete(ctx, token)
}
