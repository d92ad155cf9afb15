// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER STUDENT COMMAND
// Creates a student account with a bcrypt-hashed password. The email is
// the login identity and must be unique.
// ══════════════════════════════════════════════════════════════════════════════

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// RegisterStudentCommand contains the data to register a student.
type RegisterStudentCommand struct {
	// Email is the login identity.
	Email string

	// Password is the plaintext password; hashed before storage.
	Password string

	// DisplayName is how guidance text addresses the student.
	DisplayName string

	// ClassLevel is the current class/grade.
	ClassLevel string

	// Location is the student's state/region.
	Location string

	// Interest is the stated career interest (optional at registration).
	Interest string

	// Subjects overrides the default subject list (optional).
	Subjects []string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RegisterStudentCommand) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("register_student: email is required")
	}
	if len(c.Password) < MinPasswordLength {
		return fmt.Errorf("register_student: password must be at least %d characters", MinPasswordLength)
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return errors.New("register_student: display_name is required")
	}
	if strings.TrimSpace(c.ClassLevel) == "" {
		return errors.New("register_student: class_level is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		return errors.New("register_student: location is required")
	}
	return nil
}

// RegisterStudentResult contains the result of a registration.
type RegisterStudentResult struct {
	// StudentID is the new student's internal ID.
	StudentID string

	// Email is the normalized email.
	Email string

	// SubjectSetVersion is the initial subject-set version (always 1).
	SubjectSetVersion int
}

// RegisterStudentHandler handles the RegisterStudentCommand.
type RegisterStudentHandler struct {
	studentRepo    student.Repository
	eventPublisher shared.EventPublisher
}

// NewRegisterStudentHandler creates a new RegisterStudentHandler.
func NewRegisterStudentHandler(studentRepo student.Repository, eventPublisher shared.EventPublisher) *RegisterStudentHandler {
	return &RegisterStudentHandler{
		studentRepo:    studentRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the register student command.
func (h *RegisterStudentHandler) Handle(ctx context.Context, cmd RegisterStudentCommand) (*RegisterStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_student: validation failed: %w", err)
	}

	email := student.Email(cmd.Email).Normalize()
	if !email.IsValid() {
		return nil, student.ErrInvalidEmail
	}

	exists, err := h.studentRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register_student: failed to check email: %w", err)
	}
	if exists {
		return nil, shared.ErrEmailAlreadyTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register_student: failed to hash password: %w", err)
	}

	stud, err := student.NewStudent(student.NewStudentParams{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  cmd.DisplayName,
		ClassLevel:   student.ClassLevel(cmd.ClassLevel),
		Location:     cmd.Location,
		Interest:     cmd.Interest,
		Subjects:     cmd.Subjects,
	})
	if err != nil {
		return nil, fmt.Errorf("register_student: %w", err)
	}

	if err := h.studentRepo.Create(ctx, stud); err != nil {
		return nil, fmt.Errorf("register_student: failed to create student: %w", err)
	}

	event := shared.NewStudentRegisteredEvent(stud.ID, stud.Email.String(), stud.DisplayName, stud.ClassLevel.String())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RegisterStudentResult{
		StudentID:         stud.ID,
		Email:             stud.Email.String(),
		SubjectSetVersion: stud.SubjectSet.Version,
	}, nil
}
