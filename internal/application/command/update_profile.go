package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROFILE COMMAND
// Partial profile update. Changing the subject list bumps the subject-set
// version; score records keep the version they were entered under.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileCommand contains a partial profile update.
// Nil fields are left untouched.
type UpdateProfileCommand struct {
	StudentID string

	DisplayName *string
	ClassLevel  *string
	Location    *string
	Interest    *string

	// Subjects replaces the whole subject list when non-nil.
	Subjects []string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c UpdateProfileCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("update_profile: student_id is required")
	}
	if c.DisplayName == nil && c.ClassLevel == nil && c.Location == nil &&
		c.Interest == nil && c.Subjects == nil {
		return errors.New("update_profile: no changes supplied")
	}
	return nil
}

// UpdateProfileResult contains the applied changes.
type UpdateProfileResult struct {
	// ChangedFields lists the profile fields that actually changed.
	ChangedFields []string

	// SubjectSetVersion is the current subject-set version after the update.
	SubjectSetVersion int
}

// UpdateProfileHandler handles the UpdateProfileCommand.
type UpdateProfileHandler struct {
	studentRepo    student.Repository
	studentCache   student.Cache
	eventPublisher shared.EventPublisher
}

// NewUpdateProfileHandler creates a new UpdateProfileHandler.
func NewUpdateProfileHandler(
	studentRepo student.Repository,
	studentCache student.Cache,
	eventPublisher shared.EventPublisher,
) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		studentRepo:    studentRepo,
		studentCache:   studentCache,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the update profile command.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*UpdateProfileResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_profile: validation failed: %w", err)
	}

	stud, err := h.studentRepo.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("update_profile: failed to load student: %w", err)
	}

	changes := student.ProfileChanges{
		DisplayName: cmd.DisplayName,
		Location:    cmd.Location,
		Interest:    cmd.Interest,
		Subjects:    cmd.Subjects,
	}
	if cmd.ClassLevel != nil {
		level := student.ClassLevel(*cmd.ClassLevel)
		changes.ClassLevel = &level
	}

	changed, err := stud.ApplyProfileChanges(changes)
	if err != nil {
		return nil, fmt.Errorf("update_profile: %w", err)
	}

	if len(changed) == 0 {
		return &UpdateProfileResult{
			ChangedFields:     nil,
			SubjectSetVersion: stud.SubjectSet.Version,
		}, nil
	}

	if err := h.studentRepo.Update(ctx, stud); err != nil {
		return nil, fmt.Errorf("update_profile: failed to update student: %w", err)
	}

	if h.studentCache != nil {
		// A stale entry expires on its own TTL.
		_ = h.studentCache.Invalidate(ctx, stud.ID)
	}

	event := shared.NewProfileUpdatedEvent(stud.ID, changed)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &UpdateProfileResult{
		ChangedFields:     changed,
		SubjectSetVersion: stud.SubjectSet.Version,
	}, nil
}
