package query

import (
	"context"
	"errors"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// Read-through cached profile lookup. The cache is optional; a miss or
// cache failure falls back to the repository.
// ══════════════════════════════════════════════════════════════════════════════

// ProfileCacheTTL is how long a cached profile stays fresh.
const ProfileCacheTTL = 10 * time.Minute

// GetProfileQuery contains the profile request parameters.
type GetProfileQuery struct {
	// StudentID is the internal student ID.
	StudentID string
}

// Validate checks the query parameters.
func (q *GetProfileQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id must be provided")
	}
	return nil
}

// GetProfileResult contains the profile response. The password hash
// never leaves the application layer.
type GetProfileResult struct {
	StudentID         string    `json:"student_id"`
	Email             string    `json:"email"`
	DisplayName       string    `json:"display_name"`
	ClassLevel        string    `json:"class_level"`
	Location          string    `json:"location"`
	Interest          string    `json:"interest,omitempty"`
	Subjects          []string  `json:"subjects"`
	SubjectSetVersion int       `json:"subject_set_version"`
	CreatedAt         time.Time `json:"created_at"`
}

// GetProfileHandler handles profile queries.
type GetProfileHandler struct {
	studentRepo  student.Repository
	studentCache student.Cache
}

// NewGetProfileHandler creates a new handler. The cache may be nil.
func NewGetProfileHandler(studentRepo student.Repository, studentCache student.Cache) *GetProfileHandler {
	return &GetProfileHandler{
		studentRepo:  studentRepo,
		studentCache: studentCache,
	}
}

// Handle executes the query.
func (h *GetProfileHandler) Handle(ctx context.Context, query GetProfileQuery) (*GetProfileResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetProfile", shared.ErrValidation, err.Error(), err)
	}

	if h.studentCache != nil {
		if cached, err := h.studentCache.Get(ctx, query.StudentID); err == nil && cached != nil {
			return buildProfileResult(cached), nil
		}
	}

	stud, err := h.studentRepo.GetByID(ctx, query.StudentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetProfile", shared.ErrNotFound, "student not found", err)
	}

	if h.studentCache != nil {
		_ = h.studentCache.Set(ctx, stud, ProfileCacheTTL)
	}

	return buildProfileResult(stud), nil
}

func buildProfileResult(stud *student.Student) *GetProfileResult {
	return &GetProfileResult{
		StudentID:         stud.ID,
		Email:             stud.Email.String(),
		DisplayName:       stud.DisplayName,
		ClassLevel:        stud.ClassLevel.String(),
		Location:          stud.Location,
		Interest:          stud.Interest,
		Subjects:          stud.SubjectSet.Subjects,
		SubjectSetVersion: stud.SubjectSet.Version,
		CreatedAt:         stud.CreatedAt,
	}
}
