// Package student contains the student domain model for Career Guidance Hub.
// This is core business logic - there are no external dependencies here.
package student

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Email represents a student's email address, used as the login identity.
type Email string

// IsValid performs a minimal structural check on the email.
func (e Email) IsValid() bool {
	s := string(e)
	at := strings.Index(s, "@")
	return len(s) >= 5 && len(s) <= 254 &&
		at > 0 && at < len(s)-3 &&
		strings.Contains(s[at:], ".") &&
		!strings.ContainsAny(s, " \t\n\r")
}

// Normalize returns the email lowercased and trimmed.
func (e Email) Normalize() Email {
	return Email(strings.ToLower(strings.TrimSpace(string(e))))
}

// String returns the string representation of the email.
func (e Email) String() string {
	return string(e)
}

// ClassLevel represents the class/grade a student is currently in
// (for example "10", "12", "dropper").
type ClassLevel string

// IsValid checks the class level is non-empty and reasonably short.
func (c ClassLevel) IsValid() bool {
	s := strings.TrimSpace(string(c))
	return len(s) >= 1 && len(s) <= 30
}

// String returns the string representation of the class level.
func (c ClassLevel) String() string {
	return string(c)
}

// SubjectSet is the list of subjects a student is tested on, together
// with a version number. Editing the subject list bumps the version so
// that score histories recorded against different subject lists can be
// partitioned for trend computation.
type SubjectSet struct {
	// Version identifies this revision of the subject list. Starts at 1.
	Version int

	// Subjects are the subject names, e.g. ["Physics", "Maths", "Chemistry"].
	Subjects []string
}

// DefaultSubjects is the subject list assigned at registration.
var DefaultSubjects = []string{"Physics", "Maths", "Chemistry"}

// NewSubjectSet creates the initial subject set for a student.
func NewSubjectSet(subjects []string) (SubjectSet, error) {
	cleaned, err := cleanSubjects(subjects)
	if err != nil {
		return SubjectSet{}, err
	}
	return SubjectSet{Version: 1, Subjects: cleaned}, nil
}

// Contains reports whether the given subject is part of the set.
func (ss SubjectSet) Contains(subject string) bool {
	for _, s := range ss.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// Revise returns a new SubjectSet with the given subjects and a bumped version.
func (ss SubjectSet) Revise(subjects []string) (SubjectSet, error) {
	cleaned, err := cleanSubjects(subjects)
	if err != nil {
		return SubjectSet{}, err
	}
	return SubjectSet{Version: ss.Version + 1, Subjects: cleaned}, nil
}

func cleanSubjects(subjects []string) ([]string, error) {
	if len(subjects) == 0 {
		return nil, ErrNoSubjects
	}
	seen := make(map[string]bool, len(subjects))
	cleaned := make([]string, 0, len(subjects))
	for _, s := range subjects {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, ErrInvalidSubject
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		cleaned = append(cleaned, s)
	}
	return cleaned, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student is the central entity of the system: a student seeking career guidance.
type Student struct {
	// ID is the internal unique identifier (UUID in string form).
	ID string

	// Email is the login identity (unique across the system).
	Email Email

	// PasswordHash is the bcrypt hash of the student's password.
	// Never expose this field through the HTTP layer.
	PasswordHash string

	// DisplayName is the name used to address the student in guidance text.
	DisplayName string

	// ClassLevel is the current class/grade.
	ClassLevel ClassLevel

	// Location is the student's state/region, used when suggesting
	// nearby colleges.
	Location string

	// Interest is the student's stated career interest or requirement,
	// in free text.
	Interest string

	// SubjectSet is the current versioned subject list.
	SubjectSet SubjectSet

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidEmail - structurally invalid email address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidDisplayName - display name out of bounds.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInvalidClassLevel - class level out of bounds.
	ErrInvalidClassLevel = errors.New("invalid class level: must be 1-30 chars")

	// ErrInvalidLocation - location out of bounds.
	ErrInvalidLocation = errors.New("invalid location: must be 1-100 chars")

	// ErrNoSubjects - subject list is empty.
	ErrNoSubjects = errors.New("subject list cannot be empty")

	// ErrInvalidSubject - a subject name is blank.
	ErrInvalidSubject = errors.New("subject name cannot be blank")

	// ErrEmptyPasswordHash - password hash missing at construction.
	ErrEmptyPasswordHash = errors.New("password hash is required")

	// ErrStudentNotFound - the student does not exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrStudentAlreadyExists - a student with this email already exists.
	ErrStudentAlreadyExists = errors.New("student already exists")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewStudentParams contains the parameters for creating a new student.
type NewStudentParams struct {
	ID           string
	Email        Email
	PasswordHash string
	DisplayName  string
	ClassLevel   ClassLevel
	Location     string
	Interest     string
	Subjects     []string
}

// NewStudent creates a new student, validating all fields.
func NewStudent(params NewStudentParams) (*Student, error) {
	if params.ID == "" {
		return nil, errors.New("student id is required")
	}

	email := params.Email.Normalize()
	if !email.IsValid() {
		return nil, ErrInvalidEmail
	}

	if params.PasswordHash == "" {
		return nil, ErrEmptyPasswordHash
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	if !params.ClassLevel.IsValid() {
		return nil, ErrInvalidClassLevel
	}

	location := strings.TrimSpace(params.Location)
	if len(location) == 0 || len(location) > 100 {
		return nil, ErrInvalidLocation
	}

	subjects := params.Subjects
	if len(subjects) == 0 {
		subjects = DefaultSubjects
	}
	subjectSet, err := NewSubjectSet(subjects)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Student{
		ID:           params.ID,
		Email:        email,
		PasswordHash: params.PasswordHash,
		DisplayName:  displayName,
		ClassLevel:   params.ClassLevel,
		Location:     location,
		Interest:     strings.TrimSpace(params.Interest),
		SubjectSet:   subjectSet,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// ProfileChanges describes a partial profile update. Nil fields are left as is.
type ProfileChanges struct {
	DisplayName *string
	ClassLevel  *ClassLevel
	Location    *string
	Interest    *string
	Subjects    []string
}

// ApplyProfileChanges updates the mutable profile fields and returns the
// names of the fields that actually changed.
func (s *Student) ApplyProfileChanges(changes ProfileChanges) ([]string, error) {
	var changed []string

	if changes.DisplayName != nil {
		name := strings.TrimSpace(*changes.DisplayName)
		if len(name) == 0 || len(name) > 100 {
			return nil, ErrInvalidDisplayName
		}
		if name != s.DisplayName {
			s.DisplayName = name
			changed = append(changed, "display_name")
		}
	}

	if changes.ClassLevel != nil {
		if !changes.ClassLevel.IsValid() {
			return nil, ErrInvalidClassLevel
		}
		if *changes.ClassLevel != s.ClassLevel {
			s.ClassLevel = *changes.ClassLevel
			changed = append(changed, "class_level")
		}
	}

	if changes.Location != nil {
		location := strings.TrimSpace(*changes.Location)
		if len(location) == 0 || len(location) > 100 {
			return nil, ErrInvalidLocation
		}
		if location != s.Location {
			s.Location = location
			changed = append(changed, "location")
		}
	}

	if changes.Interest != nil {
		interest := strings.TrimSpace(*changes.Interest)
		if interest != s.Interest {
			s.Interest = interest
			changed = append(changed, "interest")
		}
	}

	if changes.Subjects != nil {
		revised, err := s.SubjectSet.Revise(changes.Subjects)
		if err != nil {
			return nil, err
		}
		s.SubjectSet = revised
		changed = append(changed, "subjects")
	}

	if len(changed) > 0 {
		s.UpdatedAt = time.Now().UTC()
	}

	return changed, nil
}

// String returns a string representation of the student for logging.
// The password hash is deliberately omitted.
func (s *Student) String() string {
	return fmt.Sprintf(
		"Student{ID: %s, Email: %s, Class: %s, SubjectsV%d: %v}",
		s.ID, s.Email, s.ClassLevel, s.SubjectSet.Version, s.SubjectSet.Subjects,
	)
}

// Clone creates a deep copy of the student.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}

	clone := *s
	clone.SubjectSet.Subjects = append([]string(nil), s.SubjectSet.Subjects...)
	return &clone
}
