package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const studentColumns = `
	id, email, password_hash, display_name, class_level, location,
	interest, subjects, subject_set_version, created_at, updated_at
`

// Create creates a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (
			id, email, password_hash, display_name, class_level, location,
			interest, subjects, subject_set_version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.Email.String(),
		s.PasswordHash,
		s.DisplayName,
		s.ClassLevel.String(),
		s.Location,
		s.Interest,
		s.SubjectSet.Subjects,
		s.SubjectSet.Version,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return student.ErrStudentAlreadyExists
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetByID returns a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanStudent(row)
}

// GetByEmail returns a student by normalized email.
func (r *StudentRepository) GetByEmail(ctx context.Context, email student.Email) (*student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`

	row := r.conn.QueryRow(ctx, query, email.String())
	return r.scanStudent(row)
}

// Update updates a student's mutable profile fields.
func (r *StudentRepository) Update(ctx context.Context, s *student.Student) error {
	query := `
		UPDATE students SET
			display_name = $1,
			class_level = $2,
			location = $3,
			interest = $4,
			subjects = $5,
			subject_set_version = $6,
			updated_at = $7
		WHERE id = $8
	`

	result, err := r.conn.Exec(ctx, query,
		s.DisplayName,
		s.ClassLevel.String(),
		s.Location,
		s.Interest,
		s.SubjectSet.Subjects,
		s.SubjectSet.Version,
		time.Now().UTC(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return student.ErrStudentNotFound
	}

	return nil
}

// ExistsByEmail checks whether the email is already registered.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email student.Email) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM students WHERE email = $1)`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, email.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return exists, nil
}

// Count returns the total number of registered students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}

	return count, nil
}

// scanStudent scans one student row.
func (r *StudentRepository) scanStudent(row pgx.Row) (*student.Student, error) {
	var (
		s          student.Student
		email      string
		classLevel string
		subjects   []string
		version    int
	)

	err := row.Scan(
		&s.ID,
		&email,
		&s.PasswordHash,
		&s.DisplayName,
		&classLevel,
		&s.Location,
		&s.Interest,
		&subjects,
		&version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	s.Email = student.Email(email)
	s.ClassLevel = student.ClassLevel(classLevel)
	s.SubjectSet = student.SubjectSet{Version: version, Subjects: subjects}

	return &s, nil
}
