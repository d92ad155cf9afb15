package postgres

import (
	"context"
	"fmt"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/assessment"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE RECORD REPOSITORY IMPLEMENTATION
// Append-only: there are no UPDATE or DELETE statements in this file.
// ══════════════════════════════════════════════════════════════════════════════

// ScoreRepository implements assessment.Repository for PostgreSQL.
type ScoreRepository struct {
	conn *Connection
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(conn *Connection) *ScoreRepository {
	return &ScoreRepository{conn: conn}
}

// Append stores a new score record.
func (r *ScoreRepository) Append(ctx context.Context, record *assessment.ScoreRecord) error {
	query := `
		INSERT INTO score_records (
			id, student_id, subject_set_version, subjects, class_label, entered_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		record.ID,
		record.StudentID,
		record.SubjectSetVersion,
		record.Subjects,
		record.ClassLabel,
		record.EnteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append score record: %w", err)
	}

	return nil
}

// GetHistory returns a student's full score history in chronological order.
func (r *ScoreRepository) GetHistory(ctx context.Context, studentID string) (assessment.ScoreHistory, error) {
	query := `
		SELECT id, student_id, subject_set_version, subjects, class_label, entered_at
		FROM score_records
		WHERE student_id = $1
		ORDER BY entered_at ASC
	`

	return r.queryHistory(ctx, studentID, query, studentID)
}

// GetHistoryByVersion returns the history restricted to one subject-set version.
func (r *ScoreRepository) GetHistoryByVersion(ctx context.Context, studentID string, subjectSetVersion int) (assessment.ScoreHistory, error) {
	query := `
		SELECT id, student_id, subject_set_version, subjects, class_label, entered_at
		FROM score_records
		WHERE student_id = $1 AND subject_set_version = $2
		ORDER BY entered_at ASC
	`

	return r.queryHistory(ctx, studentID, query, studentID, subjectSetVersion)
}

// CountForStudent returns the number of records a student has.
func (r *ScoreRepository) CountForStudent(ctx context.Context, studentID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM score_records WHERE student_id = $1`, studentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count score records: %w", err)
	}

	return count, nil
}

func (r *ScoreRepository) queryHistory(ctx context.Context, studentID, query string, args ...interface{}) (assessment.ScoreHistory, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return assessment.ScoreHistory{}, fmt.Errorf("failed to query score records: %w", err)
	}
	defer rows.Close()

	var records []*assessment.ScoreRecord
	for rows.Next() {
		var record assessment.ScoreRecord

		err := rows.Scan(
			&record.ID,
			&record.StudentID,
			&record.SubjectSetVersion,
			&record.Subjects,
			&record.ClassLabel,
			&record.EnteredAt,
		)
		if err != nil {
			return assessment.ScoreHistory{}, fmt.Errorf("failed to scan score record: %w", err)
		}

		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return assessment.ScoreHistory{}, fmt.Errorf("failed to read score records: %w", err)
	}

	return assessment.NewScoreHistory(studentID, records), nil
}
