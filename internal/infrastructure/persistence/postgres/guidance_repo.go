package postgres

import (
	"context"
	"fmt"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/guidance"
)

// ══════════════════════════════════════════════════════════════════════════════
// GUIDANCE ARCHIVE REPOSITORY IMPLEMENTATION
// Append-only archive of successful guidance exchanges.
// ══════════════════════════════════════════════════════════════════════════════

// GuidanceRepository implements guidance.Repository for PostgreSQL.
type GuidanceRepository struct {
	conn *Connection
}

// NewGuidanceRepository creates a new GuidanceRepository.
func NewGuidanceRepository(conn *Connection) *GuidanceRepository {
	return &GuidanceRepository{conn: conn}
}

// Append archives a guidance record.
func (r *GuidanceRepository) Append(ctx context.Context, record *guidance.Record) error {
	query := `
		INSERT INTO guidance_records (
			id, student_id, prompt, text, model, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		record.ID,
		record.StudentID,
		record.Prompt,
		record.Text,
		record.Model,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append guidance record: %w", err)
	}

	return nil
}

// GetByID returns one guidance record.
func (r *GuidanceRepository) GetByID(ctx context.Context, id string) (*guidance.Record, error) {
	query := `
		SELECT id, student_id, prompt, text, model, created_at
		FROM guidance_records
		WHERE id = $1
	`

	var record guidance.Record
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.StudentID,
		&record.Prompt,
		&record.Text,
		&record.Model,
		&record.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, guidance.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to scan guidance record: %w", err)
	}

	return &record, nil
}

// ListByStudent returns a student's guidance history, newest first.
func (r *GuidanceRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]*guidance.Record, error) {
	query := `
		SELECT id, student_id, prompt, text, model, created_at
		FROM guidance_records
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query guidance records: %w", err)
	}
	defer rows.Close()

	var records []*guidance.Record
	for rows.Next() {
		var record guidance.Record

		err := rows.Scan(
			&record.ID,
			&record.StudentID,
			&record.Prompt,
			&record.Text,
			&record.Model,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guidance record: %w", err)
		}

		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read guidance records: %w", err)
	}

	return records, nil
}
