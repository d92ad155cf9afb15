package postgres

import (
	"context"
	"fmt"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/survey"
)

// ══════════════════════════════════════════════════════════════════════════════
// SURVEY RESPONSE REPOSITORY IMPLEMENTATION
// Write-once: the primary key on student_id turns a second submission
// into a unique violation, surfaced as ErrAlreadySubmitted.
// ══════════════════════════════════════════════════════════════════════════════

// SurveyRepository implements survey.Repository for PostgreSQL.
type SurveyRepository struct {
	conn *Connection
}

// NewSurveyRepository creates a new SurveyRepository.
func NewSurveyRepository(conn *Connection) *SurveyRepository {
	return &SurveyRepository{conn: conn}
}

// Save stores a classified response.
func (r *SurveyRepository) Save(ctx context.Context, response *survey.Response) error {
	query := `
		INSERT INTO survey_responses (
			student_id, answers, domain_scores, winning_domain, submitted_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query,
		response.StudentID,
		response.Answers,
		response.DomainScores,
		string(response.WinningDomain),
		response.SubmittedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return survey.ErrAlreadySubmitted
		}
		return fmt.Errorf("failed to save survey response: %w", err)
	}

	return nil
}

// GetByStudent returns the student's response.
func (r *SurveyRepository) GetByStudent(ctx context.Context, studentID string) (*survey.Response, error) {
	query := `
		SELECT student_id, answers, domain_scores, winning_domain, submitted_at
		FROM survey_responses
		WHERE student_id = $1
	`

	var (
		response      survey.Response
		winningDomain string
	)

	err := r.conn.QueryRow(ctx, query, studentID).Scan(
		&response.StudentID,
		&response.Answers,
		&response.DomainScores,
		&winningDomain,
		&response.SubmittedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, survey.ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to scan survey response: %w", err)
	}

	response.WinningDomain = survey.Domain(winningDomain)

	return &response, nil
}

// Exists reports whether the student has already submitted.
func (r *SurveyRepository) Exists(ctx context.Context, studentID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM survey_responses WHERE student_id = $1)`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, studentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check survey response: %w", err)
	}

	return exists, nil
}
