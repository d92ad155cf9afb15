// Package survey contains the aptitude survey domain model: the 31-item
// Likert questionnaire, the fixed question-to-domain weight map, and the
// career domain classifier.
// This is core business logic - there are no external dependencies here.
package survey

import (
	"errors"
	"fmt"
	"time"
)

// Survey shape constants.
const (
	// QuestionCount is the fixed number of questionnaire items.
	QuestionCount = 31

	// RatingMin and RatingMax bound each Likert response.
	RatingMin = 1
	RatingMax = 5
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrRatingOutOfRange - a response is outside [1, 5].
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")

	// ErrIncompleteResponses - not all 31 questions were answered.
	ErrIncompleteResponses = errors.New("all 31 questions must be answered")

	// ErrUnknownQuestion - a response references a question outside Q1..Q31.
	ErrUnknownQuestion = errors.New("unknown question identifier")

	// ErrAlreadySubmitted - the student already submitted a survey.
	// Surveys are write-once.
	ErrAlreadySubmitted = errors.New("survey already submitted")

	// ErrResponseNotFound - no survey response exists for the student.
	ErrResponseNotFound = errors.New("survey response not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION ID
// ══════════════════════════════════════════════════════════════════════════════

// QuestionID identifies a questionnaire item ("Q1".."Q31").
type QuestionID string

// Q builds the QuestionID for a 1-based question number.
func Q(n int) QuestionID {
	return QuestionID(fmt.Sprintf("Q%d", n))
}

// IsValid checks the identifier is one of Q1..Q31.
func (q QuestionID) IsValid() bool {
	for n := 1; n <= QuestionCount; n++ {
		if q == Q(n) {
			return true
		}
	}
	return false
}

// AllQuestions returns Q1..Q31 in order.
func AllQuestions() []QuestionID {
	qs := make([]QuestionID, QuestionCount)
	for n := 1; n <= QuestionCount; n++ {
		qs[n-1] = Q(n)
	}
	return qs
}

// ══════════════════════════════════════════════════════════════════════════════
// SURVEY RESPONSE
// ══════════════════════════════════════════════════════════════════════════════

// Responses maps question identifiers to Likert ratings.
type Responses map[QuestionID]int

// Validate checks that every question Q1..Q31 is answered exactly once
// with a rating in [1, 5] and nothing else is present.
func (r Responses) Validate() error {
	if len(r) != QuestionCount {
		return ErrIncompleteResponses
	}
	for q, rating := range r {
		if !q.IsValid() {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, q)
		}
		if rating < RatingMin || rating > RatingMax {
			return fmt.Errorf("%w: %s=%d", ErrRatingOutOfRange, q, rating)
		}
	}
	return nil
}

// Response is a student's submitted questionnaire together with the
// classification computed at submission time. Write-once: the store
// rejects a second submission for the same student.
type Response struct {
	// StudentID is the owning student.
	StudentID string

	// Answers holds the validated Q1..Q31 ratings.
	Answers Responses

	// DomainScores holds the per-domain sums computed at submission.
	DomainScores map[Domain]int

	// WinningDomain is the classified best-fit career domain.
	WinningDomain Domain

	// SubmittedAt is the submission timestamp.
	SubmittedAt time.Time
}

// NewResponse validates the answers, classifies them against the default
// weight map, and assembles the write-once response aggregate.
func NewResponse(studentID string, answers Responses) (*Response, error) {
	if studentID == "" {
		return nil, errors.New("student id is required")
	}
	if err := answers.Validate(); err != nil {
		return nil, err
	}

	result := Classify(answers, DefaultWeightMap())

	return &Response{
		StudentID:     studentID,
		Answers:       answers,
		DomainScores:  result.Scores,
		WinningDomain: result.Winner,
		SubmittedAt:   time.Now().UTC(),
	}, nil
}
