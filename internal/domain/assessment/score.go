// Package assessment contains the test score domain model: score records,
// chronological score histories, and the per-subject trend analyzer.
// This is core business logic - there are no external dependencies here.
package assessment

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Score bounds for a single subject mark.
const (
	MinScore = 0
	MaxScore = 100
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrScoreOutOfRange - a subject score is outside [0, 100].
	ErrScoreOutOfRange = errors.New("score must be between 0 and 100")

	// ErrNoSubjects - a score record carries no subject marks.
	ErrNoSubjects = errors.New("score record must contain at least one subject")

	// ErrBlankSubject - a subject name is blank.
	ErrBlankSubject = errors.New("subject name cannot be blank")

	// ErrRecordNotFound - the score record does not exist.
	ErrRecordNotFound = errors.New("score record not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE RECORD
// ══════════════════════════════════════════════════════════════════════════════

// bookkeepingKeys are map keys that may appear alongside subject marks in
// loosely shaped inputs but are not subjects themselves. Subject derivation
// must skip them even when present.
var bookkeepingKeys = map[string]bool{
	"class":      true,
	"date":       true,
	"entry_date": true,
}

// IsBookkeepingKey reports whether the key is metadata rather than a subject.
// The check is case-insensitive ("Class" and "Date" variants appear in
// imported data).
func IsBookkeepingKey(key string) bool {
	return bookkeepingKeys[strings.ToLower(strings.TrimSpace(key))]
}

// ScoreRecord is one test entry: a subject→score mapping plus metadata.
// Records are immutable once stored and ordered by entry time.
type ScoreRecord struct {
	// ID is the internal unique identifier (UUID in string form).
	ID string

	// StudentID is the owning student.
	StudentID string

	// SubjectSetVersion partitions histories recorded against different
	// subject lists.
	SubjectSetVersion int

	// Subjects maps subject name to the integer score [0, 100].
	Subjects map[string]int

	// ClassLabel is the class/grade at the time of the test.
	ClassLabel string

	// EnteredAt is the entry timestamp; histories are ordered by it.
	EnteredAt time.Time
}

// NewScoreRecord validates and creates a score record.
func NewScoreRecord(id, studentID string, subjectSetVersion int, subjects map[string]int, classLabel string, enteredAt time.Time) (*ScoreRecord, error) {
	if id == "" {
		return nil, errors.New("score record id is required")
	}
	if studentID == "" {
		return nil, errors.New("student id is required")
	}

	cleaned := make(map[string]int, len(subjects))
	for name, score := range subjects {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrBlankSubject
		}
		if IsBookkeepingKey(name) {
			// Tolerate sloppy callers that pass metadata inside the map.
			continue
		}
		if score < MinScore || score > MaxScore {
			return nil, ErrScoreOutOfRange
		}
		cleaned[name] = score
	}
	if len(cleaned) == 0 {
		return nil, ErrNoSubjects
	}

	if enteredAt.IsZero() {
		enteredAt = time.Now().UTC()
	}

	return &ScoreRecord{
		ID:                id,
		StudentID:         studentID,
		SubjectSetVersion: subjectSetVersion,
		Subjects:          cleaned,
		ClassLabel:        strings.TrimSpace(classLabel),
		EnteredAt:         enteredAt,
	}, nil
}

// Score returns the mark for a subject and whether it is present.
func (r *ScoreRecord) Score(subject string) (int, bool) {
	score, ok := r.Subjects[subject]
	return score, ok
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// ScoreHistory is the chronologically ordered sequence of one student's
// score records. Chronological order is an invariant: the trend analyzer
// compares the first and last entries.
type ScoreHistory struct {
	StudentID string
	Records   []*ScoreRecord
}

// NewScoreHistory sorts the records by entry time and wraps them.
// Sorting is stable so records sharing a timestamp keep insertion order.
func NewScoreHistory(studentID string, records []*ScoreRecord) ScoreHistory {
	sorted := append([]*ScoreRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EnteredAt.Before(sorted[j].EnteredAt)
	})
	return ScoreHistory{StudentID: studentID, Records: sorted}
}

// Len returns the number of records in the history.
func (h ScoreHistory) Len() int {
	return len(h.Records)
}

// IsEmpty reports whether the history has no records.
func (h ScoreHistory) IsEmpty() bool {
	return len(h.Records) == 0
}

// Subjects derives the subject list from the keys of the first record,
// excluding bookkeeping keys, in sorted order. Returns nil for an empty
// history.
func (h ScoreHistory) Subjects() []string {
	if h.IsEmpty() {
		return nil
	}

	first := h.Records[0]
	subjects := make([]string, 0, len(first.Subjects))
	for name := range first.Subjects {
		if IsBookkeepingKey(name) {
			continue
		}
		subjects = append(subjects, name)
	}
	sort.Strings(subjects)
	return subjects
}

// SubjectScores collects the chronological score sequence for one subject.
// Records missing the subject are skipped rather than failing the whole
// history.
func (h ScoreHistory) SubjectScores(subject string) []int {
	scores := make([]int, 0, len(h.Records))
	for _, r := range h.Records {
		if score, ok := r.Score(subject); ok {
			scores = append(scores, score)
		}
	}
	return scores
}
