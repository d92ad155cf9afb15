package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTrend_InsufficientData(t *testing.T) {
	assert.Equal(t, TrendInsufficientData, AnalyzeTrend(nil))
	assert.Equal(t, TrendInsufficientData, AnalyzeTrend([]int{}))
	assert.Equal(t, TrendInsufficientData, AnalyzeTrend([]int{75}))
}

func TestAnalyzeTrend_Classification(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   Trend
	}{
		{"improving", []int{40, 80}, TrendImproving},
		{"declining", []int{80, 40}, TrendDeclining},
		{"stable", []int{60, 60}, TrendStable},
		{"improving long", []int{10, 20, 30, 90}, TrendImproving},
		{"stable with noise", []int{50, 0, 100, 50}, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeTrend(tt.scores))
		})
	}
}

// Only the first and last values matter: a spike in the middle of the
// series must not affect the classification.
func TestAnalyzeTrend_IgnoresIntermediateValues(t *testing.T) {
	assert.Equal(t, TrendDeclining, AnalyzeTrend([]int{50, 90, 10}))
	assert.Equal(t, TrendImproving, AnalyzeTrend([]int{50, 5, 51}))
}

func mustRecord(t *testing.T, id string, subjects map[string]int, at time.Time) *ScoreRecord {
	t.Helper()
	record, err := NewScoreRecord(id, "student-1", 1, subjects, "12", at)
	require.NoError(t, err)
	return record
}

func TestNewScoreRecord_Validation(t *testing.T) {
	_, err := NewScoreRecord("r1", "student-1", 1, map[string]int{"Physics": 101}, "12", time.Now())
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	_, err = NewScoreRecord("r1", "student-1", 1, map[string]int{"Physics": -1}, "12", time.Now())
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	_, err = NewScoreRecord("r1", "student-1", 1, map[string]int{}, "12", time.Now())
	assert.ErrorIs(t, err, ErrNoSubjects)

	// A record that only carries bookkeeping keys has no subjects.
	_, err = NewScoreRecord("r1", "student-1", 1, map[string]int{"class": 12, "date": 20240101}, "12", time.Now())
	assert.ErrorIs(t, err, ErrNoSubjects)
}

func TestScoreHistory_SubjectsExcludeBookkeepingKeys(t *testing.T) {
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	record, err := NewScoreRecord("r1", "student-1", 1, map[string]int{
		"Physics":   70,
		"Maths":     65,
		"Chemistry": 80,
		"Class":     12, // bookkeeping, must be dropped
		"date":      1,  // bookkeeping, must be dropped
	}, "12", base)
	require.NoError(t, err)

	history := NewScoreHistory("student-1", []*ScoreRecord{record})
	assert.Equal(t, []string{"Chemistry", "Maths", "Physics"}, history.Subjects())
}

func TestScoreHistory_ChronologicalOrder(t *testing.T) {
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	newest := mustRecord(t, "r3", map[string]int{"Physics": 90}, base.Add(48*time.Hour))
	oldest := mustRecord(t, "r1", map[string]int{"Physics": 40}, base)
	middle := mustRecord(t, "r2", map[string]int{"Physics": 10}, base.Add(24*time.Hour))

	// Insertion order is scrambled; the history must sort by entry time.
	history := NewScoreHistory("student-1", []*ScoreRecord{newest, oldest, middle})

	require.Equal(t, 3, history.Len())
	assert.Equal(t, "r1", history.Records[0].ID)
	assert.Equal(t, "r3", history.Records[2].ID)
	assert.Equal(t, []int{40, 10, 90}, history.SubjectScores("Physics"))
	assert.Equal(t, TrendImproving, AnalyzeTrend(history.SubjectScores("Physics")))
}

func TestSubjectTrends(t *testing.T) {
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	history := NewScoreHistory("student-1", []*ScoreRecord{
		mustRecord(t, "r1", map[string]int{"Physics": 50, "Maths": 60, "Chemistry": 70}, base),
		mustRecord(t, "r2", map[string]int{"Physics": 90, "Maths": 60, "Chemistry": 40}, base.Add(time.Hour)),
	})

	trends := SubjectTrends(history)
	assert.Equal(t, TrendImproving, trends["Physics"])
	assert.Equal(t, TrendStable, trends["Maths"])
	assert.Equal(t, TrendDeclining, trends["Chemistry"])
}

// A record missing a subject is skipped for that subject instead of
// failing the whole history.
func TestSubjectTrends_MissingSubjectKeys(t *testing.T) {
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	history := NewScoreHistory("student-1", []*ScoreRecord{
		mustRecord(t, "r1", map[string]int{"Physics": 50, "Biology": 80}, base),
		mustRecord(t, "r2", map[string]int{"Physics": 70}, base.Add(time.Hour)),
	})

	trends := SubjectTrends(history)
	assert.Equal(t, TrendImproving, trends["Physics"])
	// Only one Biology score exists across the history.
	assert.Equal(t, TrendInsufficientData, trends["Biology"])
}

func TestSubjectTrends_EmptyHistory(t *testing.T) {
	history := NewScoreHistory("student-1", nil)
	assert.Empty(t, SubjectTrends(history))
	assert.True(t, history.IsEmpty())
}
