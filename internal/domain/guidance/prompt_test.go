package guidance

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/assessment"
)

func buildHistory(t *testing.T) assessment.ScoreHistory {
	t.Helper()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	first, err := assessment.NewScoreRecord("r1", "student-1", 1, map[string]int{
		"Physics": 55, "Maths": 70, "Chemistry": 62,
	}, "12", base)
	require.NoError(t, err)

	second, err := assessment.NewScoreRecord("r2", "student-1", 1, map[string]int{
		"Physics": 78, "Maths": 70, "Chemistry": 50,
	}, "12", base.Add(30*24*time.Hour))
	require.NoError(t, err)

	return assessment.NewScoreHistory("student-1", []*assessment.ScoreRecord{first, second})
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	req := NewRequest("Priya", buildHistory(t), "Tamil Nadu", "software engineering")

	a := BuildPrompt(req)
	b := BuildPrompt(req)
	assert.Equal(t, a, b, "identical inputs must yield byte-identical prompts")
}

func TestBuildPrompt_Content(t *testing.T) {
	req := NewRequest("Priya", buildHistory(t), "Tamil Nadu", "software engineering")
	prompt := BuildPrompt(req)

	assert.Contains(t, prompt, "The student Priya has the following details")
	assert.Contains(t, prompt, "Test 1: Chemistry=62, Maths=70, Physics=55")
	assert.Contains(t, prompt, "Test 2: Chemistry=50, Maths=70, Physics=78")
	assert.Contains(t, prompt, "Physics: Improving")
	assert.Contains(t, prompt, "Maths: Stable")
	assert.Contains(t, prompt, "Chemistry: Declining")
	assert.Contains(t, prompt, "Location: Tamil Nadu")
	assert.Contains(t, prompt, "Requirement: software engineering")
	assert.Contains(t, prompt, "College Name | Course | Eligibility | Application Process")
	assert.Contains(t, prompt, "Do NOT return JSON")
}

func TestBuildPrompt_SubjectsSorted(t *testing.T) {
	req := NewRequest("Priya", buildHistory(t), "Tamil Nadu", "software engineering")
	prompt := BuildPrompt(req)

	// Trends render in sorted subject order regardless of map iteration.
	chem := strings.Index(prompt, "Chemistry: Declining")
	maths := strings.Index(prompt, "Maths: Stable")
	phys := strings.Index(prompt, "Physics: Improving")
	require.True(t, chem >= 0 && maths >= 0 && phys >= 0)
	assert.Less(t, chem, maths)
	assert.Less(t, maths, phys)
}

func TestBuildPrompt_SkipsMissingSubjects(t *testing.T) {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	first, err := assessment.NewScoreRecord("r1", "student-1", 1, map[string]int{
		"Physics": 55, "Maths": 70,
	}, "12", base)
	require.NoError(t, err)

	// Second record is missing Maths entirely.
	second, err := assessment.NewScoreRecord("r2", "student-1", 1, map[string]int{
		"Physics": 60,
	}, "12", base.Add(time.Hour))
	require.NoError(t, err)

	history := assessment.NewScoreHistory("student-1", []*assessment.ScoreRecord{first, second})
	prompt := BuildPrompt(NewRequest("Arun", history, "Kerala", "research"))

	assert.Contains(t, prompt, "Test 2: Physics=60\n")
	assert.Contains(t, prompt, "Maths: Not enough data")
}

func TestNewRecord_Validation(t *testing.T) {
	_, err := NewRecord("g1", "student-1", "prompt", "", "llama3-70b-8192")
	assert.ErrorIs(t, err, ErrEmptyText)

	record, err := NewRecord("g1", "student-1", "prompt", "Guidance text", "llama3-70b-8192")
	require.NoError(t, err)
	assert.Equal(t, "student-1", record.StudentID)
	assert.False(t, record.CreatedAt.IsZero())
}
