package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/assessment"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/guidance"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

func seedStudent(t *testing.T, repo *memStudentRepo) *student.Student {
	t.Helper()

	stud, err := student.NewStudent(student.NewStudentParams{
		ID:           "stud-1",
		Email:        "asel@example.com",
		PasswordHash: "$2a$10$hash",
		DisplayName:  "Asel",
		ClassLevel:   "12",
		Location:     "Almaty",
		Interest:     "robotics",
		Subjects:     []string{"Physics", "Maths"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), stud))
	return stud
}

func seedScores(t *testing.T, repo *memScoreRepo, stud *student.Student) {
	t.Helper()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, scores := range []map[string]int{
		{"Physics": 55, "Maths": 70},
		{"Physics": 72, "Maths": 64},
	} {
		record, err := assessment.NewScoreRecord(
			"rec-"+string(rune('a'+i)),
			stud.ID,
			stud.SubjectSet.Version,
			scores,
			"12",
			base.AddDate(0, 0, i),
		)
		require.NoError(t, err)
		require.NoError(t, repo.Append(context.Background(), record))
	}
}

func TestRequestGuidance_Success(t *testing.T) {
	studentRepo := newMemStudentRepo()
	stud := seedStudent(t, studentRepo)

	scoreRepo := &memScoreRepo{}
	seedScores(t, scoreRepo, stud)

	guidanceRepo := &memGuidanceRepo{}
	generator := &fakeGenerator{
		generation: guidance.Generation{
			Text:  "Consider an engineering track.\n\n| College Name | Course | Eligibility | Application Process |\n",
			Model: "llama3-70b-8192",
		},
	}
	publisher := &memPublisher{}

	handler := NewRequestGuidanceHandler(studentRepo, scoreRepo, guidanceRepo, generator, publisher)

	result, err := handler.Handle(context.Background(), RequestGuidanceCommand{StudentID: stud.ID})
	require.NoError(t, err)

	assert.False(t, result.Failed)
	assert.Equal(t, generator.generation.Text, result.Text)
	assert.Equal(t, "llama3-70b-8192", result.Model)
	assert.NotEmpty(t, result.RecordID)

	// Exactly one model call, carrying the student's details.
	assert.Equal(t, 1, generator.calls)
	require.Len(t, generator.prompts, 1)
	assert.Contains(t, generator.prompts[0], "The student Asel has the following details:")
	assert.Contains(t, generator.prompts[0], "- Location: Almaty")

	// The exchange is archived.
	require.Len(t, guidanceRepo.records, 1)
	assert.Equal(t, result.RecordID, guidanceRepo.records[0].ID)
	assert.Equal(t, generator.prompts[0], guidanceRepo.records[0].Prompt)

	assert.Contains(t, publisher.typesSeen(), shared.EventGuidanceGenerated)
}

func TestRequestGuidance_GeneratorFailureReturnsMarkerText(t *testing.T) {
	studentRepo := newMemStudentRepo()
	stud := seedStudent(t, studentRepo)

	scoreRepo := &memScoreRepo{}
	seedScores(t, scoreRepo, stud)

	guidanceRepo := &memGuidanceRepo{}
	generator := &fakeGenerator{err: errors.New("upstream returned 503")}
	publisher := &memPublisher{}

	handler := NewRequestGuidanceHandler(studentRepo, scoreRepo, guidanceRepo, generator, publisher)

	result, err := handler.Handle(context.Background(), RequestGuidanceCommand{StudentID: stud.ID})

	// The failure travels inside the result, never as an error.
	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.True(t, strings.HasPrefix(result.Text, guidance.ErrorMarker), "text = %q", result.Text)
	assert.Contains(t, result.Text, "upstream returned 503")
	assert.Empty(t, result.RecordID)

	// Failed generations are not archived.
	assert.Empty(t, guidanceRepo.records)
	assert.Contains(t, publisher.typesSeen(), shared.EventGuidanceFailed)

	// One attempt only, no retry.
	assert.Equal(t, 1, generator.calls)
}

func TestRequestGuidance_EmptyReplyIsFailure(t *testing.T) {
	studentRepo := newMemStudentRepo()
	stud := seedStudent(t, studentRepo)

	scoreRepo := &memScoreRepo{}
	guidanceRepo := &memGuidanceRepo{}
	generator := &fakeGenerator{generation: guidance.Generation{Text: "", Model: "llama3-70b-8192"}}
	publisher := &memPublisher{}

	handler := NewRequestGuidanceHandler(studentRepo, scoreRepo, guidanceRepo, generator, publisher)

	result, err := handler.Handle(context.Background(), RequestGuidanceCommand{StudentID: stud.ID})
	require.NoError(t, err)

	assert.True(t, result.Failed)
	assert.True(t, strings.HasPrefix(result.Text, guidance.ErrorMarker))
	assert.Empty(t, guidanceRepo.records)
}

func TestRequestGuidance_UnknownStudentIsAnError(t *testing.T) {
	handler := NewRequestGuidanceHandler(
		newMemStudentRepo(), &memScoreRepo{}, &memGuidanceRepo{}, &fakeGenerator{}, &memPublisher{},
	)

	result, err := handler.Handle(context.Background(), RequestGuidanceCommand{StudentID: "missing"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, student.ErrStudentNotFound)
}

func TestRequestGuidance_EmptyHistoryStillCallsModel(t *testing.T) {
	studentRepo := newMemStudentRepo()
	stud := seedStudent(t, studentRepo)

	generator := &fakeGenerator{generation: guidance.Generation{Text: "General advice.", Model: "llama3-70b-8192"}}
	handler := NewRequestGuidanceHandler(studentRepo, &memScoreRepo{}, &memGuidanceRepo{}, generator, &memPublisher{})

	result, err := handler.Handle(context.Background(), RequestGuidanceCommand{StudentID: stud.ID})
	require.NoError(t, err)

	assert.False(t, result.Failed)
	require.Len(t, generator.prompts, 1)
	assert.Contains(t, generator.prompts[0], "- Test Scores:\n")
}
