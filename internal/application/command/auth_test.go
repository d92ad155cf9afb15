package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/survey"
)

func TestRegisterAndLogin(t *testing.T) {
	studentRepo := newMemStudentRepo()
	sessionStore := newMemSessionStore()
	publisher := &memPublisher{}

	register := NewRegisterStudentHandler(studentRepo, publisher)
	login := NewLoginStudentHandler(studentRepo, sessionStore)

	registered, err := register.Handle(context.Background(), RegisterStudentCommand{
		Email:       "Nurlan@Example.COM",
		Password:    "correct horse",
		DisplayName: "Nurlan",
		ClassLevel:  "11",
		Location:    "Astana",
	})
	require.NoError(t, err)
	assert.Equal(t, "nurlan@example.com", registered.Email)
	assert.Equal(t, 1, registered.SubjectSetVersion)

	// Duplicate email is rejected regardless of case.
	_, err = register.Handle(context.Background(), RegisterStudentCommand{
		Email:       "nurlan@example.com",
		Password:    "another pass",
		DisplayName: "Imposter",
		ClassLevel:  "11",
		Location:    "Astana",
	})
	assert.ErrorIs(t, err, shared.ErrEmailAlreadyTaken)

	session, err := login.Handle(context.Background(), LoginStudentCommand{
		Email:    "nurlan@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.StudentID, session.StudentID)
	assert.NotEmpty(t, session.Token)

	stored, err := sessionStore.Get(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.StudentID, stored.StudentID)
}

func TestLogin_WrongPassword(t *testing.T) {
	studentRepo := newMemStudentRepo()
	sessionStore := newMemSessionStore()
	publisher := &memPublisher{}

	register := NewRegisterStudentHandler(studentRepo, publisher)
	login := NewLoginStudentHandler(studentRepo, sessionStore)

	_, err := register.Handle(context.Background(), RegisterStudentCommand{
		Email:       "aida@example.com",
		Password:    "right password",
		DisplayName: "Aida",
		ClassLevel:  "12",
		Location:    "Shymkent",
	})
	require.NoError(t, err)

	_, err = login.Handle(context.Background(), LoginStudentCommand{
		Email:    "aida@example.com",
		Password: "wrong password",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// Unknown email yields the same error as a wrong password.
	_, err = login.Handle(context.Background(), LoginStudentCommand{
		Email:    "nobody@example.com",
		Password: "whatever pass",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSubmitSurvey_WriteOnce(t *testing.T) {
	surveyRepo := newMemSurveyRepo()
	publisher := &memPublisher{}
	handler := NewSubmitSurveyHandler(surveyRepo, publisher)

	answers := make(map[int]int, survey.QuestionCount)
	for n := 1; n <= survey.QuestionCount; n++ {
		answers[n] = 3
	}

	result, err := handler.Handle(context.Background(), SubmitSurveyCommand{
		StudentID: "stud-1",
		Answers:   answers,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.WinningDomain)
	assert.Len(t, result.DomainScores, 6)
	assert.Contains(t, publisher.typesSeen(), shared.EventSurveyClassified)

	// Second submission is rejected.
	_, err = handler.Handle(context.Background(), SubmitSurveyCommand{
		StudentID: "stud-1",
		Answers:   answers,
	})
	assert.ErrorIs(t, err, survey.ErrAlreadySubmitted)
}
