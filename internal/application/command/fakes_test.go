package command

import (
	"context"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/assessment"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/guidance"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/survey"
)

// In-memory collaborators for handler tests. No locking: tests drive
// them from a single goroutine.

type memStudentRepo struct {
	students map[string]*student.Student
	byEmail  map[student.Email]string
}

func newMemStudentRepo() *memStudentRepo {
	return &memStudentRepo{
		students: make(map[string]*student.Student),
		byEmail:  make(map[student.Email]string),
	}
}

func (r *memStudentRepo) Create(_ context.Context, s *student.Student) error {
	if _, ok := r.byEmail[s.Email]; ok {
		return student.ErrStudentAlreadyExists
	}
	r.students[s.ID] = s.Clone()
	r.byEmail[s.Email] = s.ID
	return nil
}

func (r *memStudentRepo) GetByID(_ context.Context, id string) (*student.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return s.Clone(), nil
}

func (r *memStudentRepo) GetByEmail(_ context.Context, email student.Email) (*student.Student, error) {
	id, ok := r.byEmail[email]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return r.students[id].Clone(), nil
}

func (r *memStudentRepo) Update(_ context.Context, s *student.Student) error {
	if _, ok := r.students[s.ID]; !ok {
		return student.ErrStudentNotFound
	}
	r.students[s.ID] = s.Clone()
	return nil
}

func (r *memStudentRepo) ExistsByEmail(_ context.Context, email student.Email) (bool, error) {
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *memStudentRepo) Count(_ context.Context) (int, error) {
	return len(r.students), nil
}

type memSessionStore struct {
	sessions map[string]student.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]student.Session)}
}

func (s *memSessionStore) Save(_ context.Context, session student.Session, _ time.Duration) error {
	s.sessions[session.Token] = session
	return nil
}

func (s *memSessionStore) Get(_ context.Context, token string) (student.Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return student.Session{}, shared.ErrSessionNotFound
	}
	return session, nil
}

func (s *memSessionStore) Delete(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

func (s *memSessionStore) DeleteAllForStudent(_ context.Context, studentID string) error {
	for token, session := range s.sessions {
		if session.StudentID == studentID {
			delete(s.sessions, token)
		}
	}
	return nil
}

type memScoreRepo struct {
	records []*assessment.ScoreRecord
}

func (r *memScoreRepo) Append(_ context.Context, record *assessment.ScoreRecord) error {
	r.records = append(r.records, record)
	return nil
}

func (r *memScoreRepo) GetHistory(_ context.Context, studentID string) (assessment.ScoreHistory, error) {
	var own []*assessment.ScoreRecord
	for _, rec := range r.records {
		if rec.StudentID == studentID {
			own = append(own, rec)
		}
	}
	return assessment.NewScoreHistory(studentID, own), nil
}

func (r *memScoreRepo) GetHistoryByVersion(_ context.Context, studentID string, version int) (assessment.ScoreHistory, error) {
	var own []*assessment.ScoreRecord
	for _, rec := range r.records {
		if rec.StudentID == studentID && rec.SubjectSetVersion == version {
			own = append(own, rec)
		}
	}
	return assessment.NewScoreHistory(studentID, own), nil
}

func (r *memScoreRepo) CountForStudent(_ context.Context, studentID string) (int, error) {
	n := 0
	for _, rec := range r.records {
		if rec.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

type memSurveyRepo struct {
	responses map[string]*survey.Response
}

func newMemSurveyRepo() *memSurveyRepo {
	return &memSurveyRepo{responses: make(map[string]*survey.Response)}
}

func (r *memSurveyRepo) Save(_ context.Context, response *survey.Response) error {
	if _, ok := r.responses[response.StudentID]; ok {
		return survey.ErrAlreadySubmitted
	}
	r.responses[response.StudentID] = response
	return nil
}

func (r *memSurveyRepo) GetByStudent(_ context.Context, studentID string) (*survey.Response, error) {
	response, ok := r.responses[studentID]
	if !ok {
		return nil, survey.ErrResponseNotFound
	}
	return response, nil
}

func (r *memSurveyRepo) Exists(_ context.Context, studentID string) (bool, error) {
	_, ok := r.responses[studentID]
	return ok, nil
}

type memGuidanceRepo struct {
	records []*guidance.Record
}

func (r *memGuidanceRepo) Append(_ context.Context, record *guidance.Record) error {
	r.records = append(r.records, record)
	return nil
}

func (r *memGuidanceRepo) GetByID(_ context.Context, id string) (*guidance.Record, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, guidance.ErrRecordNotFound
}

func (r *memGuidanceRepo) ListByStudent(_ context.Context, studentID string, limit int) ([]*guidance.Record, error) {
	var own []*guidance.Record
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].StudentID == studentID {
			own = append(own, r.records[i])
			if limit > 0 && len(own) == limit {
				break
			}
		}
	}
	return own, nil
}

// fakeGenerator returns a canned generation or error and captures the
// prompt it was called with.
type fakeGenerator struct {
	generation guidance.Generation
	err        error

	calls   int
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (guidance.Generation, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return guidance.Generation{}, g.err
	}
	return g.generation, nil
}

type memPublisher struct {
	events []shared.Event
}

func (p *memPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *memPublisher) typesSeen() []shared.EventType {
	types := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}
