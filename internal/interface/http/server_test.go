package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidance-hub/career-guidance-hub/internal/application/command"
	"github.com/guidance-hub/career-guidance-hub/internal/application/query"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/assessment"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/guidance"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/survey"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type memStudentRepo struct {
	mu       sync.Mutex
	students map[string]*student.Student
}

func newMemStudentRepo() *memStudentRepo {
	return &memStudentRepo{students: make(map[string]*student.Student)}
}

func (r *memStudentRepo) Create(_ context.Context, s *student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.students {
		if existing.Email == s.Email {
			return student.ErrStudentAlreadyExists
		}
	}
	r.students[s.ID] = s.Clone()
	return nil
}

func (r *memStudentRepo) GetByID(_ context.Context, id string) (*student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return s.Clone(), nil
}

func (r *memStudentRepo) GetByEmail(_ context.Context, email student.Email) (*student.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Email == email {
			return s.Clone(), nil
		}
	}
	return nil, student.ErrStudentNotFound
}

func (r *memStudentRepo) Update(_ context.Context, s *student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[s.ID]; !ok {
		return student.ErrStudentNotFound
	}
	r.students[s.ID] = s.Clone()
	return nil
}

func (r *memStudentRepo) ExistsByEmail(_ context.Context, email student.Email) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memStudentRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.students), nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]student.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]student.Session)}
}

func (s *memSessionStore) Save(_ context.Context, session student.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *memSessionStore) Get(_ context.Context, token string) (student.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok || session.IsExpired(time.Now()) {
		return student.Session{}, shared.ErrSessionNotFound
	}
	return session, nil
}

func (s *memSessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *memSessionStore) DeleteAllForStudent(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.StudentID == studentID {
			delete(s.sessions, token)
		}
	}
	return nil
}

type memScoreRepo struct {
	mu      sync.Mutex
	records []*assessment.ScoreRecord
}

func (r *memScoreRepo) Append(_ context.Context, record *assessment.ScoreRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memScoreRepo) GetHistory(_ context.Context, studentID string) (assessment.ScoreHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*assessment.ScoreRecord
	for _, rec := range r.records {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return assessment.NewScoreHistory(studentID, out), nil
}

func (r *memScoreRepo) GetHistoryByVersion(_ context.Context, studentID string, version int) (assessment.ScoreHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*assessment.ScoreRecord
	for _, rec := range r.records {
		if rec.StudentID == studentID && rec.SubjectSetVersion == version {
			out = append(out, rec)
		}
	}
	return assessment.NewScoreHistory(studentID, out), nil
}

func (r *memScoreRepo) CountForStudent(_ context.Context, studentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

type memSurveyRepo struct {
	mu        sync.Mutex
	responses map[string]*survey.Response
}

func newMemSurveyRepo() *memSurveyRepo {
	return &memSurveyRepo{responses: make(map[string]*survey.Response)}
}

func (r *memSurveyRepo) Save(_ context.Context, response *survey.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.responses[response.StudentID]; ok {
		return survey.ErrAlreadySubmitted
	}
	r.responses[response.StudentID] = response
	return nil
}

func (r *memSurveyRepo) GetByStudent(_ context.Context, studentID string) (*survey.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	response, ok := r.responses[studentID]
	if !ok {
		return nil, survey.ErrResponseNotFound
	}
	return response, nil
}

func (r *memSurveyRepo) Exists(_ context.Context, studentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.responses[studentID]
	return ok, nil
}

type memGuidanceRepo struct {
	mu      sync.Mutex
	records []*guidance.Record
}

func (r *memGuidanceRepo) Append(_ context.Context, record *guidance.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memGuidanceRepo) GetByID(_ context.Context, id string) (*guidance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, guidance.ErrRecordNotFound
}

func (r *memGuidanceRepo) ListByStudent(_ context.Context, studentID string, limit int) ([]*guidance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*guidance.Record
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].StudentID == studentID {
			out = append(out, r.records[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) Generate(_ context.Context, _ string) (guidance.Generation, error) {
	if g.err != nil {
		return guidance.Generation{}, g.err
	}
	return guidance.Generation{Text: g.text, Model: "stub-model"}, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(shared.Event) error { return nil }

// ─────────────────────────────────────────────────────────────────────────────
// Test harness
// ─────────────────────────────────────────────────────────────────────────────

type testEnv struct {
	server    *httptest.Server
	generator *stubGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	studentRepo := newMemStudentRepo()
	sessions := newMemSessionStore()
	scoreRepo := &memScoreRepo{}
	surveyRepo := newMemSurveyRepo()
	guidanceRepo := &memGuidanceRepo{}
	generator := &stubGenerator{text: "Focus on mathematics."}
	publisher := noopPublisher{}

	config := DefaultConfig()
	config.RateLimitPerMinute = 0 // not under test here

	deps := Dependencies{
		RegisterStudentHandler: command.NewRegisterStudentHandler(studentRepo, publisher),
		LoginStudentHandler:    command.NewLoginStudentHandler(studentRepo, sessions),
		LogoutStudentHandler:   command.NewLogoutStudentHandler(sessions),
		UpdateProfileHandler:   command.NewUpdateProfileHandler(studentRepo, nil, publisher),
		RecordTestScoreHandler: command.NewRecordTestScoreHandler(studentRepo, scoreRepo, publisher),
		SubmitSurveyHandler:    command.NewSubmitSurveyHandler(surveyRepo, publisher),
		RequestGuidanceHandler: command.NewRequestGuidanceHandler(studentRepo, scoreRepo, guidanceRepo, generator, publisher),

		GetProfileHandler:         query.NewGetProfileHandler(studentRepo, nil),
		GetScoreHistoryHandler:    query.NewGetScoreHistoryHandler(studentRepo, scoreRepo),
		GetTrendReportHandler:     query.NewGetTrendReportHandler(studentRepo, scoreRepo),
		GetSurveyResultHandler:    query.NewGetSurveyResultHandler(surveyRepo),
		GetGuidanceHistoryHandler: query.NewGetGuidanceHistoryHandler(guidanceRepo),

		SessionStore: sessions,
	}

	srv := NewServer(config, deps)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, generator: generator}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, JSONResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded JSONResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// dataMap re-decodes the data payload into a map for field assertions.
func dataMap(t *testing.T, decoded JSONResponse) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(decoded.Data)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func registerAndLogin(t *testing.T, env *testEnv) (studentID, token string) {
	t.Helper()

	resp, decoded := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":        "aruzhan@example.com",
		"password":     "correct-horse",
		"display_name": "Aruzhan",
		"class_level":  "9",
		"location":     "Almaty",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	studentID = dataMap(t, decoded)["StudentID"].(string)

	resp, decoded = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "aruzhan@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token = dataMap(t, decoded)["token"].(string)
	require.NotEmpty(t, token)

	return studentID, token
}

func fullSurveyAnswers() map[string]int {
	answers := make(map[string]int, survey.QuestionCount)
	for n := 1; n <= survey.QuestionCount; n++ {
		answers[fmt.Sprintf("%d", n)] = 3
	}
	answers["1"] = 5 // tilt toward the first question's domain
	return answers
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_RegisterLoginProfile(t *testing.T) {
	env := newTestEnv(t)

	studentID, token := registerAndLogin(t, env)

	resp, decoded := env.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := dataMap(t, decoded)
	assert.Equal(t, studentID, profile["student_id"])
	assert.Equal(t, "aruzhan@example.com", profile["email"])
	assert.Equal(t, "Aruzhan", profile["display_name"])
	assert.Equal(t, float64(1), profile["subject_set_version"])
}

func TestServer_ProfileRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	resp, decoded := env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, decoded.Error)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/profile", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_DuplicateRegistrationConflicts(t *testing.T) {
	env := newTestEnv(t)

	registerAndLogin(t, env)

	resp, decoded := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":        "aruzhan@example.com",
		"password":     "another-pass",
		"display_name": "Other",
		"class_level":  "10",
		"location":     "Astana",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, "conflict", decoded.Error.Code)
}

func TestServer_LoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	registerAndLogin(t, env)

	resp, decoded := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "aruzhan@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, decoded.Error)
}

func TestServer_LogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)

	_, token := registerAndLogin(t, env)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, decoded := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":        "short@example.com",
		"password":     "short", // under the minimum length
		"display_name": "S",
		"class_level":  "9",
		"location":     "Almaty",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, "validation_failed", decoded.Error.Code)
}

func TestServer_InvalidJSONBody(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/auth/register", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_UpdateProfileBumpsSubjectVersion(t *testing.T) {
	env := newTestEnv(t)

	_, token := registerAndLogin(t, env)

	resp, decoded := env.do(t, http.MethodPut, "/api/v1/profile", token, map[string]interface{}{
		"subjects": []string{"math", "physics", "informatics"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := dataMap(t, decoded)
	assert.Equal(t, float64(2), updated["SubjectSetVersion"])
}

func TestServer_RecordScoresAndTrends(t *testing.T) {
	env := newTestEnv(t)

	_, token := registerAndLogin(t, env)

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	for i, mathScore := range []int{60, 72, 85} {
		resp, _ := env.do(t, http.MethodPost, "/api/v1/scores", token, map[string]interface{}{
			"subjects":    map[string]int{"Mathematics": mathScore, "Physics": 70},
			"class_label": "9A",
			"entered_at":  base.AddDate(0, i, 0),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, decoded := env.do(t, http.MethodGet, "/api/v1/scores", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := dataMap(t, decoded)
	assert.Equal(t, float64(3), history["count"])

	resp, decoded = env.do(t, http.MethodGet, "/api/v1/scores/trends", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := dataMap(t, decoded)

	trends := report["trends"].([]interface{})
	byName := make(map[string]map[string]interface{}, len(trends))
	for _, entry := range trends {
		m := entry.(map[string]interface{})
		byName[m["subject"].(string)] = m
	}
	require.Contains(t, byName, "Mathematics")
	assert.Equal(t, string(assessment.TrendImproving), byName["Mathematics"]["trend"])
	assert.Equal(t, float64(60), byName["Mathematics"]["first_score"])
	assert.Equal(t, float64(85), byName["Mathematics"]["last_score"])
	require.Contains(t, byName, "Physics")
	assert.Equal(t, string(assessment.TrendStable), byName["Physics"]["trend"])
}

func TestServer_SurveySubmitOnce(t *testing.T) {
	env := newTestEnv(t)

	_, token := registerAndLogin(t, env)

	resp, decoded := env.do(t, http.MethodPost, "/api/v1/survey", token, map[string]interface{}{
		"answers": fullSurveyAnswers(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	verdict := dataMap(t, decoded)
	assert.NotEmpty(t, verdict["WinningDomain"])

	// A second submission is rejected; the verdict is permanent.
	resp, decoded = env.do(t, http.MethodPost, "/api/v1/survey", token, map[string]interface{}{
		"answers": fullSurveyAnswers(),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, decoded.Error)

	resp, decoded = env.do(t, http.MethodGet, "/api/v1/survey", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored := dataMap(t, decoded)
	assert.Equal(t, verdict["WinningDomain"], stored["winning_domain"])
}

func TestServer_SurveyResultBeforeSubmission(t *testing.T) {
	env := newTestEnv(t)

	_, token := registerAndLogin(t, env)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/survey", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GuidanceRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	_, token := registerAndLogin(t, env)

	resp, decoded := env.do(t, http.MethodPost, "/api/v1/guidance", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := dataMap(t, decoded)
	assert.Equal(t, "Focus on mathematics.", result["text"])
	assert.Equal(t, false, result["failed"])
	assert.Equal(t, "stub-model", result["model"])
	assert.NotEmpty(t, result["record_id"])

	resp, decoded = env.do(t, http.MethodGet, "/api/v1/guidance/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := dataMap(t, decoded)
	assert.Equal(t, float64(1), history["count"])
}

func TestServer_GuidanceFailureIsDisplayable(t *testing.T) {
	env := newTestEnv(t)
	env.generator.err = errors.New("upstream unavailable")

	_, token := registerAndLogin(t, env)

	resp, decoded := env.do(t, http.MethodPost, "/api/v1/guidance", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := dataMap(t, decoded)
	assert.Equal(t, true, result["failed"])
	text := result["text"].(string)
	assert.Contains(t, text, guidance.ErrorMarker)
	assert.Contains(t, text, "upstream unavailable")
	assert.Empty(t, result["record_id"])

	// Failed generations are never archived.
	resp, decoded = env.do(t, http.MethodGet, "/api/v1/guidance/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), dataMap(t, decoded)["count"])
}

func TestServer_HealthWithoutChecker(t *testing.T) {
	env := newTestEnv(t)

	resp, decoded := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decoded.Success)

	resp, _ = env.do(t, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

// Without a session backend the auth handlers stay nil and the server
// degrades to public routes only. A nil concrete store must never be
// wrapped in the SessionStore interface: the resulting non-nil
// interface would slip past every guard and crash inside Save.
func TestServer_SessionlessModeServesOnlyPublicRoutes(t *testing.T) {
	studentRepo := newMemStudentRepo()
	publisher := noopPublisher{}

	config := DefaultConfig()
	config.RateLimitPerMinute = 0

	deps := Dependencies{
		RegisterStudentHandler: command.NewRegisterStudentHandler(studentRepo, publisher),
		GetProfileHandler:      query.NewGetProfileHandler(studentRepo, nil),
	}

	srv := NewServer(config, deps)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	env := &testEnv{server: ts}

	// Registration stays available.
	resp, _ := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":        "nursultan@example.com",
		"password":     "correct-horse",
		"display_name": "Nursultan",
		"class_level":  "10",
		"location":     "Astana",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Login with valid credentials answers 503, never a panic-driven 500.
	resp, decoded := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "nursultan@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, "service_unavailable", decoded.Error.Code)

	// Protected routes report auth as unavailable.
	resp, decoded = env.do(t, http.MethodGet, "/api/v1/profile", "some-token", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, "auth_unavailable", decoded.Error.Code)

	// Public health stays up.
	resp, _ = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimiter_Window(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Other clients are unaffected.
	assert.True(t, rl.Allow("10.0.0.2"))
}
