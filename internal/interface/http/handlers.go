package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/application/command"
	"github.com/guidance-hub/career-guidance-hub/internal/application/query"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/survey"
	"github.com/guidance-hub/career-guidance-hub/internal/interface/http/handlers"
	"github.com/guidance-hub/career-guidance-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth returns the overall health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	httpStatus := http.StatusOK
	if !status.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, status)
}

// handleReady returns readiness status (all dependencies reachable).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive returns liveness status (process is up).
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
		return
	}

	info := map[string]interface{}{
		"name":    "Career Guidance Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":   "/health",
			"register": "/api/v1/auth/register",
			"login":    "/api/v1/auth/login",
			"profile":  "/api/v1/profile",
			"scores":   "/api/v1/scores",
			"trends":   "/api/v1/scores/trends",
			"survey":   "/api/v1/survey",
			"guidance": "/api/v1/guidance",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	DisplayName string   `json:"display_name"`
	ClassLevel  string   `json:"class_level"`
	Location    string   `json:"location"`
	Interest    string   `json:"interest,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
}

// handleRegister creates a new student account.
// POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.deps.RegisterStudentHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Registration is not available")
		return
	}

	var req registerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	cmd := command.RegisterStudentCommand{
		Email:         req.Email,
		Password:      req.Password,
		DisplayName:   req.DisplayName,
		ClassLevel:    req.ClassLevel,
		Location:      req.Location,
		Interest:      req.Interest,
		Subjects:      req.Subjects,
		CorrelationID: getRequestID(r.Context()),
	}

	if err := cmd.Validate(); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_failed", "Invalid registration data", err.Error())
		return
	}

	result, err := s.deps.RegisterStudentHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "register failed")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	StudentID string    `json:"student_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin exchanges credentials for a session token.
// POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.LoginStudentHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Login is not available")
		return
	}

	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	cmd := command.LoginStudentCommand{
		Email:    req.Email,
		Password: req.Password,
		TTL:      command.DefaultSessionTTL,
	}

	if err := cmd.Validate(); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_failed", "Invalid login data", err.Error())
		return
	}

	result, err := s.deps.LoginStudentHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		StudentID: result.StudentID,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// handleLogout revokes the session presented in the Authorization header.
// POST /api/v1/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.deps.LogoutStudentHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Logout is not available")
		return
	}

	token, ok := handlers.SessionTokenFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing_token", "No session token provided")
		return
	}

	if err := s.deps.LogoutStudentHandler.Handle(r.Context(), token); err != nil {
		s.writeDomainError(w, r, err, "logout failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProfile returns the authenticated student's profile.
// GET /api/v1/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetProfileHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Profile service is not available")
		return
	}

	studentID, ok := handlers.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	result, err := s.deps.GetProfileHandler.Handle(r.Context(), query.GetProfileQuery{StudentID: studentID})
	if err != nil {
		s.writeDomainError(w, r, err, "get profile failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type updateProfileRequest struct {
	DisplayName *string  `json:"display_name,omitempty"`
	ClassLevel  *string  `json:"class_level,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Interest    *string  `json:"interest,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
}

// handleUpdateProfile applies a partial profile update.
// PUT /api/v1/profile
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.UpdateProfileHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Profile service is not available")
		return
	}

	studentID, ok := handlers.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req updateProfileRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	cmd := command.UpdateProfileCommand{
		StudentID:     studentID,
		DisplayName:   req.DisplayName,
		ClassLevel:    req.ClassLevel,
		Location:      req.Location,
		Interest:      req.Interest,
		Subjects:      req.Subjects,
		CorrelationID: getRequestID(r.Context()),
	}

	if err := cmd.Validate(); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_failed", "Invalid profile data", err.Error())
		return
	}

	result, err := s.deps.UpdateProfileHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "update profile failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type recordScoreRequest struct {
	Subjects   map[string]int `json:"subjects"`
	ClassLabel string         `json:"class_label"`
	EnteredAt  *time.Time     `json:"entered_at,omitempty"`
}

// handleRecordScore appends a test score record.
// POST /api/v1/scores
func (s *Server) handleRecordScore(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordTestScoreHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Score service is not available")
		return
	}

	studentID, ok := handlers.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req recordScoreRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	enteredAt := time.Now().UTC()
	if req.EnteredAt != nil {
		enteredAt = req.EnteredAt.UTC()
	}

	cmd := command.RecordTestScoreCommand{
		StudentID:     studentID,
		Subjects:      req.Subjects,
		ClassLabel:    req.ClassLabel,
		EnteredAt:     enteredAt,
		CorrelationID: getRequestID(r.Context()),
	}

	if err := cmd.Validate(); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_failed", "Invalid score data", err.Error())
		return
	}

	result, err := s.deps.RecordTestScoreHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "record score failed")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetScores returns the score history.
// GET /api/v1/scores?version=N&all=true
func (s *Server) handleGetScores(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetScoreHistoryHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Score service is not available")
		return
	}

	studentID, ok := handlers.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	q := query.GetScoreHistoryQuery{
		StudentID:         studentID,
		SubjectSetVersion: getQueryParamInt(r, "version", 0),
		AllVersions:       getQueryParamBool(r, "all"),
	}

	result, err := s.deps.GetScoreHistoryHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "get scores failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetTrends returns the per-subject trend report.
// GET /api/v1/scores/trends
func (s *Server) handleGetTrends(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetTrendReportHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Trend service is not available")
		return
	}

	studentID, ok := handlers.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	result, err := s.deps.GetTrendReportHandler.Handle(r.Context(), query.GetTrendReportQuery{StudentID: studentID})
	if err != nil {
		s.writeDomainError(w, r, err, "get trends failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SURVEY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type submitSurveyRequest struct {
	// Answers maps question number (1-31) to a 1-5 rating.
	Answers map[int]int `json:"answers"`
}

// handleSubmitSurvey accepts the career survey and returns the verdict.
// POST /api/v1/survey
func (s *Server) handleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitSurveyHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Survey service is not available")
		return
	}

	studentID, ok := handlers.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req submitSurveyRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	cmd := command.SubmitSurveyCommand{
		StudentID:     studentID,
		Answers:       req.Answers,
		CorrelationID: getRequestID(r.Context()),
	}

	if err := cmd.Validate(); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_failed", "Invalid survey data", err.Error())
		return
	}

	result, err := s.deps.SubmitSurveyHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "submit survey failed")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetSurveyResult returns the stored survey verdict.
// GET /api/v1/survey?answers=true
func (s *Server) handleGetSurveyResult(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetSurveyResultHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Survey service is not available")
		return
	}

	studentID, ok := handlers.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	q := query.GetSurveyResultQuery{
		StudentID:      studentID,
		IncludeAnswers: getQueryParamBool(r, "answers"),
	}

	result, err := s.deps.GetSurveyResultHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "get survey result failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// GUIDANCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type guidanceResponse struct {
	Text     string `json:"text"`
	Failed   bool   `json:"failed"`
	Cached   bool   `json:"cached"`
	RecordID string `json:"record_id,omitempty"`
	Model    string `json:"model,omitempty"`
}

// handleRequestGuidance produces AI career guidance for the student.
// A generation failure still returns 200: the body carries displayable
// text beginning with the error marker, and Failed is set.
// POST /api/v1/guidance?refresh=true
func (s *Server) handleRequestGuidance(w http.ResponseWriter, r *http.Request) {
	if s.deps.RequestGuidanceHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Guidance service is not available")
		return
	}

	studentID, ok := handlers.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	cmd := command.RequestGuidanceCommand{
		StudentID:     studentID,
		Refresh:       getQueryParamBool(r, "refresh"),
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.RequestGuidanceHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "request guidance failed")
		return
	}

	writeJSON(w, http.StatusOK, guidanceResponse{
		Text:     result.Text,
		Failed:   result.Failed,
		Cached:   result.Cached,
		RecordID: result.RecordID,
		Model:    result.Model,
	})
}

// handleGetGuidanceHistory returns archived guidance exchanges.
// GET /api/v1/guidance/history?limit=N&prompts=true
func (s *Server) handleGetGuidanceHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetGuidanceHistoryHandler == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "Guidance service is not available")
		return
	}

	studentID, ok := handlers.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	q := query.GetGuidanceHistoryQuery{
		StudentID:      studentID,
		Limit:          getQueryParamInt(r, "limit", query.DefaultGuidanceHistoryLimit),
		IncludePrompts: getQueryParamBool(r, "prompts"),
	}

	result, err := s.deps.GetGuidanceHistoryHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "get guidance history failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING & ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeJSONBody decodes the request body, writing a 400 on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON", err.Error())
		return err
	}
	return nil
}

// writeDomainError maps application errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	s.logger.Warn(logMsg,
		logger.Err(err),
		logger.String("path", r.URL.Path),
		logger.String("request_id", getRequestID(r.Context())),
	)

	switch {
	case shared.IsUnauthorized(err):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case shared.IsNotFound(err) || errors.Is(err, student.ErrStudentNotFound) || errors.Is(err, survey.ErrResponseNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err) || errors.Is(err, survey.ErrAlreadySubmitted):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsValidation(err) || errors.Is(err, student.ErrInvalidEmail):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
	}
}
