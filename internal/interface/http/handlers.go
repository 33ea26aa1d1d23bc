// Package http implements the REST API for the placement hub.
package http

import (
	"net/http"
	"time"

	"github.com/pasantia-hub/placement-hub/internal/application/command"
	"github.com/pasantia-hub/placement-hub/internal/application/query"
	"github.com/pasantia-hub/placement-hub/internal/application/saga"
	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
	"github.com/pasantia-hub/placement-hub/pkg/logger"
)

const idempotencyKeyHeader = "Idempotency-Key"

const dateLayout = "2006-01-02"

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Placement Hub API",
		"version":     "v1",
		"description": "REST API for academic internship placements",
		"endpoints": map[string]string{
			"health":       "/health",
			"register":     "/api/v1/auth/register",
			"login":        "/api/v1/auth/login",
			"applications": "/api/v1/applications",
			"dashboard":    "/api/v1/students/me/dashboard",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	u, err := s.deps.RegisterUser.Handle(r.Context(), command.RegisterUserCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     user.Role(req.Role),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.establishSession(w, r, u); err != nil {
		s.logger.Error("failed to establish session", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to establish session")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// handleLogin handles POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	u, err := s.deps.AuthenticateUser.Handle(r.Context(), command.AuthenticateUserCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.establishSession(w, r, u); err != nil {
		s.logger.Error("failed to establish session", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to establish session")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// handleLogout handles POST /api/v1/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.clearSession(w, r); err != nil {
		s.logger.Warn("failed to clear session", logger.Err(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WORKFLOW HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type curriculumPayload struct {
	Summary    string `json:"summary"`
	Education  string `json:"education"`
	Experience string `json:"experience,omitempty"`
	Skills     string `json:"skills,omitempty"`
	About      string `json:"about,omitempty"`
}

type submitApplicationRequest struct {
	CompanyID  string            `json:"companyId"`
	Curriculum curriculumPayload `json:"curriculum"`
}

type applicationResponse struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"studentId"`
	StudentName  string     `json:"studentName,omitempty"`
	CompanyID    string     `json:"companyId"`
	CompanyName  string     `json:"companyName,omitempty"`
	Status       string     `json:"status"`
	TutorName    string     `json:"tutorName,omitempty"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	Deduplicated bool       `json:"deduplicated,omitempty"`
}

func toApplicationResponse(app *application.Application, deduplicated bool) applicationResponse {
	resp := applicationResponse{
		ID:           app.ID,
		StudentID:    app.StudentID,
		StudentName:  app.StudentName,
		CompanyID:    app.CompanyID,
		CompanyName:  app.CompanyName,
		Status:       string(app.Status),
		TutorName:    app.TutorName,
		SubmittedAt:  app.SubmittedAt,
		Deduplicated: deduplicated,
	}
	if !app.ReviewedAt.IsZero() {
		reviewedAt := app.ReviewedAt
		resp.ReviewedAt = &reviewedAt
	}
	return resp
}

// handleSubmitApplication handles POST /api/v1/applications
func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req submitApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	result, err := s.deps.SubmitApplication.Handle(r.Context(), command.SubmitApplicationCommand{
		StudentID: actor.ID,
		CompanyID: req.CompanyID,
		Curriculum: application.Curriculum{
			Summary:    req.Curriculum.Summary,
			Education:  req.Curriculum.Education,
			Experience: req.Curriculum.Experience,
			Skills:     req.Curriculum.Skills,
			About:      req.Curriculum.About,
		},
		IdempotencyKey: r.Header.Get(idempotencyKeyHeader),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Deduplicated {
		status = http.StatusOK
	}
	writeJSON(w, status, toApplicationResponse(result.Application, result.Deduplicated))
}

type reviewApplicationRequest struct {
	Decision string `json:"decision"`
}

// handleReviewApplication handles POST /api/v1/applications/{id}/review
func (s *Server) handleReviewApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	applicationID := r.PathValue("id")
	if applicationID == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "application id is required")
		return
	}

	var req reviewApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	app, err := s.deps.ReviewApplication.Handle(r.Context(), command.ReviewApplicationCommand{
		ApplicationID: applicationID,
		TutorID:       actor.ID,
		Decision:      application.ReviewDecision(req.Decision),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app, false))
}

type decideApplicationRequest struct {
	Decision string `json:"decision"`
}

type decideApplicationResponse struct {
	Application applicationResponse `json:"application"`
	Internship  *internshipResponse `json:"internship,omitempty"`
}

// handleDecideApplication handles POST /api/v1/applications/{id}/decision
func (s *Server) handleDecideApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	applicationID := r.PathValue("id")
	if applicationID == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "application id is required")
		return
	}

	var req decideApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	result, err := s.deps.AcceptanceFlow.Execute(r.Context(), saga.DecideApplicationInput{
		ApplicationID:  applicationID,
		CompanyID:      actor.ID,
		Decision:       application.CompanyDecision(req.Decision),
		IdempotencyKey: r.Header.Get(idempotencyKeyHeader),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := decideApplicationResponse{
		Application: toApplicationResponse(result.Application, result.Deduplicated),
	}
	if result.Internship != nil {
		i := toInternshipResponse(result.Internship)
		resp.Internship = &i
	}

	writeJSON(w, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNSHIP HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type internshipResponse struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	StudentID     string    `json:"studentId"`
	CompanyID     string    `json:"companyId"`
	StartDate     time.Time `json:"startDate"`
	LoggedHours   int       `json:"loggedHours"`
	Status        string    `json:"status"`
}

func toInternshipResponse(i *internship.Internship) internshipResponse {
	return internshipResponse{
		ID:            i.ID,
		ApplicationID: i.ApplicationID,
		StudentID:     i.StudentID,
		CompanyID:     i.CompanyID,
		StartDate:     i.StartDate,
		LoggedHours:   i.LoggedHours,
		Status:        string(i.Status),
	}
}

type logHoursRequest struct {
	Date        string `json:"date"`
	Hours       int    `json:"hours"`
	Description string `json:"description"`
}

type logHoursResponse struct {
	Internship   internshipResponse `json:"internship"`
	Completed    bool               `json:"completed"`
	Deduplicated bool               `json:"deduplicated,omitempty"`
}

// handleLogHours handles POST /api/v1/internships/{id}/hours
func (s *Server) handleLogHours(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	internshipID := r.PathValue("id")
	if internshipID == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "internship id is required")
		return
	}

	var req logHoursRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "date must be formatted as YYYY-MM-DD")
		return
	}

	result, err := s.deps.LogHours.Handle(r.Context(), command.LogHoursCommand{
		InternshipID:   internshipID,
		StudentID:      actor.ID,
		Date:           date,
		Hours:          req.Hours,
		Description:    req.Description,
		IdempotencyKey: r.Header.Get(idempotencyKeyHeader),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, logHoursResponse{
		Internship:   toInternshipResponse(result.Internship),
		Completed:    result.Completed,
		Deduplicated: result.Deduplicated,
	})
}

// handleInternshipProgress handles GET /api/v1/internships/{id}
func (s *Server) handleInternshipProgress(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	internshipID := r.PathValue("id")
	if internshipID == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "internship id is required")
		return
	}

	result, err := s.deps.InternshipProgress.Handle(r.Context(), query.GetInternshipProgressQuery{
		InternshipID: internshipID,
		RequesterID:  actor.ID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleStudentDashboard handles GET /api/v1/students/me/dashboard
func (s *Server) handleStudentDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	result, err := s.deps.StudentDashboard.Handle(r.Context(), query.GetStudentDashboardQuery{
		StudentID: actor.ID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handlePendingReviews handles GET /api/v1/reviews/pending
func (s *Server) handlePendingReviews(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	result, err := s.deps.PendingReviews.Handle(r.Context(), query.GetPendingReviewsQuery{
		TutorID: actor.ID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCompanyBoard handles GET /api/v1/company/board
func (s *Server) handleCompanyBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	result, err := s.deps.CompanyBoard.Handle(r.Context(), query.GetCompanyBoardQuery{
		CompanyID: actor.ID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
