package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasantia-hub/placement-hub/internal/application/command"
	"github.com/pasantia-hub/placement-hub/internal/application/query"
	"github.com/pasantia-hub/placement-hub/internal/application/saga"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/messaging"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/persistence/memory"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/service"
	"github.com/pasantia-hub/placement-hub/pkg/logger"
)

// apiClient is a cookie-carrying client bound to one logged-in user.
type apiClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newAPIClient(t *testing.T, base string) *apiClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: base, client: &http.Client{Jar: jar}}
}

func (c *apiClient) do(method, path string, body interface{}, headers map[string]string) (*http.Response, map[string]json.RawMessage) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var envelope map[string]json.RawMessage
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func (c *apiClient) data(envelope map[string]json.RawMessage, dst interface{}) {
	c.t.Helper()
	require.Contains(c.t, envelope, "data")
	require.NoError(c.t, json.Unmarshal(envelope["data"], dst))
}

func (c *apiClient) register(name, email, role string) string {
	c.t.Helper()
	resp, envelope := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": name, "email": email, "password": "secret1", "role": role,
	}, nil)
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)

	var u struct {
		ID string `json:"id"`
	}
	c.data(envelope, &u)
	require.NotEmpty(c.t, u.ID)
	return u.ID
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	users := memory.NewUserRepository()
	applications := memory.NewApplicationRepository()
	internships := memory.NewInternshipRepository()
	idempotency := memory.NewIdempotencyStore()
	idGen := service.NewIDGenerator()
	log := logger.New(logger.Options{Level: logger.LevelError})
	bus := messaging.NewInMemoryEventBus(messaging.Config{AsyncMode: false, Logger: log})
	t.Cleanup(func() { _ = bus.Close() })

	config := DefaultConfig()
	config.SessionSecret = "test-session-secret"
	config.RateLimitPerMinute = 0

	srv := NewServer(config, Dependencies{
		RegisterUser:       command.NewRegisterUserHandler(users, idGen),
		AuthenticateUser:   command.NewAuthenticateUserHandler(users),
		SubmitApplication:  command.NewSubmitApplicationHandler(applications, users, idempotency, idGen, bus),
		ReviewApplication:  command.NewReviewApplicationHandler(applications, users, bus),
		LogHours:           command.NewLogHoursHandler(internships, idempotency, bus),
		AcceptanceFlow:     saga.NewAcceptanceFlow(applications, internships, users, idempotency, idGen, bus, log),
		StudentDashboard:   query.NewGetStudentDashboardHandler(applications, internships),
		PendingReviews:     query.NewGetPendingReviewsHandler(applications, users),
		CompanyBoard:       query.NewGetCompanyBoardHandler(applications, internships, users),
		InternshipProgress: query.NewGetInternshipProgressHandler(internships),
		Logger:             log,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func submitBody(companyID string) map[string]interface{} {
	return map[string]interface{}{
		"companyId": companyID,
		"curriculum": map[string]string{
			"summary":   "Backend developer in training",
			"education": "B.Sc. Computer Science, 3rd year",
			"skills":    "Go, SQL",
		},
	}
}

func TestAPI_FullPlacementWorkflow(t *testing.T) {
	ts := newTestServer(t)

	student := newAPIClient(t, ts.URL)
	tutor := newAPIClient(t, ts.URL)
	company := newAPIClient(t, ts.URL)

	student.register("Aruzhan", "aruzhan@uni.edu", "student")
	tutor.register("Prof. Serik", "serik@uni.edu", "tutor")
	companyID := company.register("TechCorp", "hr@techcorp.io", "company")

	// Student submits an application.
	resp, envelope := student.do(http.MethodPost, "/api/v1/applications", submitBody(companyID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var app struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	student.data(envelope, &app)
	assert.Equal(t, "pending", app.Status)

	// Tutor sees it in the queue and approves.
	resp, envelope = tutor.do(http.MethodGet, "/api/v1/reviews/pending", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var queue []struct {
		ID string `json:"id"`
	}
	tutor.data(envelope, &queue)
	require.Len(t, queue, 1)
	assert.Equal(t, app.ID, queue[0].ID)

	resp, envelope = tutor.do(http.MethodPost, "/api/v1/applications/"+app.ID+"/review",
		map[string]string{"decision": "approved"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reviewed struct {
		Status string `json:"status"`
	}
	tutor.data(envelope, &reviewed)
	assert.Equal(t, "approved", reviewed.Status)

	// Company accepts; an internship opens.
	resp, envelope = company.do(http.MethodPost, "/api/v1/applications/"+app.ID+"/decision",
		map[string]string{"decision": "accepted"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var decision struct {
		Application struct {
			Status string `json:"status"`
		} `json:"application"`
		Internship *struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"internship"`
	}
	company.data(envelope, &decision)
	assert.Equal(t, "accepted", decision.Application.Status)
	require.NotNil(t, decision.Internship)
	assert.Equal(t, "active", decision.Internship.Status)

	// Student logs hours.
	resp, envelope = student.do(http.MethodPost, "/api/v1/internships/"+decision.Internship.ID+"/hours",
		map[string]interface{}{"date": "2026-03-02", "hours": 8, "description": "Onboarding and setup"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logged struct {
		Internship struct {
			LoggedHours int `json:"loggedHours"`
		} `json:"internship"`
		Completed bool `json:"completed"`
	}
	student.data(envelope, &logged)
	assert.Equal(t, 8, logged.Internship.LoggedHours)
	assert.False(t, logged.Completed)

	// Dashboard reflects the placement.
	resp, envelope = student.do(http.MethodGet, "/api/v1/students/me/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dashboard struct {
		Application *struct {
			Status string `json:"status"`
		} `json:"application"`
		Progress *struct {
			LoggedHours int `json:"loggedHours"`
		} `json:"internship"`
	}
	student.data(envelope, &dashboard)
	require.NotNil(t, dashboard.Application)
	assert.Equal(t, "accepted", dashboard.Application.Status)
	require.NotNil(t, dashboard.Progress)
	assert.Equal(t, 8, dashboard.Progress.LoggedHours)

	// Company board lists the intern.
	resp, envelope = company.do(http.MethodGet, "/api/v1/company/board", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var board struct {
		Interns []struct {
			InternshipID string `json:"internshipId"`
		} `json:"interns"`
	}
	company.data(envelope, &board)
	require.Len(t, board.Interns, 1)
}

func TestAPI_AuthRequired(t *testing.T) {
	ts := newTestServer(t)
	anonymous := newAPIClient(t, ts.URL)

	resp, envelope := anonymous.do(http.MethodGet, "/api/v1/students/me/dashboard", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var apiErr struct {
		Kind string `json:"kind"`
	}
	require.Contains(t, envelope, "error")
	require.NoError(t, json.Unmarshal(envelope["error"], &apiErr))
	assert.Equal(t, "authorization_error", apiErr.Kind)
}

func TestAPI_LoginAndLogout(t *testing.T) {
	ts := newTestServer(t)

	c := newAPIClient(t, ts.URL)
	c.register("Aruzhan", "aruzhan@uni.edu", "student")

	// Logout invalidates the session.
	resp, _ := c.do(http.MethodPost, "/api/v1/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = c.do(http.MethodGet, "/api/v1/students/me/dashboard", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Login with wrong password is rejected.
	resp, _ = c.do(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "aruzhan@uni.edu", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Login with the right password restores access.
	resp, _ = c.do(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "aruzhan@uni.edu", "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = c.do(http.MethodGet, "/api/v1/students/me/dashboard", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	student := newAPIClient(t, ts.URL)
	tutor := newAPIClient(t, ts.URL)
	company := newAPIClient(t, ts.URL)
	student.register("Aruzhan", "aruzhan@uni.edu", "student")
	tutor.register("Prof. Serik", "serik@uni.edu", "tutor")
	companyID := company.register("TechCorp", "hr@techcorp.io", "company")

	// Unknown company on submit -> 400 validation.
	resp, _ := student.do(http.MethodPost, "/api/v1/applications", submitBody("no-such-company"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing curriculum -> 400 validation.
	resp, _ = student.do(http.MethodPost, "/api/v1/applications",
		map[string]interface{}{"companyId": companyID, "curriculum": map[string]string{}}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Valid submit, then a duplicate open application -> 409 conflict.
	resp, envelope := student.do(http.MethodPost, "/api/v1/applications", submitBody(companyID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var app struct {
		ID string `json:"id"`
	}
	student.data(envelope, &app)

	resp, _ = student.do(http.MethodPost, "/api/v1/applications", submitBody(companyID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Student cannot review -> 403.
	resp, _ = student.do(http.MethodPost, "/api/v1/applications/"+app.ID+"/review",
		map[string]string{"decision": "approved"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Company cannot decide before tutor approval -> 409 invalid state.
	resp, _ = company.do(http.MethodPost, "/api/v1/applications/"+app.ID+"/decision",
		map[string]string{"decision": "accepted"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Review of a missing application -> 404.
	resp, _ = tutor.do(http.MethodPost, "/api/v1/applications/missing-id/review",
		map[string]string{"decision": "approved"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_IdempotentSubmitRetry(t *testing.T) {
	ts := newTestServer(t)

	student := newAPIClient(t, ts.URL)
	company := newAPIClient(t, ts.URL)
	student.register("Aruzhan", "aruzhan@uni.edu", "student")
	companyID := company.register("TechCorp", "hr@techcorp.io", "company")

	headers := map[string]string{"Idempotency-Key": "submit-once"}

	resp, envelope := student.do(http.MethodPost, "/api/v1/applications", submitBody(companyID), headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first struct {
		ID string `json:"id"`
	}
	student.data(envelope, &first)

	// Retry with the same key replays the original application.
	resp, envelope = student.do(http.MethodPost, "/api/v1/applications", submitBody(companyID), headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second struct {
		ID           string `json:"id"`
		Deduplicated bool   `json:"deduplicated"`
	}
	student.data(envelope, &second)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Deduplicated)
}

func TestAPI_HealthAndRoot(t *testing.T) {
	ts := newTestServer(t)
	c := newAPIClient(t, ts.URL)

	for _, path := range []string{"/health", "/ready", "/live", "/"} {
		resp, _ := c.do(http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, fmt.Sprintf("path %s", path))
	}
}
