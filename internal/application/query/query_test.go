package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/persistence/memory"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/service"
)

type queryFixture struct {
	users        *memory.UserRepository
	applications *memory.ApplicationRepository
	internships  *memory.InternshipRepository

	student *user.User
	tutor   *user.User
	company *user.User
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()

	f := &queryFixture{
		users:        memory.NewUserRepository(),
		applications: memory.NewApplicationRepository(),
		internships:  memory.NewInternshipRepository(),
	}
	f.student = f.register(t, "Aizere Bekova", "aizere@edu.kz", user.RoleStudent)
	f.tutor = f.register(t, "Marat Ospanov", "marat@edu.kz", user.RoleTutor)
	f.company = f.register(t, "Kolesa Group", "hr@kolesa.kz", user.RoleCompany)
	return f
}

func (f *queryFixture) register(t *testing.T, name, email string, role user.Role) *user.User {
	t.Helper()

	u, err := user.NewUser(user.NewUserParams{
		ID:       service.NewIDGenerator().GenerateID(),
		Name:     name,
		Email:    email,
		Password: "secret1",
		Role:     role,
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *queryFixture) seedApplication(t *testing.T, status application.Status) *application.Application {
	t.Helper()

	app, err := application.NewApplication(application.NewApplicationParams{
		ID:          service.NewIDGenerator().GenerateID(),
		StudentID:   f.student.ID,
		CompanyID:   f.company.ID,
		StudentName: f.student.Name,
		CompanyName: f.company.Name,
		Curriculum: application.Curriculum{
			Summary:   "Backend developer in training",
			Education: "Alem School, 2025",
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.applications.Create(context.Background(), app))

	if status == application.StatusPending {
		return app
	}
	require.NoError(t, app.Review(f.tutor.ID, f.tutor.Name, application.ReviewApproved))
	require.NoError(t, f.applications.UpdateStatus(context.Background(), app, 1))
	if status == application.StatusApproved {
		return app
	}
	require.NoError(t, app.Decide(f.company.ID, application.DecisionAccepted))
	require.NoError(t, f.applications.UpdateStatus(context.Background(), app, 2))
	return app
}

func (f *queryFixture) seedInternship(t *testing.T, applicationID string, hours int) *internship.Internship {
	t.Helper()

	ship, err := internship.NewInternship(internship.NewInternshipParams{
		ID:            service.NewIDGenerator().GenerateID(),
		ApplicationID: applicationID,
		StudentID:     f.student.ID,
		CompanyID:     f.company.ID,
	})
	require.NoError(t, err)
	for logged := 0; logged < hours; logged += 10 {
		require.NoError(t, ship.LogHours(f.student.ID, internship.LogEntry{
			Date:        time.Now().UTC(),
			Hours:       10,
			Description: "seeded work",
		}))
	}
	require.NoError(t, f.internships.Create(context.Background(), ship))
	return ship
}

func TestGetStudentDashboard(t *testing.T) {
	f := newQueryFixture(t)
	app := f.seedApplication(t, application.StatusAccepted)
	f.seedInternship(t, app.ID, 60)

	h := NewGetStudentDashboardHandler(f.applications, f.internships)
	dashboard, err := h.Handle(context.Background(), GetStudentDashboardQuery{StudentID: f.student.ID})

	require.NoError(t, err)
	require.NotNil(t, dashboard.Application)
	assert.Equal(t, string(application.StatusAccepted), dashboard.Application.Status)
	assert.Equal(t, f.company.Name, dashboard.Application.CompanyName)
	assert.Equal(t, f.tutor.Name, dashboard.Application.TutorName)

	require.NotNil(t, dashboard.Internship)
	assert.Equal(t, 60, dashboard.Internship.LoggedHours)
	assert.Equal(t, internship.CompletionThreshold, dashboard.Internship.Threshold)
	assert.InDelta(t, 33.3, dashboard.Internship.Percent, 0.1)
}

func TestGetStudentDashboard_NeverApplied(t *testing.T) {
	f := newQueryFixture(t)

	h := NewGetStudentDashboardHandler(f.applications, f.internships)
	dashboard, err := h.Handle(context.Background(), GetStudentDashboardQuery{StudentID: f.student.ID})

	require.NoError(t, err)
	assert.Nil(t, dashboard.Application)
	assert.Nil(t, dashboard.Internship)
}

func TestGetPendingReviews(t *testing.T) {
	f := newQueryFixture(t)
	f.seedApplication(t, application.StatusPending)

	h := NewGetPendingReviewsHandler(f.applications, f.users)
	queue, err := h.Handle(context.Background(), GetPendingReviewsQuery{TutorID: f.tutor.ID})

	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, f.student.Name, queue[0].StudentName)
	assert.Equal(t, string(application.StatusPending), queue[0].Status)
}

func TestGetPendingReviews_NonTutor(t *testing.T) {
	f := newQueryFixture(t)

	h := NewGetPendingReviewsHandler(f.applications, f.users)
	_, err := h.Handle(context.Background(), GetPendingReviewsQuery{TutorID: f.company.ID})

	require.Error(t, err)
	assert.True(t, shared.IsUnauthorized(err))
}

func TestGetCompanyBoard(t *testing.T) {
	f := newQueryFixture(t)
	approved := f.seedApplication(t, application.StatusApproved)
	f.seedInternship(t, service.NewIDGenerator().GenerateID(), 40)

	h := NewGetCompanyBoardHandler(f.applications, f.internships, f.users)
	board, err := h.Handle(context.Background(), GetCompanyBoardQuery{CompanyID: f.company.ID})

	require.NoError(t, err)
	require.Len(t, board.Candidates, 1)
	assert.Equal(t, approved.ID, board.Candidates[0].ID)
	require.Len(t, board.Interns, 1)
	assert.Equal(t, 40, board.Interns[0].LoggedHours)
}

func TestGetInternshipProgress(t *testing.T) {
	f := newQueryFixture(t)
	ship := f.seedInternship(t, service.NewIDGenerator().GenerateID(), 50)

	h := NewGetInternshipProgressHandler(f.internships)
	progress, err := h.Handle(context.Background(), GetInternshipProgressQuery{
		InternshipID: ship.ID,
		RequesterID:  f.student.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 50, progress.LoggedHours)
	assert.Len(t, progress.WorkLog, 5)
	assert.Equal(t, string(internship.StatusActive), progress.Status)

	// The hosting company may look too.
	_, err = h.Handle(context.Background(), GetInternshipProgressQuery{
		InternshipID: ship.ID,
		RequesterID:  f.company.ID,
	})
	assert.NoError(t, err)

	// Anyone else may not.
	_, err = h.Handle(context.Background(), GetInternshipProgressQuery{
		InternshipID: ship.ID,
		RequesterID:  f.tutor.ID,
	})
	require.Error(t, err)
	assert.True(t, shared.IsUnauthorized(err))
}
