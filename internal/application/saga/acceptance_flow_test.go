package saga

import (
	"context"
	"errors"
	"sync"
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

type flowFixture struct {
	users        *memory.UserRepository
	applications *memory.ApplicationRepository
	internships  *memory.InternshipRepository
	idempotency  *memory.IdempotencyStore

	student *user.User
	tutor   *user.User
	company *user.User
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	f := &flowFixture{
		users:        memory.NewUserRepository(),
		applications: memory.NewApplicationRepository(),
		internships:  memory.NewInternshipRepository(),
		idempotency:  memory.NewIdempotencyStore(),
	}
	f.student = f.register(t, "Aizere Bekova", "aizere@edu.kz", user.RoleStudent)
	f.tutor = f.register(t, "Marat Ospanov", "marat@edu.kz", user.RoleTutor)
	f.company = f.register(t, "Kolesa Group", "hr@kolesa.kz", user.RoleCompany)
	return f
}

func (f *flowFixture) register(t *testing.T, name, email string, role user.Role) *user.User {
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

// approvedApplication seeds an application already past tutor review.
func (f *flowFixture) approvedApplication(t *testing.T) *application.Application {
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
	require.NoError(t, app.Review(f.tutor.ID, f.tutor.Name, application.ReviewApproved))
	require.NoError(t, f.applications.UpdateStatus(context.Background(), app, 1))
	return app
}

func (f *flowFixture) flow(internships internship.Repository) *AcceptanceFlow {
	if internships == nil {
		internships = f.internships
	}
	return NewAcceptanceFlow(f.applications, internships, f.users, f.idempotency, service.NewIDGenerator(), nil, nil)
}

func TestAcceptanceFlow_Accept(t *testing.T) {
	f := newFlowFixture(t)
	app := f.approvedApplication(t)

	result, err := f.flow(nil).Execute(context.Background(), DecideApplicationInput{
		ApplicationID: app.ID,
		CompanyID:     f.company.ID,
		Decision:      application.DecisionAccepted,
	})

	require.NoError(t, err)
	assert.Equal(t, application.StatusAccepted, result.Application.Status)
	require.NotNil(t, result.Internship)
	assert.Equal(t, app.ID, result.Internship.ApplicationID)
	assert.Equal(t, f.student.ID, result.Internship.StudentID)
	assert.Equal(t, internship.StatusActive, result.Internship.Status)
	assert.Equal(t, 0, result.Internship.LoggedHours)

	// Both writes are visible.
	storedApp, err := f.applications.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusAccepted, storedApp.Status)

	storedShip, err := f.internships.FindActiveByStudent(context.Background(), f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Internship.ID, storedShip.ID)
}

func TestAcceptanceFlow_Reject(t *testing.T) {
	f := newFlowFixture(t)
	app := f.approvedApplication(t)

	result, err := f.flow(nil).Execute(context.Background(), DecideApplicationInput{
		ApplicationID: app.ID,
		CompanyID:     f.company.ID,
		Decision:      application.DecisionRejected,
	})

	require.NoError(t, err)
	assert.Equal(t, application.StatusRejected, result.Application.Status)
	assert.Nil(t, result.Internship)

	_, err = f.internships.FindActiveByStudent(context.Background(), f.student.ID)
	assert.ErrorIs(t, err, internship.ErrInternshipNotFound)
}

func TestAcceptanceFlow_PendingApplication(t *testing.T) {
	f := newFlowFixture(t)

	app, err := application.NewApplication(application.NewApplicationParams{
		ID:        service.NewIDGenerator().GenerateID(),
		StudentID: f.student.ID,
		CompanyID: f.company.ID,
		Curriculum: application.Curriculum{
			Summary:   "Backend developer in training",
			Education: "Alem School, 2025",
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.applications.Create(context.Background(), app))

	_, err = f.flow(nil).Execute(context.Background(), DecideApplicationInput{
		ApplicationID: app.ID,
		CompanyID:     f.company.ID,
		Decision:      application.DecisionAccepted,
	})

	require.Error(t, err)
	assert.True(t, shared.IsInvalidState(err))
}

func TestAcceptanceFlow_WrongCompany(t *testing.T) {
	f := newFlowFixture(t)
	app := f.approvedApplication(t)
	other := f.register(t, "InDriver", "hr@indriver.kz", user.RoleCompany)

	_, err := f.flow(nil).Execute(context.Background(), DecideApplicationInput{
		ApplicationID: app.ID,
		CompanyID:     other.ID,
		Decision:      application.DecisionAccepted,
	})

	require.Error(t, err)
	assert.True(t, shared.IsUnauthorized(err))

	stored, err := f.applications.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusApproved, stored.Status)
}

func TestAcceptanceFlow_ConcurrentDecisions(t *testing.T) {
	f := newFlowFixture(t)
	app := f.approvedApplication(t)
	flow := f.flow(nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	decisions := []application.CompanyDecision{application.DecisionAccepted, application.DecisionRejected}
	for i := range decisions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = flow.Execute(context.Background(), DecideApplicationInput{
				ApplicationID: app.ID,
				CompanyID:     f.company.ID,
				Decision:      decisions[i],
			})
		}(i)
	}
	wg.Wait()

	var failures int
	for _, e := range errs {
		if e != nil {
			failures++
			assert.True(t, shared.IsInvalidState(e))
		}
	}
	assert.Equal(t, 1, failures, "exactly one decision must win")

	// The surviving state is internally consistent: an internship exists
	// exactly when the accept won.
	stored, err := f.applications.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	_, shipErr := f.internships.FindActiveByStudent(context.Background(), f.student.ID)
	if stored.Status == application.StatusAccepted {
		assert.NoError(t, shipErr)
	} else {
		assert.Equal(t, application.StatusRejected, stored.Status)
		assert.ErrorIs(t, shipErr, internship.ErrInternshipNotFound)
	}
}

func TestAcceptanceFlow_ActiveInternshipConflictRollsBack(t *testing.T) {
	f := newFlowFixture(t)
	app := f.approvedApplication(t)

	// The student is already placed elsewhere.
	other := f.register(t, "InDriver", "hr@indriver.kz", user.RoleCompany)
	existing, err := internship.NewInternship(internship.NewInternshipParams{
		ID:            service.NewIDGenerator().GenerateID(),
		ApplicationID: service.NewIDGenerator().GenerateID(),
		StudentID:     f.student.ID,
		CompanyID:     other.ID,
	})
	require.NoError(t, err)
	require.NoError(t, f.internships.Create(context.Background(), existing))

	_, err = f.flow(nil).Execute(context.Background(), DecideApplicationInput{
		ApplicationID: app.ID,
		CompanyID:     f.company.ID,
		Decision:      application.DecisionAccepted,
	})

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))

	// The acceptance was compensated; the application is approved again and
	// can be decided later.
	stored, err := f.applications.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusApproved, stored.Status)
}

// failingInternshipRepo simulates a store outage on Create.
type failingInternshipRepo struct {
	internship.Repository
}

func (r *failingInternshipRepo) Create(context.Context, *internship.Internship) error {
	return errors.New("connection refused")
}

func TestAcceptanceFlow_CreateFailureRollsBack(t *testing.T) {
	f := newFlowFixture(t)
	app := f.approvedApplication(t)

	_, err := f.flow(&failingInternshipRepo{Repository: f.internships}).Execute(context.Background(), DecideApplicationInput{
		ApplicationID: app.ID,
		CompanyID:     f.company.ID,
		Decision:      application.DecisionAccepted,
	})

	require.Error(t, err)
	assert.True(t, shared.IsStoreUnavailable(err))

	stored, err := f.applications.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusApproved, stored.Status)
}

// stuckApplicationRepo lets the accept commit, then fails every later write
// so the compensation cannot land.
type stuckApplicationRepo struct {
	application.Repository
	mu     sync.Mutex
	writes int
}

func (r *stuckApplicationRepo) UpdateStatus(ctx context.Context, app *application.Application, expectedVersion int64) error {
	r.mu.Lock()
	r.writes++
	n := r.writes
	r.mu.Unlock()

	if n > 1 {
		return errors.New("connection refused")
	}
	return r.Repository.UpdateStatus(ctx, app, expectedVersion)
}

func TestAcceptanceFlow_RollbackFailureIsPartial(t *testing.T) {
	f := newFlowFixture(t)
	app := f.approvedApplication(t)

	// Placed elsewhere, so the internship create fails and compensation is
	// needed, but the application store refuses the revert.
	existing, err := internship.NewInternship(internship.NewInternshipParams{
		ID:            service.NewIDGenerator().GenerateID(),
		ApplicationID: service.NewIDGenerator().GenerateID(),
		StudentID:     f.student.ID,
		CompanyID:     f.company.ID,
	})
	require.NoError(t, err)
	require.NoError(t, f.internships.Create(context.Background(), existing))

	apps := &stuckApplicationRepo{Repository: f.applications}
	flow := NewAcceptanceFlow(apps, f.internships, f.users, f.idempotency, service.NewIDGenerator(), nil, nil)

	_, err = flow.Execute(context.Background(), DecideApplicationInput{
		ApplicationID: app.ID,
		CompanyID:     f.company.ID,
		Decision:      application.DecisionAccepted,
	})

	require.Error(t, err)
	assert.True(t, shared.IsPartialFailure(err))
}

func TestAcceptanceFlow_IdempotentRetry(t *testing.T) {
	f := newFlowFixture(t)
	app := f.approvedApplication(t)
	flow := f.flow(nil)

	input := DecideApplicationInput{
		ApplicationID:  app.ID,
		CompanyID:      f.company.ID,
		Decision:       application.DecisionAccepted,
		IdempotencyKey: "decide-key-1",
	}

	first, err := flow.Execute(context.Background(), input)
	require.NoError(t, err)
	require.False(t, first.Deduplicated)

	second, err := flow.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.Application.ID, second.Application.ID)
	require.NotNil(t, second.Internship)
	assert.Equal(t, first.Internship.ID, second.Internship.ID)
}

func TestAcceptanceFlow_IdempotentRetryAfterCompletion(t *testing.T) {
	f := newFlowFixture(t)
	app := f.approvedApplication(t)
	flow := f.flow(nil)

	input := DecideApplicationInput{
		ApplicationID:  app.ID,
		CompanyID:      f.company.ID,
		Decision:       application.DecisionAccepted,
		IdempotencyKey: "decide-key-2",
	}

	first, err := flow.Execute(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, first.Internship)

	// The student works the internship to completion before the retry
	// arrives, so it is no longer the active placement.
	ship, err := f.internships.GetByID(context.Background(), first.Internship.ID)
	require.NoError(t, err)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for ship.Status == internship.StatusActive {
		require.NoError(t, ship.LogHours(f.student.ID, internship.LogEntry{
			Date:        day,
			Hours:       24,
			Description: "full onsite day",
		}))
		day = day.AddDate(0, 0, 1)
	}
	require.NoError(t, f.internships.Update(context.Background(), ship, ship.Version))

	second, err := flow.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	require.NotNil(t, second.Internship)
	assert.Equal(t, first.Internship.ID, second.Internship.ID)
	assert.Equal(t, internship.StatusCompleted, second.Internship.Status)
}
