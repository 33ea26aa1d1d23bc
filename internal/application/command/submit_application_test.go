package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/persistence/memory"
	"github.com/pasantia-hub/placement-hub/internal/infrastructure/service"
)

// testFixture wires the command handlers against in-memory stores.
type testFixture struct {
	users        *memory.UserRepository
	applications *memory.ApplicationRepository
	internships  *memory.InternshipRepository
	idempotency  *memory.IdempotencyStore

	student *user.User
	tutor   *user.User
	company *user.User
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		users:        memory.NewUserRepository(),
		applications: memory.NewApplicationRepository(),
		internships:  memory.NewInternshipRepository(),
		idempotency:  memory.NewIdempotencyStore(),
	}
	f.student = f.registerUser(t, "Aizere Bekova", "aizere@edu.kz", user.RoleStudent)
	f.tutor = f.registerUser(t, "Marat Ospanov", "marat@edu.kz", user.RoleTutor)
	f.company = f.registerUser(t, "Kolesa Group", "hr@kolesa.kz", user.RoleCompany)
	return f
}

func (f *testFixture) registerUser(t *testing.T, name, email string, role user.Role) *user.User {
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

func (f *testFixture) submitHandler() *SubmitApplicationHandler {
	return NewSubmitApplicationHandler(f.applications, f.users, f.idempotency, service.NewIDGenerator(), nil)
}

func validCurriculum() application.Curriculum {
	return application.Curriculum{
		Summary:    "Backend developer in training, two bootcamp projects shipped",
		Education:  "Alem School, 2025",
		Experience: "Internship-ready, pet projects in Go",
		Skills:     "Go, PostgreSQL, Docker",
	}
}

func TestSubmitApplication_Success(t *testing.T) {
	f := newTestFixture(t)

	result, err := f.submitHandler().Handle(context.Background(), SubmitApplicationCommand{
		StudentID:  f.student.ID,
		CompanyID:  f.company.ID,
		Curriculum: validCurriculum(),
	})

	require.NoError(t, err)
	require.NotNil(t, result.Application)
	assert.False(t, result.Deduplicated)
	assert.Equal(t, application.StatusPending, result.Application.Status)
	assert.Equal(t, f.student.Name, result.Application.StudentName)
	assert.Equal(t, f.company.Name, result.Application.CompanyName)
	assert.False(t, result.Application.SubmittedAt.IsZero())

	stored, err := f.applications.GetByID(context.Background(), result.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusPending, stored.Status)
}

func TestSubmitApplication_IncompleteCurriculum(t *testing.T) {
	f := newTestFixture(t)

	cur := validCurriculum()
	cur.Summary = "   "
	_, err := f.submitHandler().Handle(context.Background(), SubmitApplicationCommand{
		StudentID:  f.student.ID,
		CompanyID:  f.company.ID,
		Curriculum: cur,
	})

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, "validation_error", shared.Kind(err))
}

func TestSubmitApplication_UnknownCompany(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.submitHandler().Handle(context.Background(), SubmitApplicationCommand{
		StudentID:  f.student.ID,
		CompanyID:  "11111111-2222-3333-4444-555555555555",
		Curriculum: validCurriculum(),
	})

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestSubmitApplication_TargetIsNotACompany(t *testing.T) {
	f := newTestFixture(t)

	// Applying "to" the tutor's account must fail the same way as a missing
	// company.
	_, err := f.submitHandler().Handle(context.Background(), SubmitApplicationCommand{
		StudentID:  f.student.ID,
		CompanyID:  f.tutor.ID,
		Curriculum: validCurriculum(),
	})

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestSubmitApplication_NonStudentActor(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.submitHandler().Handle(context.Background(), SubmitApplicationCommand{
		StudentID:  f.tutor.ID,
		CompanyID:  f.company.ID,
		Curriculum: validCurriculum(),
	})

	require.Error(t, err)
	assert.True(t, shared.IsUnauthorized(err))
}

func TestSubmitApplication_DuplicateOpenApplication(t *testing.T) {
	f := newTestFixture(t)
	h := f.submitHandler()

	_, err := h.Handle(context.Background(), SubmitApplicationCommand{
		StudentID:  f.student.ID,
		CompanyID:  f.company.ID,
		Curriculum: validCurriculum(),
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), SubmitApplicationCommand{
		StudentID:  f.student.ID,
		CompanyID:  f.company.ID,
		Curriculum: validCurriculum(),
	})

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

func TestSubmitApplication_AllowedAfterRejection(t *testing.T) {
	f := newTestFixture(t)
	h := f.submitHandler()

	first, err := h.Handle(context.Background(), SubmitApplicationCommand{
		StudentID:  f.student.ID,
		CompanyID:  f.company.ID,
		Curriculum: validCurriculum(),
	})
	require.NoError(t, err)

	// A rejected application is terminal, so a fresh submission is allowed.
	app := first.Application
	require.NoError(t, app.Review(f.tutor.ID, f.tutor.Name, application.ReviewRejected))
	require.NoError(t, f.applications.UpdateStatus(context.Background(), app, 1))

	second, err := h.Handle(context.Background(), SubmitApplicationCommand{
		StudentID:  f.student.ID,
		CompanyID:  f.company.ID,
		Curriculum: validCurriculum(),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Application.ID, second.Application.ID)
}

func TestSubmitApplication_IdempotentRetry(t *testing.T) {
	f := newTestFixture(t)
	h := f.submitHandler()

	cmd := SubmitApplicationCommand{
		StudentID:      f.student.ID,
		CompanyID:      f.company.ID,
		Curriculum:     validCurriculum(),
		IdempotencyKey: "submit-key-1",
	}

	first, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.False(t, first.Deduplicated)

	second, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.Application.ID, second.Application.ID)
}

func TestSubmitApplication_KeyReleasedOnFailure(t *testing.T) {
	f := newTestFixture(t)
	h := f.submitHandler()

	bad := SubmitApplicationCommand{
		StudentID:      f.student.ID,
		CompanyID:      f.tutor.ID,
		Curriculum:     validCurriculum(),
		IdempotencyKey: "submit-key-2",
	}
	_, err := h.Handle(context.Background(), bad)
	require.Error(t, err)

	// The failed attempt must not burn the key.
	good := bad
	good.CompanyID = f.company.ID
	result, err := h.Handle(context.Background(), good)
	require.NoError(t, err)
	assert.False(t, result.Deduplicated)
}

// completeFailingStore accepts reservations but refuses to record the
// completion, as a Redis outage after the application write would.
type completeFailingStore struct {
	IdempotencyStore
}

func (s *completeFailingStore) Complete(context.Context, string, string) error {
	return errors.New("connection refused")
}

func TestSubmitApplication_CompleteFailureDoesNotFailSubmission(t *testing.T) {
	f := newTestFixture(t)
	h := NewSubmitApplicationHandler(f.applications, f.users,
		&completeFailingStore{IdempotencyStore: f.idempotency}, service.NewIDGenerator(), nil)

	result, err := h.Handle(context.Background(), SubmitApplicationCommand{
		StudentID:      f.student.ID,
		CompanyID:      f.company.ID,
		Curriculum:     validCurriculum(),
		IdempotencyKey: "submit-key-3",
	})

	require.NoError(t, err)
	require.NotNil(t, result.Application)

	// The application landed despite the completion failure.
	stored, err := f.applications.GetByID(context.Background(), result.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusPending, stored.Status)
}
