// Package memory provides mutex-guarded in-process implementations of the
// domain repositories and the idempotency store. They honor the same
// compare-and-swap and uniqueness contracts as the postgres repositories and
// back the command and saga tests, as well as single-node deployments that
// run without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository is an in-memory user.Repository.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*user.User
	byEmail map[string]string
}

// NewUserRepository creates an empty in-memory user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*user.User),
		byEmail: make(map[string]string),
	}
}

// Create creates a new user. Email uniqueness is case-insensitive.
func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, taken := r.byEmail[email]; taken {
		return user.ErrEmailTaken
	}

	clone := *u
	r.byID[u.ID] = &clone
	r.byEmail[email] = u.ID
	return nil
}

// GetByID returns a user by internal ID.
func (r *UserRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

// ListByRole returns all users with the given role, ordered by name.
func (r *UserRepository) ListByRole(_ context.Context, role user.Role) ([]*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*user.User, 0)
	for _, u := range r.byID {
		if u.Role == role {
			clone := *u
			users = append(users, &clone)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationRepository is an in-memory application.Repository.
type ApplicationRepository struct {
	mu   sync.RWMutex
	byID map[string]*application.Application
}

// NewApplicationRepository creates an empty in-memory application repository.
func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{byID: make(map[string]*application.Application)}
}

// Create persists a new application.
func (r *ApplicationRepository) Create(_ context.Context, app *application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[app.ID] = app.Clone()
	return nil
}

// GetByID returns an application by ID.
func (r *ApplicationRepository) GetByID(_ context.Context, id string) (*application.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.byID[id]
	if !ok {
		return nil, application.ErrApplicationNotFound
	}
	return app.Clone(), nil
}

// UpdateStatus persists a state transition with a version check. The check
// and the write happen under one lock, giving the same atomicity as the
// postgres conditional UPDATE.
func (r *ApplicationRepository) UpdateStatus(_ context.Context, app *application.Application, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[app.ID]
	if !ok {
		return application.ErrApplicationNotFound
	}
	if stored.Version != expectedVersion {
		return application.ErrStaleApplication
	}

	app.Version = expectedVersion + 1
	r.byID[app.ID] = app.Clone()
	return nil
}

// FindOpenByStudentAndCompany returns the open application for a
// student-company pair, if any.
func (r *ApplicationRepository) FindOpenByStudentAndCompany(_ context.Context, studentID, companyID string) (*application.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, app := range r.byID {
		if app.StudentID == studentID && app.CompanyID == companyID && app.Status.IsOpen() {
			return app.Clone(), nil
		}
	}
	return nil, application.ErrApplicationNotFound
}

// ListByStatus returns applications with the given status, oldest first.
func (r *ApplicationRepository) ListByStatus(_ context.Context, status application.Status) ([]*application.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apps := make([]*application.Application, 0)
	for _, app := range r.byID {
		if app.Status == status {
			apps = append(apps, app.Clone())
		}
	}
	sortBySubmittedAt(apps)
	return apps, nil
}

// ListByCompanyAndStatus returns a company's applications with the given
// status, oldest first.
func (r *ApplicationRepository) ListByCompanyAndStatus(_ context.Context, companyID string, status application.Status) ([]*application.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apps := make([]*application.Application, 0)
	for _, app := range r.byID {
		if app.CompanyID == companyID && app.Status == status {
			apps = append(apps, app.Clone())
		}
	}
	sortBySubmittedAt(apps)
	return apps, nil
}

// LatestByStudent returns the student's most recently submitted application.
func (r *ApplicationRepository) LatestByStudent(_ context.Context, studentID string) (*application.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *application.Application
	for _, app := range r.byID {
		if app.StudentID != studentID {
			continue
		}
		if latest == nil || app.SubmittedAt.After(latest.SubmittedAt) {
			latest = app
		}
	}
	if latest == nil {
		return nil, application.ErrApplicationNotFound
	}
	return latest.Clone(), nil
}

func sortBySubmittedAt(apps []*application.Application) {
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].SubmittedAt.Before(apps[j].SubmittedAt)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNSHIP REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// InternshipRepository is an in-memory internship.Repository.
type InternshipRepository struct {
	mu   sync.RWMutex
	byID map[string]*internship.Internship
}

// NewInternshipRepository creates an empty in-memory internship repository.
func NewInternshipRepository() *InternshipRepository {
	return &InternshipRepository{byID: make(map[string]*internship.Internship)}
}

// Create persists a newly opened internship, enforcing at most one active
// internship per student.
func (r *InternshipRepository) Create(_ context.Context, i *internship.Internship) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.StudentID == i.StudentID && existing.Status == internship.StatusActive {
			return internship.ErrActiveInternshipExists
		}
	}

	r.byID[i.ID] = i.Clone()
	return nil
}

// GetByID returns an internship by ID.
func (r *InternshipRepository) GetByID(_ context.Context, id string) (*internship.Internship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return nil, internship.ErrInternshipNotFound
	}
	return i.Clone(), nil
}

// Update persists a mutation with a version check.
func (r *InternshipRepository) Update(_ context.Context, i *internship.Internship, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[i.ID]
	if !ok {
		return internship.ErrInternshipNotFound
	}
	if stored.Version != expectedVersion {
		return internship.ErrStaleInternship
	}

	i.Version = expectedVersion + 1
	r.byID[i.ID] = i.Clone()
	return nil
}

// Delete removes an internship. Compensation path only.
func (r *InternshipRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return internship.ErrInternshipNotFound
	}
	delete(r.byID, id)
	return nil
}

// FindActiveByStudent returns the student's active internship, if any.
func (r *InternshipRepository) FindActiveByStudent(_ context.Context, studentID string) (*internship.Internship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, i := range r.byID {
		if i.StudentID == studentID && i.Status == internship.StatusActive {
			return i.Clone(), nil
		}
	}
	return nil, internship.ErrInternshipNotFound
}

// FindByApplicationID returns the internship opened for an application.
func (r *InternshipRepository) FindByApplicationID(_ context.Context, applicationID string) (*internship.Internship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, i := range r.byID {
		if i.ApplicationID == applicationID {
			return i.Clone(), nil
		}
	}
	return nil, internship.ErrInternshipNotFound
}

// ListByCompany returns a company's internships, newest first.
func (r *InternshipRepository) ListByCompany(_ context.Context, companyID string) ([]*internship.Internship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ships := make([]*internship.Internship, 0)
	for _, i := range r.byID {
		if i.CompanyID == companyID {
			ships = append(ships, i.Clone())
		}
	}
	sort.Slice(ships, func(a, b int) bool {
		return ships[a].StartDate.After(ships[b].StartDate)
	})
	return ships, nil
}
