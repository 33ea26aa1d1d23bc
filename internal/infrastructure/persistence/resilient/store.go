// Package resilient wraps repositories with retry and circuit breaker
// protection. Transient store failures are retried once and, if they
// persist, surface as shared.ErrStoreUnavailable so the interface layer
// can answer with a retryable status instead of an opaque 500.
package resilient

import (
	"context"
	"errors"
	"time"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
	"github.com/pasantia-hub/placement-hub/pkg/circuitbreaker"
	"github.com/pasantia-hub/placement-hub/pkg/logger"
	"github.com/pasantia-hub/placement-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// GUARD
// ══════════════════════════════════════════════════════════════════════════════

// Guard bundles the retry and circuit breaker policy shared by all
// repository wrappers that sit in front of one backing store.
type Guard struct {
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewGuard creates a guard named after the store it protects
// ("postgres", "redis"). Domain outcomes such as not-found or a lost
// version race never trip the breaker; only transport-level failures do.
func NewGuard(name string, log *logger.Logger) *Guard {
	if log == nil {
		log = logger.Default()
	}

	g := &Guard{
		retrier: retry.StoreRetrier(),
		log:     log,
	}
	g.breaker = circuitbreaker.New(name,
		circuitbreaker.WithFailureThreshold(3),
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithTimeout(10*time.Second),
		circuitbreaker.WithMaxHalfOpenRequests(1),
		circuitbreaker.WithIsFailure(isTransient),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("store circuit state changed",
				logger.Component(name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
	)
	return g
}

// domainOutcomes are errors that represent a decided business result.
// They must pass through untouched: retrying them cannot change the
// answer, and counting them as store failures would trip the breaker
// on perfectly healthy traffic.
var domainOutcomes = []error{
	shared.ErrNotFound,
	shared.ErrAlreadyExists,
	shared.ErrValidation,
	shared.ErrInvalidState,
	shared.ErrStateTransition,
	shared.ErrConflict,
	shared.ErrUnauthorized,
	shared.ErrForbidden,
	user.ErrUserNotFound,
	user.ErrEmailTaken,
	user.ErrWrongCredentials,
	application.ErrApplicationNotFound,
	application.ErrOpenApplicationExists,
	application.ErrStaleApplication,
	internship.ErrInternshipNotFound,
	internship.ErrActiveInternshipExists,
	internship.ErrStaleInternship,
	context.Canceled,
	context.DeadlineExceeded,
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	for _, outcome := range domainOutcomes {
		if errors.Is(err, outcome) {
			return false
		}
	}
	return true
}

// run executes fn under the breaker with a single internal retry for
// transient errors. Domain outcomes and context errors are returned
// unchanged; anything else is wrapped as shared.ErrStoreUnavailable.
func (g *Guard) run(ctx context.Context, domain, op string, fn func(context.Context) error) error {
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.retrier.Do(ctx, func(ctx context.Context) error {
			opErr := fn(ctx)
			if opErr == nil {
				return nil
			}
			if !isTransient(opErr) {
				return retry.Permanent(opErr)
			}
			return retry.Retryable(opErr)
		})
	})
	if err == nil {
		return nil
	}
	if !isTransient(err) {
		return err
	}

	g.log.Error("store operation failed",
		logger.Component(g.breaker.Name()),
		logger.Operation(domain+"."+op),
		logger.Err(err),
	)
	return shared.WrapError(domain, op, shared.ErrStoreUnavailable, "store temporarily unavailable", err)
}

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository decorates a user.Repository with the guard policy.
type UserRepository struct {
	inner user.Repository
	guard *Guard
}

// NewUserRepository wraps inner with retry and circuit breaker protection.
func NewUserRepository(inner user.Repository, guard *Guard) *UserRepository {
	return &UserRepository{inner: inner, guard: guard}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.guard.run(ctx, "user", "Create", func(ctx context.Context) error {
		return r.inner.Create(ctx, u)
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var u *user.User
	err := r.guard.run(ctx, "user", "GetByID", func(ctx context.Context) error {
		var opErr error
		u, opErr = r.inner.GetByID(ctx, id)
		return opErr
	})
	return u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u *user.User
	err := r.guard.run(ctx, "user", "GetByEmail", func(ctx context.Context) error {
		var opErr error
		u, opErr = r.inner.GetByEmail(ctx, email)
		return opErr
	})
	return u, err
}

func (r *UserRepository) ListByRole(ctx context.Context, role user.Role) ([]*user.User, error) {
	var users []*user.User
	err := r.guard.run(ctx, "user", "ListByRole", func(ctx context.Context) error {
		var opErr error
		users, opErr = r.inner.ListByRole(ctx, role)
		return opErr
	})
	return users, err
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationRepository decorates an application.Repository with the guard policy.
type ApplicationRepository struct {
	inner application.Repository
	guard *Guard
}

// NewApplicationRepository wraps inner with retry and circuit breaker protection.
func NewApplicationRepository(inner application.Repository, guard *Guard) *ApplicationRepository {
	return &ApplicationRepository{inner: inner, guard: guard}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *application.Application) error {
	return r.guard.run(ctx, "application", "Create", func(ctx context.Context) error {
		return r.inner.Create(ctx, app)
	})
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	var app *application.Application
	err := r.guard.run(ctx, "application", "GetByID", func(ctx context.Context) error {
		var opErr error
		app, opErr = r.inner.GetByID(ctx, id)
		return opErr
	})
	return app, err
}

// UpdateStatus is NOT retried on a lost version race: ErrStaleApplication
// is a domain outcome and the caller decides whether to re-read.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, app *application.Application, expectedVersion int64) error {
	return r.guard.run(ctx, "application", "UpdateStatus", func(ctx context.Context) error {
		return r.inner.UpdateStatus(ctx, app, expectedVersion)
	})
}

func (r *ApplicationRepository) FindOpenByStudentAndCompany(ctx context.Context, studentID, companyID string) (*application.Application, error) {
	var app *application.Application
	err := r.guard.run(ctx, "application", "FindOpenByStudentAndCompany", func(ctx context.Context) error {
		var opErr error
		app, opErr = r.inner.FindOpenByStudentAndCompany(ctx, studentID, companyID)
		return opErr
	})
	return app, err
}

func (r *ApplicationRepository) ListByStatus(ctx context.Context, status application.Status) ([]*application.Application, error) {
	var apps []*application.Application
	err := r.guard.run(ctx, "application", "ListByStatus", func(ctx context.Context) error {
		var opErr error
		apps, opErr = r.inner.ListByStatus(ctx, status)
		return opErr
	})
	return apps, err
}

func (r *ApplicationRepository) ListByCompanyAndStatus(ctx context.Context, companyID string, status application.Status) ([]*application.Application, error) {
	var apps []*application.Application
	err := r.guard.run(ctx, "application", "ListByCompanyAndStatus", func(ctx context.Context) error {
		var opErr error
		apps, opErr = r.inner.ListByCompanyAndStatus(ctx, companyID, status)
		return opErr
	})
	return apps, err
}

func (r *ApplicationRepository) LatestByStudent(ctx context.Context, studentID string) (*application.Application, error) {
	var app *application.Application
	err := r.guard.run(ctx, "application", "LatestByStudent", func(ctx context.Context) error {
		var opErr error
		app, opErr = r.inner.LatestByStudent(ctx, studentID)
		return opErr
	})
	return app, err
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNSHIP REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// InternshipRepository decorates an internship.Repository with the guard policy.
type InternshipRepository struct {
	inner internship.Repository
	guard *Guard
}

// NewInternshipRepository wraps inner with retry and circuit breaker protection.
func NewInternshipRepository(inner internship.Repository, guard *Guard) *InternshipRepository {
	return &InternshipRepository{inner: inner, guard: guard}
}

func (r *InternshipRepository) Create(ctx context.Context, i *internship.Internship) error {
	return r.guard.run(ctx, "internship", "Create", func(ctx context.Context) error {
		return r.inner.Create(ctx, i)
	})
}

func (r *InternshipRepository) GetByID(ctx context.Context, id string) (*internship.Internship, error) {
	var i *internship.Internship
	err := r.guard.run(ctx, "internship", "GetByID", func(ctx context.Context) error {
		var opErr error
		i, opErr = r.inner.GetByID(ctx, id)
		return opErr
	})
	return i, err
}

func (r *InternshipRepository) Update(ctx context.Context, i *internship.Internship, expectedVersion int64) error {
	return r.guard.run(ctx, "internship", "Update", func(ctx context.Context) error {
		return r.inner.Update(ctx, i, expectedVersion)
	})
}

func (r *InternshipRepository) Delete(ctx context.Context, id string) error {
	return r.guard.run(ctx, "internship", "Delete", func(ctx context.Context) error {
		return r.inner.Delete(ctx, id)
	})
}

func (r *InternshipRepository) FindActiveByStudent(ctx context.Context, studentID string) (*internship.Internship, error) {
	var i *internship.Internship
	err := r.guard.run(ctx, "internship", "FindActiveByStudent", func(ctx context.Context) error {
		var opErr error
		i, opErr = r.inner.FindActiveByStudent(ctx, studentID)
		return opErr
	})
	return i, err
}

func (r *InternshipRepository) FindByApplicationID(ctx context.Context, applicationID string) (*internship.Internship, error) {
	var i *internship.Internship
	err := r.guard.run(ctx, "internship", "FindByApplicationID", func(ctx context.Context) error {
		var opErr error
		i, opErr = r.inner.FindByApplicationID(ctx, applicationID)
		return opErr
	})
	return i, err
}

func (r *InternshipRepository) ListByCompany(ctx context.Context, companyID string) ([]*internship.Internship, error) {
	var list []*internship.Internship
	err := r.guard.run(ctx, "internship", "ListByCompany", func(ctx context.Context) error {
		var opErr error
		list, opErr = r.inner.ListByCompany(ctx, companyID)
		return opErr
	})
	return list, err
}

// ══════════════════════════════════════════════════════════════════════════════
// IDEMPOTENCY STORE
// ══════════════════════════════════════════════════════════════════════════════

// IdempotencyStore is the reservation contract the command handlers and
// the acceptance flow expect.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (existingID string, ok bool, err error)
	Complete(ctx context.Context, key, entityID string) error
	Release(ctx context.Context, key string) error
}

// GuardedIdempotencyStore decorates an IdempotencyStore with the guard policy.
type GuardedIdempotencyStore struct {
	inner IdempotencyStore
	guard *Guard
}

// NewIdempotencyStore wraps inner with retry and circuit breaker protection.
func NewIdempotencyStore(inner IdempotencyStore, guard *Guard) *GuardedIdempotencyStore {
	return &GuardedIdempotencyStore{inner: inner, guard: guard}
}

func (s *GuardedIdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	var (
		existingID string
		ok         bool
	)
	err := s.guard.run(ctx, "idempotency", "Reserve", func(ctx context.Context) error {
		var opErr error
		existingID, ok, opErr = s.inner.Reserve(ctx, key)
		return opErr
	})
	return existingID, ok, err
}

func (s *GuardedIdempotencyStore) Complete(ctx context.Context, key, entityID string) error {
	return s.guard.run(ctx, "idempotency", "Complete", func(ctx context.Context) error {
		return s.inner.Complete(ctx, key, entityID)
	})
}

func (s *GuardedIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.guard.run(ctx, "idempotency", "Release", func(ctx context.Context) error {
		return s.inner.Release(ctx, key)
	})
}
