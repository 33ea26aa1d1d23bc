package query

import (
	"context"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// PENDING REVIEWS QUERY
// The tutor's work queue: every pending application, oldest first, so the
// longest-waiting student is reviewed first.
// ══════════════════════════════════════════════════════════════════════════════

// GetPendingReviewsQuery contains the parameters for the tutor queue.
type GetPendingReviewsQuery struct {
	// TutorID - the requesting tutor. Any tutor sees the whole queue.
	TutorID string
}

// Validate validates the query.
func (q GetPendingReviewsQuery) Validate() error {
	if q.TutorID == "" {
		return shared.NewDomainError("query", "PendingReviews", shared.ErrInvalidInput, "tutor id is required")
	}
	return nil
}

// GetPendingReviewsHandler handles the pending reviews query.
type GetPendingReviewsHandler struct {
	applications application.Repository
	users        user.Repository
}

// NewGetPendingReviewsHandler creates a new GetPendingReviewsHandler.
func NewGetPendingReviewsHandler(applications application.Repository, users user.Repository) *GetPendingReviewsHandler {
	return &GetPendingReviewsHandler{applications: applications, users: users}
}

// Handle executes the query.
func (h *GetPendingReviewsHandler) Handle(ctx context.Context, q GetPendingReviewsQuery) ([]*ApplicationDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	tutor, err := h.users.GetByID(ctx, q.TutorID)
	if err != nil {
		return nil, shared.WrapError("query", "PendingReviews", shared.ErrNotFound, "tutor not found", err)
	}
	if !tutor.IsTutor() {
		return nil, shared.NewDomainError("query", "PendingReviews", shared.ErrForbidden, "only tutors may list the review queue")
	}

	apps, err := h.applications.ListByStatus(ctx, application.StatusPending)
	if err != nil {
		return nil, shared.WrapError("query", "PendingReviews", shared.ErrStoreUnavailable, "store operation failed", err)
	}

	dtos := make([]*ApplicationDTO, 0, len(apps))
	for _, app := range apps {
		dtos = append(dtos, toApplicationDTO(app))
	}
	return dtos, nil
}
