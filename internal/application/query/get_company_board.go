package query

import (
	"context"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPANY BOARD QUERY
// The company's view: tutor-approved candidates awaiting a verdict, plus the
// internships running under the company's roof.
// ══════════════════════════════════════════════════════════════════════════════

// GetCompanyBoardQuery contains the parameters for the company view.
type GetCompanyBoardQuery struct {
	// CompanyID - the requesting company. A company sees only its own board.
	CompanyID string
}

// Validate validates the query.
func (q GetCompanyBoardQuery) Validate() error {
	if q.CompanyID == "" {
		return shared.NewDomainError("query", "CompanyBoard", shared.ErrInvalidInput, "company id is required")
	}
	return nil
}

// InternDTO is the company-side projection of one placement.
type InternDTO struct {
	InternshipID string  `json:"internshipId"`
	StudentID    string  `json:"studentId"`
	Status       string  `json:"status"`
	LoggedHours  int     `json:"loggedHours"`
	Percent      float64 `json:"percent"`
}

// CompanyBoardDTO aggregates the company's placement state.
type CompanyBoardDTO struct {
	// Candidates are approved applications awaiting the company verdict,
	// oldest first.
	Candidates []*ApplicationDTO `json:"candidates"`

	// Interns are the company's current and past placements, newest first.
	Interns []*InternDTO `json:"interns"`
}

// GetCompanyBoardHandler handles the company board query.
type GetCompanyBoardHandler struct {
	applications application.Repository
	internships  internship.Repository
	users        user.Repository
}

// NewGetCompanyBoardHandler creates a new GetCompanyBoardHandler.
func NewGetCompanyBoardHandler(
	applications application.Repository,
	internships internship.Repository,
	users user.Repository,
) *GetCompanyBoardHandler {
	return &GetCompanyBoardHandler{applications: applications, internships: internships, users: users}
}

// Handle executes the query.
func (h *GetCompanyBoardHandler) Handle(ctx context.Context, q GetCompanyBoardQuery) (*CompanyBoardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	company, err := h.users.GetByID(ctx, q.CompanyID)
	if err != nil {
		return nil, shared.WrapError("query", "CompanyBoard", shared.ErrNotFound, "company not found", err)
	}
	if !company.IsCompany() {
		return nil, shared.NewDomainError("query", "CompanyBoard", shared.ErrForbidden, "only companies may list their board")
	}

	apps, err := h.applications.ListByCompanyAndStatus(ctx, q.CompanyID, application.StatusApproved)
	if err != nil {
		return nil, shared.WrapError("query", "CompanyBoard", shared.ErrStoreUnavailable, "store operation failed", err)
	}

	ships, err := h.internships.ListByCompany(ctx, q.CompanyID)
	if err != nil {
		return nil, shared.WrapError("query", "CompanyBoard", shared.ErrStoreUnavailable, "store operation failed", err)
	}

	board := &CompanyBoardDTO{
		Candidates: make([]*ApplicationDTO, 0, len(apps)),
		Interns:    make([]*InternDTO, 0, len(ships)),
	}
	for _, app := range apps {
		board.Candidates = append(board.Candidates, toApplicationDTO(app))
	}
	for _, s := range ships {
		p := s.Progress()
		board.Interns = append(board.Interns, &InternDTO{
			InternshipID: s.ID,
			StudentID:    s.StudentID,
			Status:       string(s.Status),
			LoggedHours:  p.LoggedHours,
			Percent:      p.Percent,
		})
	}
	return board, nil
}
