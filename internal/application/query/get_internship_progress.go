package query

import (
	"context"
	"errors"
	"time"

	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERNSHIP PROGRESS QUERY
// Full work log plus the derived completion figures for one internship.
// Visible to the enrolled student and the hosting company only.
// ══════════════════════════════════════════════════════════════════════════════

// GetInternshipProgressQuery contains the parameters for the progress view.
type GetInternshipProgressQuery struct {
	// InternshipID - the placement being inspected.
	InternshipID string

	// RequesterID - the acting user; must be the enrolled student or the
	// hosting company.
	RequesterID string
}

// Validate validates the query.
func (q GetInternshipProgressQuery) Validate() error {
	if q.InternshipID == "" {
		return shared.NewDomainError("query", "InternshipProgress", shared.ErrInvalidInput, "internship id is required")
	}
	if q.RequesterID == "" {
		return shared.NewDomainError("query", "InternshipProgress", shared.ErrInvalidInput, "requester id is required")
	}
	return nil
}

// WorkLogEntryDTO is one recorded work day.
type WorkLogEntryDTO struct {
	Date        time.Time `json:"date"`
	Hours       int       `json:"hours"`
	Description string    `json:"description"`
}

// InternshipProgressDTO is the detailed progress projection.
type InternshipProgressDTO struct {
	InternshipID  string            `json:"internshipId"`
	ApplicationID string            `json:"applicationId"`
	StudentID     string            `json:"studentId"`
	CompanyID     string            `json:"companyId"`
	Status        string            `json:"status"`
	StartDate     time.Time         `json:"startDate"`
	LoggedHours   int               `json:"loggedHours"`
	Threshold     int               `json:"threshold"`
	Percent       float64           `json:"percent"`
	WorkLog       []WorkLogEntryDTO `json:"workLog"`
}

// GetInternshipProgressHandler handles the progress query.
type GetInternshipProgressHandler struct {
	internships internship.Repository
}

// NewGetInternshipProgressHandler creates a new GetInternshipProgressHandler.
func NewGetInternshipProgressHandler(internships internship.Repository) *GetInternshipProgressHandler {
	return &GetInternshipProgressHandler{internships: internships}
}

// Handle executes the query.
func (h *GetInternshipProgressHandler) Handle(ctx context.Context, q GetInternshipProgressQuery) (*InternshipProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ship, err := h.internships.GetByID(ctx, q.InternshipID)
	if err != nil {
		if errors.Is(err, internship.ErrInternshipNotFound) {
			return nil, shared.WrapError("query", "InternshipProgress", shared.ErrNotFound, "internship not found", err)
		}
		return nil, shared.WrapError("query", "InternshipProgress", shared.ErrStoreUnavailable, "store operation failed", err)
	}

	if q.RequesterID != ship.StudentID && q.RequesterID != ship.CompanyID {
		return nil, shared.NewDomainError("query", "InternshipProgress", shared.ErrForbidden, "progress is visible to the student and the company only")
	}

	p := ship.Progress()
	dto := &InternshipProgressDTO{
		InternshipID:  ship.ID,
		ApplicationID: ship.ApplicationID,
		StudentID:     ship.StudentID,
		CompanyID:     ship.CompanyID,
		Status:        string(ship.Status),
		StartDate:     ship.StartDate,
		LoggedHours:   p.LoggedHours,
		Threshold:     p.Threshold,
		Percent:       p.Percent,
		WorkLog:       make([]WorkLogEntryDTO, 0, len(ship.WorkLog)),
	}
	for _, e := range ship.WorkLog {
		dto.WorkLog = append(dto.WorkLog, WorkLogEntryDTO{
			Date:        e.Date,
			Hours:       e.Hours,
			Description: e.Description,
		})
	}
	return dto, nil
}
