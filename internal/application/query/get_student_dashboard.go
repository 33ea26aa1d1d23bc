// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"time"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT DASHBOARD QUERY
// The student's view of their own placement: the latest application's state
// and, once accepted, the internship progress.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentDashboardQuery contains the parameters for the student view.
type GetStudentDashboardQuery struct {
	// StudentID - the student whose dashboard is requested.
	StudentID string
}

// Validate validates the query.
func (q GetStudentDashboardQuery) Validate() error {
	if q.StudentID == "" {
		return shared.NewDomainError("query", "StudentDashboard", shared.ErrInvalidInput, "student id is required")
	}
	return nil
}

// ApplicationDTO is the read-side projection of an application.
type ApplicationDTO struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	CompanyID   string    `json:"companyId"`
	CompanyName string    `json:"companyName"`
	Status      string    `json:"status"`
	TutorName   string    `json:"tutorName,omitempty"`
	Summary     string    `json:"summary"`
	Education   string    `json:"education"`
	Experience  string    `json:"experience,omitempty"`
	Skills      string    `json:"skills,omitempty"`
	About       string    `json:"about,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ProgressDTO is the read-side projection of internship progress.
type ProgressDTO struct {
	InternshipID string  `json:"internshipId"`
	Status       string  `json:"status"`
	LoggedHours  int     `json:"loggedHours"`
	Threshold    int     `json:"threshold"`
	Percent      float64 `json:"percent"`
	Entries      int     `json:"entries"`
}

// StudentDashboardDTO aggregates the student's placement state.
type StudentDashboardDTO struct {
	// Application is the latest application, nil when the student never
	// applied.
	Application *ApplicationDTO `json:"application"`

	// Internship is the current placement progress, nil until an
	// application is accepted.
	Internship *ProgressDTO `json:"internship"`
}

// GetStudentDashboardHandler handles the student dashboard query.
type GetStudentDashboardHandler struct {
	applications application.Repository
	internships  internship.Repository
}

// NewGetStudentDashboardHandler creates a new GetStudentDashboardHandler.
func NewGetStudentDashboardHandler(applications application.Repository, internships internship.Repository) *GetStudentDashboardHandler {
	return &GetStudentDashboardHandler{applications: applications, internships: internships}
}

// Handle executes the query.
func (h *GetStudentDashboardHandler) Handle(ctx context.Context, q GetStudentDashboardQuery) (*StudentDashboardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	dashboard := &StudentDashboardDTO{}

	app, err := h.applications.LatestByStudent(ctx, q.StudentID)
	switch {
	case err == nil:
		dashboard.Application = toApplicationDTO(app)
	case errors.Is(err, application.ErrApplicationNotFound):
		// Never applied, empty dashboard.
	default:
		return nil, shared.WrapError("query", "StudentDashboard", shared.ErrStoreUnavailable, "store operation failed", err)
	}

	ship, err := h.internships.FindActiveByStudent(ctx, q.StudentID)
	switch {
	case err == nil:
		dashboard.Internship = toProgressDTO(ship)
	case errors.Is(err, internship.ErrInternshipNotFound):
		// Not placed, or the placement already completed; surface the
		// completed one through the application's internship if it backs the
		// latest accepted application.
		if dashboard.Application != nil && dashboard.Application.Status == string(application.StatusAccepted) {
			if completed, err := h.completedFor(ctx, dashboard.Application.ID, q.StudentID); err == nil && completed != nil {
				dashboard.Internship = completed
			}
		}
	default:
		return nil, shared.WrapError("query", "StudentDashboard", shared.ErrStoreUnavailable, "store operation failed", err)
	}

	return dashboard, nil
}

// completedFor looks for a completed internship behind an accepted
// application via the company listing.
func (h *GetStudentDashboardHandler) completedFor(ctx context.Context, applicationID, studentID string) (*ProgressDTO, error) {
	app, err := h.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	ships, err := h.internships.ListByCompany(ctx, app.CompanyID)
	if err != nil {
		return nil, err
	}
	for _, s := range ships {
		if s.ApplicationID == applicationID && s.StudentID == studentID {
			return toProgressDTO(s), nil
		}
	}
	return nil, nil
}

func toApplicationDTO(app *application.Application) *ApplicationDTO {
	return &ApplicationDTO{
		ID:          app.ID,
		StudentID:   app.StudentID,
		StudentName: app.StudentName,
		CompanyID:   app.CompanyID,
		CompanyName: app.CompanyName,
		Status:      string(app.Status),
		TutorName:   app.TutorName,
		Summary:     app.Curriculum.Summary,
		Education:   app.Curriculum.Education,
		Experience:  app.Curriculum.Experience,
		Skills:      app.Curriculum.Skills,
		About:       app.Curriculum.About,
		SubmittedAt: app.SubmittedAt,
	}
}

func toProgressDTO(s *internship.Internship) *ProgressDTO {
	p := s.Progress()
	return &ProgressDTO{
		InternshipID: s.ID,
		Status:       string(s.Status),
		LoggedHours:  p.LoggedHours,
		Threshold:    p.Threshold,
		Percent:      p.Percent,
		Entries:      len(s.WorkLog),
	}
}
