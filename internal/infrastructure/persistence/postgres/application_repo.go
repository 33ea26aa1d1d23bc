package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pasantia-hub/placement-hub/internal/domain/application"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationRepository implements application.Repository for PostgreSQL.
// State transitions are conditional UPDATEs on the version column; a write
// that matches zero rows lost a race or targets a missing row, and the two
// cases are told apart by re-reading.
type ApplicationRepository struct {
	conn *Connection
}

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(conn *Connection) *ApplicationRepository {
	return &ApplicationRepository{conn: conn}
}

const applicationColumns = `
	id, student_id, company_id, status, student_name, company_name,
	tutor_id, tutor_name, cv_summary, cv_education, cv_experience,
	cv_skills, cv_about, submitted_at, reviewed_at, accepted_at,
	rejected_at, version
`

// Create persists a new application.
func (r *ApplicationRepository) Create(ctx context.Context, app *application.Application) error {
	query := `
		INSERT INTO applications (
			id, student_id, company_id, status, student_name, company_name,
			tutor_id, tutor_name, cv_summary, cv_education, cv_experience,
			cv_skills, cv_about, submitted_at, reviewed_at, accepted_at,
			rejected_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.conn.Exec(ctx, query,
		app.ID,
		app.StudentID,
		app.CompanyID,
		string(app.Status),
		app.StudentName,
		app.CompanyName,
		nullableID(app.TutorID),
		app.TutorName,
		app.Curriculum.Summary,
		app.Curriculum.Education,
		app.Curriculum.Experience,
		app.Curriculum.Skills,
		app.Curriculum.About,
		app.SubmittedAt,
		nullableTime(app.ReviewedAt),
		nullableTime(app.AcceptedAt),
		nullableTime(app.RejectedAt),
		app.Version,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			// The partial unique index on open applications fired.
			return application.ErrOpenApplicationExists
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetByID returns an application by ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, applicationColumns)
	return r.scanApplication(r.conn.QueryRow(ctx, query, id))
}

// UpdateStatus persists a state transition guarded by the version column.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, app *application.Application, expectedVersion int64) error {
	query := `
		UPDATE applications
		SET status = $1, tutor_id = $2, tutor_name = $3, reviewed_at = $4,
		    accepted_at = $5, rejected_at = $6, version = version + 1
		WHERE id = $7 AND version = $8
	`

	tag, err := r.conn.Exec(ctx, query,
		string(app.Status),
		nullableID(app.TutorID),
		app.TutorName,
		nullableTime(app.ReviewedAt),
		nullableTime(app.AcceptedAt),
		nullableTime(app.RejectedAt),
		app.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the row is gone or someone else moved the version.
		if _, err := r.GetByID(ctx, app.ID); err != nil {
			return err
		}
		return application.ErrStaleApplication
	}

	app.Version = expectedVersion + 1
	return nil
}

// FindOpenByStudentAndCompany returns the open application for a
// student-company pair, if any.
func (r *ApplicationRepository) FindOpenByStudentAndCompany(ctx context.Context, studentID, companyID string) (*application.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM applications
		WHERE student_id = $1 AND company_id = $2 AND status IN ('pending', 'approved')
	`, applicationColumns)
	return r.scanApplication(r.conn.QueryRow(ctx, query, studentID, companyID))
}

// ListByStatus returns applications with the given status, oldest first.
func (r *ApplicationRepository) ListByStatus(ctx context.Context, status application.Status) ([]*application.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM applications
		WHERE status = $1
		ORDER BY submitted_at
	`, applicationColumns)

	rows, err := r.conn.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()
	return r.scanApplications(rows)
}

// ListByCompanyAndStatus returns a company's applications with the given
// status, oldest first.
func (r *ApplicationRepository) ListByCompanyAndStatus(ctx context.Context, companyID string, status application.Status) ([]*application.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM applications
		WHERE company_id = $1 AND status = $2
		ORDER BY submitted_at
	`, applicationColumns)

	rows, err := r.conn.Query(ctx, query, companyID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()
	return r.scanApplications(rows)
}

// LatestByStudent returns the student's most recently submitted application.
func (r *ApplicationRepository) LatestByStudent(ctx context.Context, studentID string) (*application.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM applications
		WHERE student_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1
	`, applicationColumns)
	return r.scanApplication(r.conn.QueryRow(ctx, query, studentID))
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ApplicationRepository) scanApplication(row pgx.Row) (*application.Application, error) {
	var app application.Application
	var status string
	var tutorID *string
	var reviewedAt, acceptedAt, rejectedAt *time.Time

	err := row.Scan(
		&app.ID,
		&app.StudentID,
		&app.CompanyID,
		&status,
		&app.StudentName,
		&app.CompanyName,
		&tutorID,
		&app.TutorName,
		&app.Curriculum.Summary,
		&app.Curriculum.Education,
		&app.Curriculum.Experience,
		&app.Curriculum.Skills,
		&app.Curriculum.About,
		&app.SubmittedAt,
		&reviewedAt,
		&acceptedAt,
		&rejectedAt,
		&app.Version,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, application.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}

	app.Status = application.Status(status)
	if tutorID != nil {
		app.TutorID = *tutorID
	}
	if reviewedAt != nil {
		app.ReviewedAt = *reviewedAt
	}
	if acceptedAt != nil {
		app.AcceptedAt = *acceptedAt
	}
	if rejectedAt != nil {
		app.RejectedAt = *rejectedAt
	}
	return &app, nil
}

func (r *ApplicationRepository) scanApplications(rows pgx.Rows) ([]*application.Application, error) {
	apps := make([]*application.Application, 0)
	for rows.Next() {
		app, err := r.scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// nullableID maps an empty string to NULL for UUID columns.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
