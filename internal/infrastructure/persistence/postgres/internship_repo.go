package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pasantia-hub/placement-hub/internal/domain/internship"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERNSHIP REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InternshipRepository implements internship.Repository for PostgreSQL.
// The work log is stored as a JSONB array; the partial unique index on
// (student_id) WHERE status = 'active' enforces single placement at the
// store level.
type InternshipRepository struct {
	conn *Connection
}

// NewInternshipRepository creates a new InternshipRepository.
func NewInternshipRepository(conn *Connection) *InternshipRepository {
	return &InternshipRepository{conn: conn}
}

// logEntryRecord is the JSONB shape of one work log entry.
type logEntryRecord struct {
	Date        time.Time `json:"date"`
	Hours       int       `json:"hours"`
	Description string    `json:"description"`
}

const internshipColumns = `
	id, application_id, student_id, company_id, start_date,
	logged_hours, work_log, status, version
`

// Create persists a newly opened internship.
func (r *InternshipRepository) Create(ctx context.Context, i *internship.Internship) error {
	workLog, err := marshalWorkLog(i.WorkLog)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO internships (
			id, application_id, student_id, company_id, start_date,
			logged_hours, work_log, status, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.conn.Exec(ctx, query,
		i.ID,
		i.ApplicationID,
		i.StudentID,
		i.CompanyID,
		i.StartDate,
		i.LoggedHours,
		workLog,
		string(i.Status),
		i.Version,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return internship.ErrActiveInternshipExists
		}
		return fmt.Errorf("failed to create internship: %w", err)
	}
	return nil
}

// GetByID returns an internship by ID.
func (r *InternshipRepository) GetByID(ctx context.Context, id string) (*internship.Internship, error) {
	query := fmt.Sprintf(`SELECT %s FROM internships WHERE id = $1`, internshipColumns)
	return r.scanInternship(r.conn.QueryRow(ctx, query, id))
}

// Update persists a mutation guarded by the version column.
func (r *InternshipRepository) Update(ctx context.Context, i *internship.Internship, expectedVersion int64) error {
	workLog, err := marshalWorkLog(i.WorkLog)
	if err != nil {
		return err
	}

	query := `
		UPDATE internships
		SET logged_hours = $1, work_log = $2, status = $3, version = version + 1
		WHERE id = $4 AND version = $5
	`

	tag, err := r.conn.Exec(ctx, query,
		i.LoggedHours,
		workLog,
		string(i.Status),
		i.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update internship: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, i.ID); err != nil {
			return err
		}
		return internship.ErrStaleInternship
	}

	i.Version = expectedVersion + 1
	return nil
}

// Delete removes an internship. Compensation path only.
func (r *InternshipRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM internships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete internship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return internship.ErrInternshipNotFound
	}
	return nil
}

// FindActiveByStudent returns the student's active internship, if any.
func (r *InternshipRepository) FindActiveByStudent(ctx context.Context, studentID string) (*internship.Internship, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM internships
		WHERE student_id = $1 AND status = 'active'
	`, internshipColumns)
	return r.scanInternship(r.conn.QueryRow(ctx, query, studentID))
}

// FindByApplicationID returns the internship opened for an application.
func (r *InternshipRepository) FindByApplicationID(ctx context.Context, applicationID string) (*internship.Internship, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM internships
		WHERE application_id = $1
	`, internshipColumns)
	return r.scanInternship(r.conn.QueryRow(ctx, query, applicationID))
}

// ListByCompany returns a company's internships, newest first.
func (r *InternshipRepository) ListByCompany(ctx context.Context, companyID string) ([]*internship.Internship, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM internships
		WHERE company_id = $1
		ORDER BY start_date DESC
	`, internshipColumns)

	rows, err := r.conn.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list internships: %w", err)
	}
	defer rows.Close()

	ships := make([]*internship.Internship, 0)
	for rows.Next() {
		s, err := r.scanInternship(rows)
		if err != nil {
			return nil, err
		}
		ships = append(ships, s)
	}
	return ships, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *InternshipRepository) scanInternship(row pgx.Row) (*internship.Internship, error) {
	var i internship.Internship
	var status string
	var workLog []byte

	err := row.Scan(
		&i.ID,
		&i.ApplicationID,
		&i.StudentID,
		&i.CompanyID,
		&i.StartDate,
		&i.LoggedHours,
		&workLog,
		&status,
		&i.Version,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, internship.ErrInternshipNotFound
		}
		return nil, fmt.Errorf("failed to scan internship: %w", err)
	}

	i.Status = internship.Status(status)

	var records []logEntryRecord
	if err := json.Unmarshal(workLog, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work log: %w", err)
	}
	i.WorkLog = make([]internship.LogEntry, 0, len(records))
	for _, rec := range records {
		i.WorkLog = append(i.WorkLog, internship.LogEntry{
			Date:        rec.Date,
			Hours:       rec.Hours,
			Description: rec.Description,
		})
	}
	return &i, nil
}

func marshalWorkLog(entries []internship.LogEntry) ([]byte, error) {
	records := make([]logEntryRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, logEntryRecord{
			Date:        e.Date,
			Hours:       e.Hours,
			Description: e.Description,
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal work log: %w", err)
	}
	return data, nil
}
