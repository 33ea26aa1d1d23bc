package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('student', 'tutor', 'company'))
);

CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: APPLICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS applications (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES users(id),
    company_id UUID NOT NULL REFERENCES users(id),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    student_name VARCHAR(100) NOT NULL,
    company_name VARCHAR(100) NOT NULL,
    tutor_id UUID,
    tutor_name VARCHAR(100) NOT NULL DEFAULT '',
    cv_summary TEXT NOT NULL,
    cv_education TEXT NOT NULL,
    cv_experience TEXT NOT NULL DEFAULT '',
    cv_skills TEXT NOT NULL DEFAULT '',
    cv_about TEXT NOT NULL DEFAULT '',
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
    reviewed_at TIMESTAMP WITH TIME ZONE,
    accepted_at TIMESTAMP WITH TIME ZONE,
    rejected_at TIMESTAMP WITH TIME ZONE,
    version BIGINT NOT NULL DEFAULT 1,

    CONSTRAINT valid_status CHECK (status IN ('pending', 'approved', 'rejected', 'accepted'))
);

CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
CREATE INDEX IF NOT EXISTS idx_applications_student ON applications(student_id, submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_applications_company_status ON applications(company_id, status);

-- At most one open (pending or approved) application per student-company pair.
CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_application
    ON applications(student_id, company_id)
    WHERE status IN ('pending', 'approved');
`

const migration002Down = `
DROP TABLE IF EXISTS applications;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: INTERNSHIPS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS internships (
    id UUID PRIMARY KEY,
    application_id UUID NOT NULL REFERENCES applications(id),
    student_id UUID NOT NULL REFERENCES users(id),
    company_id UUID NOT NULL REFERENCES users(id),
    start_date TIMESTAMP WITH TIME ZONE NOT NULL,
    logged_hours INTEGER NOT NULL DEFAULT 0,
    work_log JSONB NOT NULL DEFAULT '[]'::jsonb,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    version BIGINT NOT NULL DEFAULT 1,

    CONSTRAINT valid_status CHECK (status IN ('active', 'completed')),
    CONSTRAINT valid_hours CHECK (logged_hours >= 0)
);

CREATE INDEX IF NOT EXISTS idx_internships_company ON internships(company_id, start_date DESC);

-- At most one active internship per student. Two racing acceptance flows
-- cannot both insert; the loser's saga compensates.
CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_internship
    ON internships(student_id)
    WHERE status = 'active';
`

const migration003Down = `
DROP TABLE IF EXISTS internships;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_applications", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_internships", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

// Migrator applies embedded migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the bookkeeping table if missing.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: create migration table: %v", ErrMigrationFailed, err)
	}
	return nil
}

// AppliedVersions returns the set of already applied migration versions.
func (m *Migrator) AppliedVersions(ctx context.Context) (map[int]bool, error) {
	query := fmt.Sprintf("SELECT version FROM %s", m.tableName)
	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: read applied versions: %v", ErrMigrationFailed, err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("%w: scan version: %v", ErrMigrationFailed, err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// Up applies all pending migrations, each in its own transaction.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.AppliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if applied[migration.Version] {
			continue
		}

		migration := migration
		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, migration.UpSQL); err != nil {
				return err
			}
			insert := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
			_, err := tx.Exec(ctx, insert, migration.Version, migration.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: migration %03d %s: %v", ErrMigrationFailed, migration.Version, migration.Name, err)
		}
	}
	return nil
}

// Down rolls back the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.AppliedVersions(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if !applied[migration.Version] {
			continue
		}

		return m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, migration.DownSQL); err != nil {
				return err
			}
			del := fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName)
			_, err := tx.Exec(ctx, del, migration.Version)
			return err
		})
	}
	return nil
}
