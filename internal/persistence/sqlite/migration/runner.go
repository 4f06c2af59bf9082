package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var embeddedFiles embed.FS

// Embedded returns the migration files compiled into the binary, rooted at
// the migrations directory.
func Embedded() fs.FS {
	sub, err := fs.Sub(embeddedFiles, "migrations")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(fmt.Sprintf("migration: embedded migrations missing: %v", err))
	}
	return sub
}

// Migration is a single schema migration file: a version, a human readable
// description, and the SQL to execute.
type Migration struct {
	Version     int
	Description string
	Name        string
	SQL         string
}

// ScanFS reads every *.sql file in fsys. File names must follow the
// NNN_description.sql convention; the numeric prefix orders migrations and
// duplicate versions are rejected.
func ScanFS(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migration: read migration directory: %w", err)
	}

	seen := make(map[int]string)
	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m, err := parseMigrationName(entry.Name())
		if err != nil {
			return nil, err
		}
		if prior, dup := seen[m.Version]; dup {
			return nil, fmt.Errorf("migration: version %d defined by both %s and %s", m.Version, prior, entry.Name())
		}
		seen[m.Version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migration: read %s: %w", entry.Name(), err)
		}
		m.SQL = string(content)
		if described := descriptionFromHeader(m.SQL); described != "" {
			m.Description = described
		}

		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func parseMigrationName(name string) (Migration, error) {
	base := strings.TrimSuffix(name, ".sql")
	prefix, rest, found := strings.Cut(base, "_")
	if !found || prefix == "" {
		return Migration{}, fmt.Errorf("migration: file %s does not follow the NNN_description.sql convention", name)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return Migration{}, fmt.Errorf("migration: file %s has a non-numeric version prefix", name)
	}
	return Migration{
		Version:     version,
		Description: strings.ReplaceAll(rest, "_", " "),
		Name:        name,
	}, nil
}

// descriptionFromHeader extracts the "-- Description:" header comment, the
// convention the migration files in this repository follow.
func descriptionFromHeader(sqlText string) string {
	for _, line := range strings.Split(sqlText, "\n") {
		line = strings.TrimSpace(line)
		if described, found := strings.CutPrefix(line, "-- Description:"); found {
			return strings.TrimSpace(described)
		}
		if line != "" && !strings.HasPrefix(line, "--") {
			break
		}
	}
	return ""
}

// Runner applies migrations to a SQLite database, tracking applied versions
// in a schema_migrations table.
type Runner struct {
	db *sql.DB
}

// NewRunner wraps db for migration execution.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

const versionTableSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at TEXT NOT NULL
)`

func (r *Runner) ensureVersionTable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, versionTableSchema); err != nil {
		return fmt.Errorf("migration: create schema_migrations table: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied migration version, or zero for
// a fresh database.
func (r *Runner) CurrentVersion(ctx context.Context) (int, error) {
	if err := r.ensureVersionTable(ctx); err != nil {
		return 0, err
	}
	var version sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("migration: query current version: %w", err)
	}
	return int(version.Int64), nil
}

// Pending filters migrations down to those not yet applied, in version order.
func (r *Runner) Pending(ctx context.Context, migrations []Migration) ([]Migration, error) {
	current, err := r.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Apply executes every pending migration inside its own transaction and
// records it in schema_migrations. It returns the number of migrations
// applied. A failing migration aborts the run; already-applied migrations
// stay recorded, so a rerun resumes after the last success.
func (r *Runner) Apply(ctx context.Context, migrations []Migration) (int, error) {
	pending, err := r.Pending(ctx, migrations)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range pending {
		if err := r.applyOne(ctx, m); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (r *Runner) applyOne(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration: begin %s: %w", m.Name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("migration: execute %s: %w", m.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Description, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("migration: record %s: %w", m.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration: commit %s: %w", m.Name, err)
	}
	return nil
}
