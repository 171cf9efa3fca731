package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type Migration struct {
	Version string
	SQL     string
}

// MigrationState reports whether a migration has been applied.
type MigrationState struct {
	Version   string     `db:"version"`
	AppliedAt *time.Time `db:"applied_at"`
}

func (s MigrationState) Applied() bool {
	return s.AppliedAt != nil
}

// Migrations returns the embedded migrations in version order.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		body, err := fs.ReadFile(migrationFS, "migrations/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: strings.TrimSuffix(e.Name(), ".sql"), SQL: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// Migrate applies every pending migration, each in its own transaction, and
// returns the versions it applied.
func Migrate(ctx context.Context, db *sqlx.DB) ([]string, error) {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	status, err := Status(ctx, db)
	if err != nil {
		return nil, err
	}
	all, err := Migrations()
	if err != nil {
		return nil, err
	}
	bySQL := make(map[string]string, len(all))
	for _, m := range all {
		bySQL[m.Version] = m.SQL
	}

	base := NewBaseRepository(db)
	var applied []string
	for _, s := range status {
		if s.Applied() {
			continue
		}
		version := s.Version
		err := base.WithTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, bySQL[version]); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", version, err)
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return applied, err
		}
		log.Info().Str("version", version).Msg("Applied migration")
		applied = append(applied, version)
	}
	return applied, nil
}

// Status lists every embedded migration with its applied time, if any.
func Status(ctx context.Context, db *sqlx.DB) ([]MigrationState, error) {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	var done []MigrationState
	if err := db.SelectContext(ctx, &done, `SELECT version, applied_at FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	appliedAt := make(map[string]*time.Time, len(done))
	for _, d := range done {
		appliedAt[d.Version] = d.AppliedAt
	}

	all, err := Migrations()
	if err != nil {
		return nil, err
	}
	out := make([]MigrationState, len(all))
	for i, m := range all {
		out[i] = MigrationState{Version: m.Version, AppliedAt: appliedAt[m.Version]}
	}
	return out, nil
}
