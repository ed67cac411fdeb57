package postgres

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"path"
)

// Migration files are applied in lexicographic order. 000_migrations_table.sql
// must stay first so the tracking table exists before anything else runs.
//
//go:embed migrations/*.sql
var migrationFiles embed.FS

// requiredTables are checked by CheckSchema.
var requiredTables = []string{"parks", "activities"}

type migration struct {
	version string
	sql     string
}

// Migrate applies every pending migration, each in its own transaction.
// Versions already recorded in schema_migrations are skipped.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return 0, fmt.Errorf("migrate: load files: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, migrations[0].sql); err != nil {
		return 0, fmt.Errorf("migrate: ensure tracking table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate: read applied versions: %w", err)
	}

	n := 0
	for _, m := range migrations {
		if applied[m.version] {
			slog.Debug("migration already applied", "version", m.version)
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return n, fmt.Errorf("migrate: apply %q: %w", m.version, err)
		}
		slog.Info("migration applied", "version", m.version)
		n++
	}
	return n, nil
}

// Drop removes the catalog tables and the migration history.
func (db *DB) Drop(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		DROP TABLE IF EXISTS activities;
		DROP TABLE IF EXISTS parks;
		DROP TABLE IF EXISTS schema_migrations;
	`)
	if err != nil {
		return fmt.Errorf("migrate: drop: %w", err)
	}
	return nil
}

// CheckSchema verifies the catalog tables exist.
func (db *DB) CheckSchema(ctx context.Context) error {
	for _, table := range requiredTables {
		var exists bool
		err := db.Pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("migrate: check table %q: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("migrate: required table %q is missing", table)
		}
	}
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.Pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		seen[v] = true
	}
	return seen, rows.Err()
}

func (db *DB) apply(ctx context.Context, m migration) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return fmt.Errorf("exec sql: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit(ctx)
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read embedded dir: %w", err)
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		content, err := migrationFiles.ReadFile(path.Join("migrations", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", e.Name(), err)
		}
		out = append(out, migration{version: e.Name(), sql: string(content)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no migration files embedded")
	}
	return out, nil
}
