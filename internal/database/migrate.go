package database

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending up migrations in version order, tracked in a
// schema_migrations table. Each migration runs in its own transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	currentVersion, err := currentSchemaVersion(ctx, pool)
	if err != nil {
		return err
	}

	pending, err := migrationFiles(".up.sql")
	if err != nil {
		return err
	}

	for _, m := range pending {
		if m.version <= currentVersion {
			continue
		}

		sql, err := migrationsFS.ReadFile("migrations/" + m.filename)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", m.filename, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}

		log.Info().Int("version", m.version).Str("file", m.filename).Msg("applied migration")
	}

	return nil
}

// MigrateDown rolls back the most recently applied migration using its
// .down.sql counterpart.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	currentVersion, err := currentSchemaVersion(ctx, pool)
	if err != nil {
		return err
	}
	if currentVersion == 0 {
		log.Info().Msg("no migrations to roll back")
		return nil
	}

	downs, err := migrationFiles(".down.sql")
	if err != nil {
		return err
	}

	var target *migrationFile
	for i := range downs {
		if downs[i].version == currentVersion {
			target = &downs[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no down migration for version %d", currentVersion)
	}

	sql, err := migrationsFS.ReadFile("migrations/" + target.filename)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", target.filename, err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx for rollback %d: %w", target.version, err)
	}

	if _, err := tx.Exec(ctx, string(sql)); err != nil {
		tx.Rollback(ctx)
		return fmt.Errorf("apply rollback %d: %w", target.version, err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", target.version); err != nil {
		tx.Rollback(ctx)
		return fmt.Errorf("unrecord migration %d: %w", target.version, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rollback %d: %w", target.version, err)
	}

	log.Info().Int("version", target.version).Str("file", target.filename).Msg("rolled back migration")
	return nil
}

type migrationFile struct {
	version  int
	filename string
}

func migrationFiles(suffix string) ([]migrationFile, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []migrationFile
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		var version int
		var rest string
		if _, err := fmt.Sscanf(name, "%03d_%s", &version, &rest); err != nil {
			continue
		}
		files = append(files, migrationFile{version: version, filename: name})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

func ensureMigrationsTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	return nil
}

func currentSchemaVersion(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var version int
	err := pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	return version, nil
}
