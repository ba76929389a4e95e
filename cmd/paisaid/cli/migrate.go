package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer runs SQL statements and opens transactions. *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const createVersionsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrator applies embedded SQL files that have not been recorded yet.
type Migrator struct {
	db     Execer
	files  fs.FS
	logger *slog.Logger
}

// NewMigrator constructs a Migrator.
func NewMigrator(db Execer, files fs.FS, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, files: files, logger: logger}
}

// Pending lists migration file names in apply order.
func (m *Migrator) Pending(applied map[string]struct{}) ([]string, error) {
	names, err := fs.Glob(m.files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := names[:0]
	for _, name := range names {
		if _, ok := applied[versionOf(name)]; !ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// Up applies every pending migration and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if _, err := m.db.Exec(ctx, createVersionsTable); err != nil {
		return 0, fmt.Errorf("migrate: create versions table: %w", err)
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}
	pending, err := m.Pending(applied)
	if err != nil {
		return 0, err
	}
	for _, name := range pending {
		body, err := fs.ReadFile(m.files, name)
		if err != nil {
			return 0, fmt.Errorf("migrate: read %s: %w", name, err)
		}
		// The file and its version row commit together.
		err = pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return fmt.Errorf("apply: %w", err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, versionOf(name)); err != nil {
				return fmt.Errorf("record: %w", err)
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("migrate: %s: %w", name, err)
		}
		m.logger.Info("migration applied", slog.String("version", versionOf(name)))
	}
	return len(pending), nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]struct{}, error) {
	rows, err := m.db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("migrate: list applied: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("migrate: scan applied: %w", err)
	}
	out := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		out[v] = struct{}{}
	}
	return out, nil
}

func versionOf(name string) string {
	return strings.TrimSuffix(path.Base(name), ".sql")
}
