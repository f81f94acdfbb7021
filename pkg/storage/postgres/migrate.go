package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/platinummonkey/folio/pkg/observability"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseUp is swapped out in tests
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate applies every pending embedded migration
func Migrate(ctx context.Context, db *sql.DB, logger *observability.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := gooseUp(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// LatestVersion returns the highest embedded migration version
func LatestVersion() (int64, error) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations: %w", err)
	}
	var latest int64
	for _, e := range entries {
		v, err := goose.NumericComponent(e.Name())
		if err != nil {
			return 0, fmt.Errorf("bad migration file name %s: %w", e.Name(), err)
		}
		if v > latest {
			latest = v
		}
	}
	return latest, nil
}

// SchemaCheck fails readiness while the database lags the embedded
// migrations, e.g. during a rolling deploy
func SchemaCheck(db *sql.DB) observability.CheckFunc {
	return func(ctx context.Context) error {
		want, err := LatestVersion()
		if err != nil {
			return err
		}
		var have int64
		err = db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied`).Scan(&have)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if have < want {
			return fmt.Errorf("schema at version %d, want %d", have, want)
		}
		return nil
	}
}

// gooseLogger routes goose output through the structured logger
type gooseLogger struct {
	logger *observability.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.WithField("component", "migrate").Infof(strings.TrimSpace(format), v...)
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.WithField("component", "migrate").Errorf(strings.TrimSpace(format), v...)
}
