package infra

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"voxscribe/internal/infra/migrations"
)

// RunMigrations applies the embedded schema migrations. Goose works on
// database/sql, so a short-lived lib/pq connection is opened next to the pgx pool.
func RunMigrations(ctx context.Context, cfg *Config, logger Logger) error {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open migration db: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

type gooseLogger struct {
	logger Logger
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.logger.Error().Msgf("goose: "+format, v...)
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.logger.Info().Msgf("goose: "+format, v...)
}
