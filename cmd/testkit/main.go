// Command testkit manages the test environment from the shell: creating,
// resetting and dropping the reusable test database, and loading or
// truncating fixture data.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/gotestkit/testkit/internal/logging"
	"github.com/gotestkit/testkit/pkg/dbtest"
	"github.com/gotestkit/testkit/pkg/fixtures"
	"github.com/gotestkit/testkit/pkg/settings"
)

const commandTimeout = 5 * time.Minute

func main() {
	app := kingpin.New("testkit", "Test environment toolbox: reusable test databases and fixture data")
	settingsDir := app.Flag("settings", "Directory containing settings.yaml (and optional settings_test.yaml)").Default(".").String()
	migrationsDir := app.Flag("migrations", "Directory containing NNN_name.up.sql migration files").String()

	dbCmd := app.Command("db", "Manage the test database")
	dbCreate := dbCmd.Command("create", "Create or reuse the test database and apply migrations")
	dbDrop := dbCmd.Command("drop", "Drop the test database")
	dbReset := dbCmd.Command("reset", "Drop, recreate and migrate the test database")
	dbRollback := dbCmd.Command("rollback", "Roll back the most recently applied migration")

	fixturesCmd := app.Command("fixtures", "Manage fixture data in the test database")
	fixturesLoad := fixturesCmd.Command("load", "Load fixture files into the test database")
	fixtureFiles := fixturesLoad.Arg("files", "Fixture YAML files").Required().ExistingFiles()
	fixturesTruncate := fixturesCmd.Command("truncate", "Empty all application tables in the test database")

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := settings.Load(*settingsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load settings: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.String("logging.level", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var migrations fs.FS
	if *migrationsDir != "" {
		migrations = os.DirFS(*migrationsDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	dbCfg := dbtest.ConfigFromSettings(cfg)

	switch command {
	case dbCreate.FullCommand():
		err = runCreate(ctx, dbCfg, migrations, logger)
	case dbDrop.FullCommand():
		err = runDrop(ctx, dbCfg, logger)
	case dbReset.FullCommand():
		err = runReset(ctx, dbCfg, migrations, logger)
	case dbRollback.FullCommand():
		err = runRollback(ctx, dbCfg, migrations, logger)
	case fixturesLoad.FullCommand():
		err = runLoadFixtures(ctx, dbCfg, migrations, *fixtureFiles, logger)
	case fixturesTruncate.FullCommand():
		err = runTruncate(ctx, dbCfg, migrations, cfg.Strings("fixtures.no_truncate", nil), logger)
	}

	if err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func runCreate(ctx context.Context, cfg dbtest.Config, migrations fs.FS, logger *zap.Logger) error {
	db, err := dbtest.Prepare(ctx, cfg, migrations, ".", logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("test database ready",
		zap.String("database", db.Name),
		zap.Bool("reused", db.Reused))
	return nil
}

func runDrop(ctx context.Context, cfg dbtest.Config, logger *zap.Logger) error {
	if err := dbtest.Drop(ctx, cfg); err != nil {
		return err
	}
	logger.Info("test database dropped", zap.String("database", cfg.TestDBName()))
	return nil
}

func runReset(ctx context.Context, cfg dbtest.Config, migrations fs.FS, logger *zap.Logger) error {
	if err := dbtest.Drop(ctx, cfg); err != nil {
		return err
	}
	return runCreate(ctx, cfg, migrations, logger)
}

func runRollback(ctx context.Context, cfg dbtest.Config, migrations fs.FS, logger *zap.Logger) error {
	if migrations == nil {
		return fmt.Errorf("db rollback requires --migrations")
	}

	db, err := dbtest.Prepare(ctx, cfg, nil, "", logger)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := dbtest.NewMigrator(db.Pool, migrations, ".")
	if err != nil {
		return err
	}
	version, err := migrator.Down(ctx)
	if err != nil {
		return err
	}
	if version == 0 {
		logger.Info("no applied migrations to roll back")
		return nil
	}

	logger.Info("migration rolled back", zap.Int("version", version))
	return nil
}

func runLoadFixtures(ctx context.Context, cfg dbtest.Config, migrations fs.FS, files []string, logger *zap.Logger) error {
	db, err := dbtest.Prepare(ctx, cfg, migrations, ".", logger)
	if err != nil {
		return err
	}
	defer db.Close()

	tables, err := fixtures.Tables(files...)
	if err != nil {
		return err
	}
	if err := fixtures.Load(ctx, db.Pool, files...); err != nil {
		return err
	}
	if err := fixtures.SyncSequences(ctx, db.Pool, tables); err != nil {
		return err
	}

	logger.Info("fixtures loaded",
		zap.Int("files", len(files)),
		zap.Strings("tables", tables))
	return nil
}

func runTruncate(ctx context.Context, cfg dbtest.Config, migrations fs.FS, keep []string, logger *zap.Logger) error {
	db, err := dbtest.Prepare(ctx, cfg, migrations, ".", logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := fixtures.TruncateAll(ctx, db.Pool, keep); err != nil {
		return err
	}

	logger.Info("application tables truncated", zap.Strings("kept", keep))
	return nil
}
