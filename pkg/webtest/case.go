// Package webtest provides the test case harness: settings with the test
// overlay applied, an eager task queue, setup/teardown hooks, a reusable
// test database with fixtures loaded once and per-test transaction
// rollback, and a cleared cache before every test.
package webtest

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/gotestkit/testkit/pkg/cachetest"
	"github.com/gotestkit/testkit/pkg/dbtest"
	"github.com/gotestkit/testkit/pkg/fixtures"
	"github.com/gotestkit/testkit/pkg/render"
	"github.com/gotestkit/testkit/pkg/settings"
	"github.com/gotestkit/testkit/pkg/signals"
	"github.com/gotestkit/testkit/pkg/tasks"
)

// teardownTimeout bounds suite teardown work.
const teardownTimeout = 30 * time.Second

// Case is a testify suite preconfigured for web application tests.
// Embed it and set the exported configuration fields before suite.Run:
//
//	type AccountSuite struct {
//		webtest.Case
//	}
//
//	func TestAccounts(t *testing.T) {
//		suite.Run(t, &AccountSuite{Case: webtest.Case{
//			SettingsDir: "testdata/conf",
//			Fixtures:    []string{"testdata/accounts.yaml"},
//		}})
//	}
type Case struct {
	suite.Suite

	// SettingsDir holds settings.yaml and, optionally, settings_test.yaml.
	// Empty means an empty settings namespace.
	SettingsDir string
	// Fixtures are YAML fixture files loaded once per suite.
	Fixtures []string
	// Migrations optionally holds migration files applied to the test
	// database during setup.
	Migrations    fs.FS
	MigrationsDir string
	// Signals is the hook registry emitted around each test.
	// Defaults to signals.Default.
	Signals *signals.Registry

	// Populated by SetupSuite.
	Settings *settings.Settings
	Log      *zap.Logger
	Tasks    tasks.Queue
	Render   *render.Recorder
	DB       *dbtest.TestDatabase
	Cache    *redis.Client

	// Tx is an open transaction on the test database, rolled back after
	// each test so fixture data stays pristine. Nil without a database.
	Tx pgx.Tx

	fixtureTables []string
}

// SetupSuite loads settings, forces eager task execution, and prepares the
// database and cache when the settings configure them.
func (c *Case) SetupSuite() {
	ctx := context.Background()
	c.Log = zaptest.NewLogger(c.T())

	if c.Signals == nil {
		c.Signals = signals.Default
	}

	if c.SettingsDir != "" {
		s, err := settings.Load(c.SettingsDir)
		c.Require().NoError(err, "load settings")
		c.Settings = s
	} else if c.Settings == nil {
		c.Settings = settings.New()
	}

	// Tests always run tasks inline and never in debug mode, regardless
	// of what the base settings say.
	c.Settings.Set(tasks.KeyAlwaysEager, true)
	c.Settings.Set("debug", false)

	c.Tasks = tasks.New(c.Settings, c.Log)
	c.Render = render.NewRecorder()

	dbCfg := dbtest.ConfigFromSettings(c.Settings)
	if dbCfg.Configured() {
		db, err := dbtest.Prepare(ctx, dbCfg, c.Migrations, c.MigrationsDir, c.Log)
		c.Require().NoError(err, "prepare test database")
		c.DB = db

		if len(c.Fixtures) > 0 {
			tables, err := fixtures.Tables(c.Fixtures...)
			c.Require().NoError(err, "inspect fixtures")
			c.fixtureTables = tables

			// Start from empty tables in case a previous run left
			// data behind, then load once for the whole suite.
			keep := c.Settings.Strings("fixtures.no_truncate", nil)
			c.Require().NoError(fixtures.Truncate(ctx, db.Pool, tables, keep), "reset fixture tables")
			c.Require().NoError(fixtures.Load(ctx, db.Pool, c.Fixtures...), "load fixtures")
			c.Require().NoError(fixtures.SyncSequences(ctx, db.Pool, tables), "sync sequences")
		}
	}

	cacheCfg := cachetest.ConfigFromSettings(c.Settings)
	if cacheCfg.Configured() {
		client, err := cachetest.Connect(ctx, cacheCfg)
		c.Require().NoError(err, "connect to test cache")
		c.Cache = client
	}
}

// SetupTest emits pre-setup hooks, clears the cache and render recorder,
// and opens the per-test transaction.
func (c *Case) SetupTest() {
	ctx := context.Background()

	c.Require().NoError(c.Signals.EmitPreSetup(ctx), "pre-setup hooks")

	if c.Cache != nil {
		cachetest.Clear(c.T(), c.Cache)
	}
	c.Render.Reset()

	if c.DB != nil {
		tx, err := c.DB.Pool.Begin(ctx)
		c.Require().NoError(err, "begin test transaction")
		c.Tx = tx
	}
}

// TearDownTest rolls back the per-test transaction and emits post-teardown
// hooks.
func (c *Case) TearDownTest() {
	ctx := context.Background()

	if c.Tx != nil {
		// Rollback discards anything the test wrote, restoring the
		// pristine fixture state for the next test. A test that chose
		// to finish the transaction itself is left alone.
		if err := c.Tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			c.Require().NoError(err, "rollback test transaction")
		}
		c.Tx = nil
	}

	c.Require().NoError(c.Signals.EmitPostTeardown(ctx), "post-teardown hooks")
}

// TearDownSuite truncates the tables the fixtures touched and releases
// connections. The test database itself stays in place for the next run.
func (c *Case) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if c.Tasks != nil {
		_ = c.Tasks.Close(ctx)
	}

	if c.DB != nil {
		if len(c.fixtureTables) > 0 {
			keep := c.Settings.Strings("fixtures.no_truncate", nil)
			if err := fixtures.Truncate(ctx, c.DB.Pool, c.fixtureTables, keep); err != nil {
				c.Log.Warn("truncate fixture tables", zap.Error(err))
			}
		}
		c.DB.Close()
	}

	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}

// EagerTasks returns the task queue as an *tasks.EagerQueue so tests can
// assert on executed task names.
func (c *Case) EagerTasks() *tasks.EagerQueue {
	q, ok := c.Tasks.(*tasks.EagerQueue)
	c.Require().True(ok, "task queue is not eager")
	return q
}
