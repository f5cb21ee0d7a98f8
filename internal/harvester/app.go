// Package harvester initializes and runs the reconciliation batch job: it
// wires configuration, storage backends, the OAI-PMH client, and the
// engine, handles signals, and writes the run summary.
package harvester

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dverbeek84/oaibridge/internal/engine"
	"github.com/dverbeek84/oaibridge/internal/harvester/auth"
	"github.com/dverbeek84/oaibridge/internal/harvester/config"
	"github.com/dverbeek84/oaibridge/internal/harvester/migrations"
	"github.com/dverbeek84/oaibridge/internal/harvester/objectstore"
	"github.com/dverbeek84/oaibridge/internal/harvester/store/membernode"
	"github.com/dverbeek84/oaibridge/internal/logging"
	"github.com/dverbeek84/oaibridge/internal/oaipmh"
)

// runner is the reconciliation entry point; satisfied by *engine.Engine.
type runner interface {
	Run(ctx context.Context) (*engine.RunState, error)
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	engine runner
}

// NewApp wires every component from configuration. It opens the database,
// runs migrations, and resolves the submitter identity from the auth token
// when the configuration leaves it empty.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	settings := membernode.Settings{
		Submitter:        cfg.Submitter,
		RightsHolder:     cfg.RightsHolder,
		AuthoritativeMN:  cfg.AuthoritativeMN,
		OriginMN:         cfg.OriginMN,
		FormatID:         cfg.FormatID,
		DefaultWatermark: cfg.DefaultWatermark,
	}

	if cfg.AuthToken != "" {
		info, err := auth.ParseToken(cfg.AuthToken)
		if err != nil {
			return nil, fmt.Errorf("auth token: %w", err)
		}
		if info.Expired(time.Now()) {
			logger.Warn(ctx, "member-node auth token is expired", "subject", info.Subject)
		}
		if settings.Submitter == "" {
			settings.Submitter = info.Subject
		}
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	objects, err := objectstore.NewS3Store(ctx, objectstore.Settings{
		User:         cfg.S3RootUser,
		Password:     cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	st := membernode.New(db, objects, membernode.SystemClock(), settings, logger)
	fetcher := oaipmh.NewClient(cfg.OAIBaseURL, cfg.MetadataPrefix, cfg.IdentifierPrefix, cfg.Contact, cfg.HTTPTimeout)
	eng := engine.New(fetcher, st, logger, engine.Options{FetchRetries: cfg.FetchRetries})

	return &App{config: cfg, logger: logger, db: db, engine: eng}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run executes one reconciliation run and appends the summary line to the
// tracking log. Cancellation is run-granular: an interrupt aborts between
// store calls and the next invocation resumes from the last successful
// watermark.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	state, runErr := app.engine.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "harvest run failed", "error", runErr.Error())
	}

	// One summary line per invocation, aborted runs included: the counters
	// accumulated before the failure are still the operator's record of
	// what the run applied.
	if state != nil {
		if err := engine.WriteTrackingLog(app.config.TrackingLogPath, state, time.Now()); err != nil {
			app.logger.Error(ctx, "writing tracking log failed", "error", err.Error())
			if runErr == nil {
				return err
			}
		}
	}

	return runErr
}

// Close releases the database handle.
func (app *App) Close() error {
	return app.db.Close()
}
