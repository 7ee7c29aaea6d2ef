package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mercator-hq/parley/pkg/cli"
	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/database"
	"mercator-hq/parley/pkg/evidence/recorder"
	"mercator-hq/parley/pkg/evidence/storage"
	"mercator-hq/parley/pkg/fieldspec/graph"
	"mercator-hq/parley/pkg/limits"
	"mercator-hq/parley/pkg/specfile"
	"mercator-hq/parley/pkg/telemetry"
	"mercator-hq/parley/pkg/tool"
)

// app holds the components shared by commands that run tools.
type app struct {
	cfg       *config.Config
	telemetry *telemetry.Telemetry
	db        *sql.DB
	registry  *tool.Registry
	replay    *tool.ReplayCache
	evidence  *storage.SQLiteStorage
	recorder  *recorder.Recorder
	limits    *limits.Manager
	tieBreak  graph.TieBreak
}

// loadConfig reads the configuration file, applies environment overrides,
// and publishes the result as the process configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", "failed to load config", err)
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// appOptions selects optional app components.
type appOptions struct {
	// memoryFallback uses an empty in-memory database when none is
	// configured, so lookup rules can still be built.
	memoryFallback bool

	// record journals served calls when evidence is enabled.
	record bool

	// limit enforces call limits when they are enabled.
	limit bool
}

// newApp builds telemetry, opens the database, and prepares an empty
// registry.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	tieBreak, err := graph.ParseTieBreak(cfg.Validation.TieBreak)
	if err != nil {
		return nil, cli.NewConfigError("validation.tie_break", "invalid value", err)
	}

	tel, err := telemetry.New(&cfg.Telemetry, Version)
	if err != nil {
		return nil, cli.NewConfigError("telemetry", "failed to initialize", err)
	}

	dbCfg := cfg.Database
	if dbCfg.DSN == "" && opts.memoryFallback {
		dbCfg.DSN = ":memory:"
	}
	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &app{
		cfg:       cfg,
		telemetry: tel,
		db:        db,
		registry:  tool.NewRegistry(),
		tieBreak:  tieBreak,
	}

	if size := cfg.Validation.IdempotencyCacheSize; size > 0 {
		if a.replay, err = tool.NewReplayCache(size); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("failed to create replay cache: %w", err)
		}
	}

	if cfg.Evidence.Enabled && opts.record {
		if a.evidence, err = openEvidence(ctx, cfg, tel.Logger()); err != nil {
			a.close(ctx)
			return nil, err
		}
		a.recorder = recorder.New(a.evidence, recorder.Config{
			AsyncBuffer:  cfg.Evidence.AsyncBuffer,
			WriteTimeout: cfg.Evidence.WriteTimeout,
			RecordArgs:   cfg.Evidence.RecordArgs,
		}, tel.Logger())
		tel.Health().RegisterCheck("evidence", a.evidence.Ping)
	}

	if cfg.Limits.Enabled && opts.limit {
		a.limits = limits.NewManager(cfg.Limits,
			limits.WithMetrics(tel.Metrics()),
			limits.WithLogger(tel.Logger()),
		)
	}

	if db != nil {
		tel.Health().RegisterCheck("database", db.PingContext)
	}
	tel.Health().RegisterCheck("tools", func(context.Context) error {
		if a.registry.Len() == 0 {
			return errors.New("no tools loaded")
		}
		return nil
	})
	a.registry.OnChange(func(tools []*tool.Tool) {
		tel.Metrics().SetToolsRegistered(len(tools))
	})

	return a, nil
}

// deps returns what tool definitions are built with. Middleware runs
// tracing outermost so that log lines carry the trace ID, and the evidence
// recorder outside idempotency so that replays are recorded. Call limits run
// innermost so that replays are not counted against them.
func (a *app) deps() specfile.Deps {
	tel := a.telemetry
	mws := []tool.Middleware{
		tool.WithTracing(tel.Tracer()),
		tool.WithLogging(tel.Logger(), a.cfg.Telemetry.Logging.LogValues),
		tool.WithMetrics(tel.Metrics()),
	}
	if a.recorder != nil {
		mws = append(mws, a.recorder.Middleware())
	}
	if a.replay != nil {
		mws = append(mws, tool.WithIdempotency(a.replay))
	}
	if a.limits != nil {
		mws = append(mws, a.limits.Middleware())
	}

	return specfile.Deps{
		DB:            a.db,
		TieBreak:      a.tieBreak,
		CallTimeout:   a.cfg.Validation.CallTimeout,
		LookupRetries: a.cfg.Validation.LookupRetries,
		LookupBackoff: a.cfg.Validation.LookupBackoff,
		Middleware:    mws,
	}
}

// loadTools builds the tools in path and swaps them into the registry.
// On error the registry keeps its previous tools.
func (a *app) loadTools(path string) error {
	tools, err := specfile.LoadTools(path, a.deps())
	if err != nil {
		return err
	}
	if err := a.registry.Replace(tools...); err != nil {
		return err
	}
	if a.replay != nil {
		a.replay.Purge()
	}
	a.telemetry.Logger().Info("tools loaded", "path", path, "count", len(tools))
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.recorder != nil {
		_ = a.recorder.Close()
		if n := a.recorder.Dropped(); n > 0 {
			a.telemetry.Logger().Warn("evidence records dropped", "count", n)
		}
	}
	if a.evidence != nil {
		_ = a.evidence.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.telemetry.Logger().Warn("telemetry shutdown failed", "error", err)
	}
}
