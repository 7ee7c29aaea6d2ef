package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mercator-hq/parley/pkg/cli"
	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/evidence/retention"
	"mercator-hq/parley/pkg/mcpserver"
	"mercator-hq/parley/pkg/security/auth"
	sectls "mercator-hq/parley/pkg/security/tls"
	"mercator-hq/parley/pkg/specfile"
	"mercator-hq/parley/pkg/telemetry/logging"
	"mercator-hq/parley/pkg/telemetry/tracing"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveFlags struct {
	tools     string
	transport string
	listen    string
	watch     bool
	dryRun    bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tools over the Model Context Protocol",
	Long: `Serve the tools declared in the tools file to MCP clients.

With the stdio transport the process is meant to be launched by an agent
host. With the sse transport an HTTP server is started that also exposes
/healthz, /readyz, /version and, when enabled, the metrics endpoint.

Examples:
  # Serve over stdio
  parley serve --tools tools.yaml

  # Serve over SSE and reload tools when the file changes
  parley serve --transport sse --listen 127.0.0.1:8081 --watch

  # Validate config and tools without serving
  parley serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.tools, "tools", "t", "", "override tools file")
	serveCmd.Flags().StringVar(&serveFlags.transport, "transport", "", "override transport (stdio, sse)")
	serveCmd.Flags().StringVarP(&serveFlags.listen, "listen", "l", "", "override SSE listen address")
	serveCmd.Flags().BoolVarP(&serveFlags.watch, "watch", "w", false, "reload tools when the file changes")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "load config and tools, then exit")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.tools != "" {
		cfg.Tools.File = serveFlags.tools
	}
	if serveFlags.transport != "" {
		cfg.Server.Transport = serveFlags.transport
	}
	if serveFlags.listen != "" {
		cfg.Server.ListenAddress = serveFlags.listen
		cfg.Server.BaseURL = ""
	}
	if serveFlags.watch {
		cfg.Tools.Watch = true
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", "invalid flag overrides", err)
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{record: true, limit: true})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		a.close(shutdownCtx)
	}()

	if err := a.loadTools(cfg.Tools.File); err != nil {
		return cli.NewCommandError("serve", err)
	}
	logger := a.telemetry.Logger()
	transportOpts, err := sseSecurity(ctx, cfg.Server, logger)
	if err != nil {
		return err
	}
	if serveFlags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid, %d tool(s) loaded\n", a.registry.Len())
		return nil
	}

	opts := []mcpserver.Option{
		mcpserver.WithLogger(logger),
		mcpserver.WithMount(a.telemetry.Mount),
		mcpserver.WithHTTPMiddleware(tracing.HTTPMiddleware),
	}
	srv, err := mcpserver.New(cfg.Server, a.registry, append(opts, transportOpts...)...)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	// The server ending, for example on stdin EOF, stops everything else.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return srv.Serve(gctx)
	})

	if cfg.Tools.Watch {
		watcher, err := specfile.NewWatcher(cfg.Tools.File, cfg.Tools.Debounce, logger)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer watcher.Stop()
		g.Go(func() error {
			return watcher.Watch(gctx, func() error {
				return a.loadTools(cfg.Tools.File)
			})
		})
	}

	if a.evidence != nil {
		pruner := retention.NewPruner(a.evidence, retention.Config{
			Days:          cfg.Evidence.Retention.Days,
			MaxRecords:    cfg.Evidence.Retention.MaxRecords,
			PruneSchedule: cfg.Evidence.Retention.PruneSchedule,
		}, logger)
		g.Go(func() error {
			return retention.NewScheduler(pruner).Run(gctx)
		})
	}

	// Over stdio there is no HTTP server to carry metrics and health.
	if cfg.Server.Transport == config.TransportStdio && cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.ListenAddress != "" {
		g.Go(func() error {
			return serveTelemetry(gctx, a, cfg.Telemetry.Metrics.ListenAddress, cfg.Server.ShutdownTimeout)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("serve", err)
	}
	return nil
}

// sseSecurity returns the API key and TLS options for the SSE transport.
// Over stdio the host process owns the channel and both are ignored.
func sseSecurity(ctx context.Context, cfg config.ServerConfig, logger *logging.Logger) ([]mcpserver.Option, error) {
	if cfg.Transport != config.TransportSSE {
		if cfg.Auth.Enabled || cfg.TLS.Enabled {
			logger.Warn("auth and tls apply to the sse transport only", "transport", cfg.Transport)
		}
		return nil, nil
	}

	var opts []mcpserver.Option
	if cfg.Auth.Enabled {
		validator, err := auth.NewAPIKeyValidatorFromConfig(cfg.Auth)
		if err != nil {
			return nil, cli.NewConfigError("server.auth.keys", "failed to load API keys", err)
		}
		mw := auth.NewAPIKeyMiddleware(validator, cfg.Auth.Sources, logger)
		opts = append(opts, mcpserver.WithAuth(mw.Handle))
		logger.Info("API key authentication enabled", "keys", validator.Len())
	}

	tlsConfig, err := sectls.NewServerConfig(ctx, cfg.TLS, logger)
	if err != nil {
		return nil, cli.NewConfigError("server.tls", "failed to load certificate", err)
	}
	if tlsConfig != nil {
		opts = append(opts, mcpserver.WithTLS(tlsConfig))
	}
	return opts, nil
}

func serveTelemetry(ctx context.Context, a *app, addr string, shutdownTimeout time.Duration) error {
	mux := http.NewServeMux()
	a.telemetry.Mount(mux)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mcpserver.RequestIDMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.telemetry.Logger().Info("serving telemetry", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("telemetry server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
