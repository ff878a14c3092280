package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/psantana5/timekeeper/pkg/api"
	"github.com/psantana5/timekeeper/pkg/auth"
	"github.com/psantana5/timekeeper/pkg/metrics"
	"github.com/psantana5/timekeeper/pkg/ratelimit"
	"github.com/psantana5/timekeeper/pkg/report"
	"github.com/psantana5/timekeeper/pkg/shutdown"
	"github.com/psantana5/timekeeper/pkg/timekeeper"
	tlsutil "github.com/psantana5/timekeeper/pkg/tls"
	"github.com/psantana5/timekeeper/pkg/tracing"
)

const limiterIdleTimeout = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timekeeper HTTP API",
	Long: `Runs an HTTP API controlling one timekeeper. On SIGINT or SIGTERM the server
stops accepting requests, stops every running timing and logs it.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	logger, err := newLogger(cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	defer logger.Close()

	provider, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		Enabled:        cfg.Tracing.Enabled,
	}, logger)
	if err != nil {
		return err
	}

	opts := []timekeeper.Option{}
	routerOpts := api.RouterOptions{Logger: logger}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, timekeeper.WithObserver(metrics.NewExporter(reg, cfg.Label)))
		routerOpts.Metrics = metrics.Handler(reg)
		routerOpts.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, timekeeper.WithObserver(tracing.NewSpanObserver(provider)))
		routerOpts.Tracing = provider
	}
	if cfg.RateLimit.Enabled {
		routerOpts.Limiter = ratelimit.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if cfg.Auth.APIKeyHash != "" {
		routerOpts.Authenticator = auth.NewAuthenticator(cfg.Auth.APIKeyHash)
	} else {
		logger.Warn("No auth.api_key_hash configured, the API is unauthenticated")
	}

	tk := timekeeper.New(cfg.Label, opts...)
	router := api.NewRouter(api.NewHandler(tk, logger), routerOpts)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	useTLS := cfg.Server.TLSCertFile != ""
	if useTLS {
		if srv.TLSConfig, err = tlsutil.LoadServerConfig(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	cleanupCtx, stopCleanup := context.WithCancel(ctx)

	// Run in reverse: server, cleanup loop, timings, tracing
	mgr := shutdown.New(cfg.Server.ShutdownTimeout, logger)
	mgr.Register("tracing", provider.Shutdown)
	mgr.Register("timings", shutdown.StopTimings(report.NewPrinter(tk, logger)))
	mgr.Register("rate limiter cleanup", func(context.Context) error {
		stopCleanup()
		return nil
	})
	mgr.Register("http server", shutdown.StopHTTPServer(srv))

	logger.Info("Timekeeper server listening", map[string]interface{}{
		"addr":    cfg.Server.Addr,
		"label":   cfg.Label,
		"metrics": cfg.Metrics.Enabled,
		"tracing": cfg.Tracing.Enabled,
		"tls":     useTLS,
	})

	g.Go(func() error {
		var err error
		if useTLS {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if routerOpts.Limiter != nil {
			cleanupLimiters(cleanupCtx, routerOpts.Limiter)
		}
		return nil
	})
	g.Go(func() error {
		mgr.Wait(ctx)
		if failed := mgr.Shutdown(); failed > 0 {
			return fmt.Errorf("%d shutdown steps failed", failed)
		}
		return nil
	})

	return g.Wait()
}

func cleanupLimiters(ctx context.Context, l *ratelimit.Limiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.CleanupOldLimiters(limiterIdleTimeout)
		}
	}
}
