// Package app provides the shared entry point for the intentd binary: it
// loads configuration, assembles the pipeline, starts the selected
// transports, and supervises reloads until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/flemzord/intentd/internal/config"
	"github.com/flemzord/intentd/internal/descriptor"
	"github.com/flemzord/intentd/internal/executor"
	"github.com/flemzord/intentd/internal/gateway"
	"github.com/flemzord/intentd/internal/mcpserver"
	"github.com/flemzord/intentd/internal/router"
	"github.com/flemzord/intentd/internal/security"
	"github.com/flemzord/intentd/internal/stdio"
)

// Transport selects which adapter Run serves.
type Transport string

// Available transports.
const (
	TransportHTTP  Transport = "http"
	TransportStdio Transport = "stdio"
	TransportMCP   Transport = "mcp"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Transport selects the serving mode. Defaults to TransportHTTP.
	Transport Transport

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// Run loads configuration, starts the selected transport, and blocks until
// a shutdown signal is received or the transport's stream ends. SIGHUP and
// descriptor directory changes trigger a live descriptor reload.
func Run(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	rt, err := buildRuntime(cfg, params.LogLevel)
	if err != nil {
		return err
	}
	defer rt.close()

	logger := rt.logger

	shutdownTracing, err := setupTracing(context.Background(), cfg.Telemetry, params.Version)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("trace exporter shutdown failed", "error", err)
		}
	}()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	watcher := descriptor.NewWatcher(descriptor.WatcherConfig{
		Dir:            cfg.Descriptors.Dir,
		PollInterval:   cfg.Descriptors.PollInterval,
		RescanSchedule: cfg.Descriptors.RescanSchedule,
	})
	if err := watcher.Start(watchCtx); err != nil {
		return err
	}
	defer watcher.Stop()

	switch params.Transport {
	case TransportStdio:
		return rt.serveStdio(watchCtx, watcher)
	case TransportMCP:
		return rt.serveMCP(watchCtx, params.Version, watcher)
	default:
		return rt.serveHTTP(watcher)
	}
}

// runtime holds the assembled pipeline shared by all transports.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	redactor *security.Redactor
	audit    *security.AuditLogger
	limiter  *security.RateLimiter
	store    *descriptor.Store
	router   *router.Router

	closers []func() error
}

// buildRuntime assembles the pipeline from a validated config: redacting
// logger, audit sinks, rate limiter, descriptor store, runner, and router.
func buildRuntime(cfg *config.Config, level slog.Level) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	rt.redactor = security.NewRedactor()
	// Spawned commands inherit this environment; secret-named variables
	// must never echo back into logs or the audit trail.
	rt.redactor.AddEnvSecrets(os.Environ())
	if cfg.Security != nil {
		for _, pattern := range cfg.Security.RedactPatterns {
			// Validate already compiled these once.
			rt.redactor.AddPattern(regexp.MustCompile(pattern))
		}
	}

	innerHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	rt.logger = slog.New(security.NewRedactingHandler(innerHandler, rt.redactor))

	auditCfg := security.AuditLoggerConfig{Redactor: rt.redactor}
	if cfg.Security != nil && cfg.Security.Audit != nil {
		if path := cfg.Security.Audit.File; path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return nil, fmt.Errorf("app: opening audit file: %w", err)
			}
			auditCfg.Writer = f
			rt.closers = append(rt.closers, f.Close)
		}
		if path := cfg.Security.Audit.Database; path != "" {
			store, err := security.OpenAuditStore(path)
			if err != nil {
				return nil, fmt.Errorf("app: opening audit database: %w", err)
			}
			auditCfg.Sink = store
			rt.closers = append(rt.closers, store.Close)
		}
	}
	rt.audit = security.NewAuditLogger(auditCfg)

	var limits security.RateLimitConfig
	if cfg.Security != nil {
		limits = cfg.Security.RateLimits
	}
	rt.limiter = security.NewRateLimiter(limits)

	store, err := descriptor.Open(cfg.Descriptors.Dir, rt.logger)
	if err != nil {
		return nil, err
	}
	rt.store = store

	runner := executor.NewRunner(cfg.Executor.Shell, cfg.Executor.Timeout, cfg.Executor.Grace)

	rt.router = router.New(router.Options{
		Catalog: store,
		Runner:  runner,
		Audit:   rt.audit,
		Limiter: rt.limiter,
		Logger:  rt.logger,
	})

	return rt, nil
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("close failed during shutdown", "error", err)
		}
	}
}

// serveHTTP runs the gateway until a shutdown signal arrives, reloading
// descriptors on SIGHUP and watcher events.
func (rt *runtime) serveHTTP(watcher *descriptor.Watcher) error {
	if rt.cfg.Gateway == nil {
		return fmt.Errorf("app: http transport selected but gateway is not configured")
	}

	gw := gateway.New(*rt.cfg.Gateway, rt.router, rt.limiter, rt.logger)
	if err := gw.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				rt.logger.Info("SIGHUP received, reloading descriptors")
				rt.reloadDescriptors()
				continue
			}
			rt.logger.Info("shutdown signal received", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := gw.Stop(ctx); err != nil {
				rt.logger.Warn("gateway shutdown incomplete", "error", err)
			}
			rt.logger.Info("shutdown complete")
			return nil
		case evt := <-watcher.Events():
			rt.logger.Info("descriptor change detected", "type", evt.Type, "dir", evt.Dir)
			rt.reloadDescriptors()
		}
	}
}

// serveStdio runs the newline-delimited JSON loop on stdin/stdout until EOF.
// Descriptor reloads still apply between requests.
func (rt *runtime) serveStdio(ctx context.Context, watcher *descriptor.Watcher) error {
	go rt.reloadLoop(ctx, watcher)
	srv := stdio.New(rt.router, rt.logger)
	return srv.Serve(ctx, os.Stdin, os.Stdout)
}

// serveMCP runs the Model Context Protocol adapter on stdin/stdout.
func (rt *runtime) serveMCP(ctx context.Context, version string, watcher *descriptor.Watcher) error {
	go rt.reloadLoop(ctx, watcher)
	srv := mcpserver.New(rt.router, version, rt.logger)
	return srv.ServeStdio(ctx)
}

func (rt *runtime) reloadLoop(ctx context.Context, watcher *descriptor.Watcher) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			rt.logger.Info("SIGHUP received, reloading descriptors")
			rt.reloadDescriptors()
		case evt := <-watcher.Events():
			rt.logger.Info("descriptor change detected", "type", evt.Type, "dir", evt.Dir)
			rt.reloadDescriptors()
		}
	}
}

// reloadDescriptors swaps in the rescanned descriptor set. A failed rescan
// keeps the previous set serving.
func (rt *runtime) reloadDescriptors() {
	if err := rt.store.Reload(); err != nil {
		rt.logger.Error("descriptor reload failed, keeping previous set", "error", err)
	}
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/intentd/intentd.yaml →
// ~/.config/intentd/intentd.yaml → /etc/intentd/intentd.yaml → ./intentd.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "intentd", "intentd.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "intentd", "intentd.yaml"))
	}

	candidates = append(candidates,
		filepath.Join("/etc", "intentd", "intentd.yaml"),
		"intentd.yaml",
	)

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
