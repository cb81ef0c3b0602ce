package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quietride.org/internal/appconf"
	"quietride.org/internal/logging"
)

// flags are the command-line overrides of the config file.
type flags struct {
	configPath string
	port       int
	env        string
	logLevel   string
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "config.yaml", "Path to the YAML configuration file")
	fs.IntVar(&f.port, "port", 0, "API server port (overrides server.port)")
	fs.StringVar(&f.env, "env", "", "Environment (development|test|staging|production), overrides server.env")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

// apply lets flags win over file values.
func (f flags) apply(cfg *appconf.Config) {
	if f.port > 0 {
		cfg.Server.Port = f.port
	}
	if f.env != "" {
		cfg.Server.Env = f.env
		cfg.Env = appconf.EnvFlagToEnvironment(f.env)
	}
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(f.logLevel))
	slog.SetDefault(logger)

	cfg, err := appconf.Load(f.configPath)
	if err != nil {
		logging.LogError(logger, "failed to load configuration", err, slog.String("path", f.configPath))
		os.Exit(1)
	}
	f.apply(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logging.LogError(logger, "server stopped with error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, cfg *appconf.Config, logger *slog.Logger) error {
	svc, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.shutdown()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      svc.handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "starting_server",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env.String()),
			slog.Int("routes", len(cfg.Routes)))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.LogOperation(logger, "shutdown_signal_received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logging.LogOperation(logger, "server_shut_down")
	return nil
}
