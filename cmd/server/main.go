package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/thisisjab/telemeter/api"
	"github.com/thisisjab/telemeter/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("cannot load config.", "error", err)
		os.Exit(1)
	}

	st, logger, err := cfg.Parse()
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("cannot parse config.", "error", err)
		os.Exit(1)
	}

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			logger.Error("server panic", "error", r)
		}
	}()

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	if err := st.Connect(ctx); err != nil {
		logger.Error("cannot connect to storage.", "error", err)
		os.Exit(1)
	}
	defer st.Close(ctx) //nolint:errcheck

	// Config changes are logged; settings apply on restart.
	go func() {
		if err := config.Watch(ctx, logger, *configPath, func(config.Config) {
			logger.Warn("config changed. restart to apply.")
		}); err != nil && ctx.Err() == nil {
			logger.Error("config watcher stopped.", "error", err)
		}
	}()

	server, err := api.NewServer(cfg.API, logger, st)
	if err != nil {
		logger.Error("server error.", "error", err)
		os.Exit(1)
	}

	if err := server.Serve(ctx); err != nil {
		logger.Error("server error.", "error", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("server stopped.")
}
