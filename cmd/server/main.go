package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flightsurety/internal/platform/config"
	"flightsurety/internal/platform/logger"
)

// main loads configuration and hands off to run; everything else lives in
// app.go so the lifecycle stays testable without a process.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
