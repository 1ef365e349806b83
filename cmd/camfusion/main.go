package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"camfusion/internal/app"
	"camfusion/internal/config"
	"camfusion/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to start: %v", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		appLogger.Error("Stopped with error: %v", err)
		application.Close()
		os.Exit(1)
	}
}
