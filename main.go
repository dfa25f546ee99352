package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kisanrakshak/internal/config"
	"kisanrakshak/internal/logging"
	"kisanrakshak/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(appConfig.Logging, appConfig.Server.Development)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, appConfig, logger); err != nil {
		logger.Error("server exited", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}
