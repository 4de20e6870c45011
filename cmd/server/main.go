package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gianmarcomichelini/data-privacy-toolkit/internal/hierarchy"
	"github.com/gianmarcomichelini/data-privacy-toolkit/internal/server"
)

func main() {
	config := ParseFlags()

	logger := setupLogger(config.LogLevel, config.LogFormat)

	logger.WithFields(logrus.Fields{
		"version":   Version,
		"commit":    GitCommit,
		"buildDate": BuildDate,
	}).Info("Starting Tabular Data Anonymization Server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	svc := server.New(&server.Config{
		Host:            config.Host,
		Port:            config.Port,
		ReadTimeout:     server.DefaultConfig().ReadTimeout,
		WriteTimeout:    server.DefaultConfig().WriteTimeout,
		IdleTimeout:     server.DefaultConfig().IdleTimeout,
		ShutdownTimeout: server.DefaultConfig().ShutdownTimeout,
	}, hierarchy.AdultCensus(), logger)

	if err := svc.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set log format
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
