package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"yashubustudio/sentiment/internal/config"
	"yashubustudio/sentiment/internal/logging"
	"yashubustudio/sentiment/internal/server"
	"yashubustudio/sentiment/sentiment"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupPredictor(cfg *config.Config) (*sentiment.Predictor, sentiment.Classifier) {
	modelCfg, err := sentiment.LoadConfig(cfg.ConfigPath)
	if err != nil {
		slog.Error("Failed to load model config", "path", cfg.ConfigPath, "error", err)
		os.Exit(1)
	}
	cfg.ApplyModelOverrides(&modelCfg)

	normalizer, err := sentiment.LoadNormalizer(modelCfg.Resources)
	if err != nil {
		slog.Error("Failed to load linguistic resources", "error", err)
		os.Exit(1)
	}

	classifier, err := sentiment.LoadClassifier(modelCfg.Model)
	if err != nil {
		slog.Error("Failed to load classification artifact", "path", modelCfg.Model.Path, "error", err)
		os.Exit(1)
	}
	slog.Info("Classification artifact loaded", "model", classifier.ModelID(), "path", modelCfg.Model.Path)

	predictor, err := sentiment.NewPredictor(classifier, normalizer, logging.Logger.With("component", "predictor"))
	if err != nil {
		_ = classifier.Close()
		slog.Error("Failed to create predictor", "error", err)
		os.Exit(1)
	}
	return predictor, classifier
}

func runGracefulShutdown(srv *server.Server, cfg *config.Config) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	predictor, classifier := setupPredictor(cfg)
	defer func() {
		if err := classifier.Close(); err != nil {
			slog.Error("Failed to release classifier", "error", err)
		}
	}()

	srv, err := server.NewServer(cfg, predictor, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, cfg)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
