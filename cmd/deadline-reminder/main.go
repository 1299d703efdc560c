// Package main Deadline Reminder API
//
// @title           Deadline Reminder API
// @version         1.0
// @description     API для управления дедлайнами и настройками напоминаний

// @host      localhost:8080
// @BasePath  /api/v1
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/magabrotheeeer/deadline-reminder/docs"
	"github.com/magabrotheeeer/deadline-reminder/internal/app/deadlinereminder"
	"github.com/magabrotheeeer/deadline-reminder/internal/config"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env)

	logger.Info("starting deadline-reminder", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := deadlinereminder.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("deadline-reminder stopped gracefully")
}
