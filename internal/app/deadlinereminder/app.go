package deadlinereminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/deadline-reminder/internal/cache"
	"github.com/magabrotheeeer/deadline-reminder/internal/config"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/smtp"
	"github.com/magabrotheeeer/deadline-reminder/internal/metrics"
	"github.com/magabrotheeeer/deadline-reminder/internal/migrations"
	"github.com/magabrotheeeer/deadline-reminder/internal/services/deadline"
	"github.com/magabrotheeeer/deadline-reminder/internal/services/notifier"
	"github.com/magabrotheeeer/deadline-reminder/internal/services/sweep"
	"github.com/magabrotheeeer/deadline-reminder/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App владеет HTTP-сервером, циклом напоминаний и их ресурсами.
type App struct {
	server  *http.Server
	sweeper *sweep.Sweeper
	logger  *slog.Logger
	db      *repository.Storage
	redis   *cache.Cache
	conn    *amqp.Connection
	ch      *amqp.Channel
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	var err error
	for range 10 {
		if err = repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New подключает хранилище, применяет миграции и собирает приложение.
// Redis и RabbitMQ необязательны: пустой адрес их отключает.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	a := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		a.closeResources()
		return nil, err
	}
	if err = waitForDB(ctx, db); err != nil {
		a.closeResources()
		return nil, err
	}

	var profileCache deadline.Cache = cache.Noop{}
	if cfg.AddressRedis != "" {
		a.redis, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("cache not initialized: %w", err)
		}
		profileCache = a.redis
	} else {
		logger.Info("redis address is empty, profile cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	transport := smtp.NewTransport(cfg.SMTP, cfg.SendTimeout, logger)
	mailer := smtp.NewMailer(transport, logger)
	n := notifier.New(mailer, logger)

	opts := []sweep.Option{
		sweep.WithMetrics(metrics.NewSweep(registry)),
		sweep.WithItemTimeout(cfg.SendTimeout),
	}
	if cfg.RabbitMQURL != "" {
		a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.GetReminderQueues())
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		opts = append(opts, sweep.WithPublisher(rabbitmq.NewEventPublisher(a.ch)))
	}
	a.sweeper = sweep.New(db, n, cfg.Interval, logger, opts...)

	service := deadline.New(db, profileCache, n, cfg.DefaultHours, cfg.ProfileTTL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, service, db, registry)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// Run запускает HTTP-сервер и цикл напоминаний и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.sweeper.Start(ctx)
	defer a.closeResources()
	defer a.sweeper.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database", sl.Err(err))
		}
	}
}
