// Package deadlinereminder собирает HTTP-сервер и цикл напоминаний в одно приложение.
package deadlinereminder

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/deadline-reminder/internal/http/handlers/deadline/create"
	"github.com/magabrotheeeer/deadline-reminder/internal/http/handlers/deadline/list"
	"github.com/magabrotheeeer/deadline-reminder/internal/http/handlers/deadline/remove"
	"github.com/magabrotheeeer/deadline-reminder/internal/http/handlers/health"
	"github.com/magabrotheeeer/deadline-reminder/internal/http/handlers/settings/read"
	"github.com/magabrotheeeer/deadline-reminder/internal/http/handlers/settings/save"
	"github.com/magabrotheeeer/deadline-reminder/internal/http/handlers/settings/testemail"
	"github.com/magabrotheeeer/deadline-reminder/internal/http/middlewarectx"
	"github.com/magabrotheeeer/deadline-reminder/internal/services/deadline"
)

// Тестовое письмо: не чаще одного в 10 секунд, до трех подряд.
const (
	testEmailRate  = 0.1
	testEmailBurst = 3
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, service *deadline.Service, checker health.Checker, gatherer prometheus.Gatherer) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/deadlines", list.New(logger, service).ServeHTTP)
		r.Post("/deadlines", create.New(logger, service).ServeHTTP)
		r.Delete("/deadlines/{id}", remove.New(logger, service).ServeHTTP)

		r.Get("/settings", read.New(logger, service).ServeHTTP)
		r.Put("/settings", save.New(logger, service).ServeHTTP)
		r.With(middlewarectx.RateLimitMiddleware(logger, testEmailRate, testEmailBurst)).
			Post("/settings/test-email", testemail.New(logger, service).ServeHTTP)
	})

	r.Get("/health", health.New(logger, checker).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
}
