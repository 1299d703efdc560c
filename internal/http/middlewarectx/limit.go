// Package middlewarectx содержит HTTP-middleware приложения.
package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/deadline-reminder/internal/http/response"
)

// RateLimitMiddleware ограничивает частоту запросов к маршруту:
// не больше r в секунду с запасом burst.
func RateLimitMiddleware(log *slog.Logger, r rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(r, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				log.Warn("too many requests",
					slog.String("path", req.URL.Path),
					slog.String("request_id", middleware.GetReqID(req.Context())),
				)
				render.Status(req, http.StatusTooManyRequests)
				render.JSON(w, req, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
