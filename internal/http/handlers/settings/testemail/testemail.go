// Package testemail реализует HTTP-обработчик отправки тестового письма.
// В отличие от цикла напоминаний, ошибка транспорта возвращается пользователю.
package testemail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/deadline-reminder/internal/http/response"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/services/deadline"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	SendTestEmail(ctx context.Context) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отправить тестовое письмо
// @Tags Settings
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Профиль не настроен"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 502 {object} response.ErrorResponse "Почтовый сервер отклонил письмо"
// @Router /settings/test-email [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.testemail"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	err := h.service.SendTestEmail(r.Context())
	if errors.Is(err, deadline.ErrNoProfile) {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(deadline.ErrNoProfile.Error()))
		return
	}
	if err != nil {
		log.Error("failed to send test email", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to send test email. Check your email settings"))
		return
	}

	log.Info("test email sent")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "test email sent successfully",
	}))
}
