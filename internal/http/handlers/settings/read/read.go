// Package read реализует HTTP-обработчик чтения профиля.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/deadline-reminder/internal/http/response"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/models"
	"github.com/magabrotheeeer/deadline-reminder/internal/services/deadline"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущий профиль
// @Description Возвращает профиль, на который уходят напоминания, или null.
// @Tags Settings
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /settings [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, err := h.service.CurrentUser(r.Context())
	if errors.Is(err, deadline.ErrNoProfile) {
		render.JSON(w, r, response.Response{Status: response.StatusOK})
		return
	}
	if err != nil {
		log.Error("failed to read profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read profile"))
		return
	}
	render.JSON(w, r, response.OKWithData(user))
}
