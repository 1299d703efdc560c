// Package remove реализует HTTP-обработчик удаления дедлайна.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
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
	Remove(ctx context.Context, id int) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить дедлайн
// @Tags Deadlines
// @Produce  json
// @Param id path int true "ID дедлайна"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Дедлайн не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /deadlines/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deadline.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid id format", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	err = h.service.Remove(r.Context(), id)
	if errors.Is(err, deadline.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("deadline not found"))
		return
	}
	if err != nil {
		log.Error("failed to delete deadline", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete deadline"))
		return
	}

	log.Info("deadline deleted", slog.Int("id", id))
	render.JSON(w, r, response.OK())
}
