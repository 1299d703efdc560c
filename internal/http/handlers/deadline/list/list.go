// Package list реализует HTTP-обработчик списка дедлайнов текущего пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/deadline-reminder/internal/http/response"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/models"
)

// Handler отдает дедлайны с вычисляемыми полями.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения списка дедлайнов.
type Service interface {
	List(ctx context.Context) ([]models.DeadlineView, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список дедлайнов
// @Description Дедлайны текущего пользователя по возрастанию срока. Без профиля список пуст.
// @Tags Deadlines
// @Produce  json
// @Success 200 {array} models.DeadlineView
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /deadlines [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deadline.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	views, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list deadlines", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list deadlines"))
		return
	}

	log.Debug("deadlines listed", slog.Int("count", len(views)))
	render.JSON(w, r, response.OKWithData(views))
}
