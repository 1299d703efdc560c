// Package create реализует HTTP-обработчик создания дедлайна.
//
// Handler принимает JSON с данными дедлайна, валидирует его и передает в сервис.
// Срок разбирается в сервисе: неразборчивая дата отклоняется до записи в базу.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/deadline-reminder/internal/http/response"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/models"
	"github.com/magabrotheeeer/deadline-reminder/internal/services/deadline"
)

// Handler управляет HTTP-запросами на создание дедлайнов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания дедлайна.
type Service interface {
	Create(ctx context.Context, req models.DummyDeadline) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать дедлайн
// @Description Создает дедлайн текущего пользователя. Срок в формате 2006-01-02T15:04, reminder_hours по умолчанию 24.
// @Tags Deadlines
// @Accept  json
// @Produce  json
// @Param request body models.DummyDeadline true "Данные дедлайна"
// @Success 201 {object} response.Response "ID созданного дедлайна"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или дата"
// @Failure 409 {object} response.ErrorResponse "Профиль не настроен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /deadlines [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deadline.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyDeadline
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		render.Status(r, http.StatusUnprocessableEntity)
		if errors.As(err, &verrs) {
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	id, err := h.service.Create(r.Context(), req)
	switch {
	case errors.Is(err, deadline.ErrInvalidDueDate):
		log.Warn("invalid due date", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid due_date, expected format 2006-01-02T15:04"))
		return
	case errors.Is(err, deadline.ErrNoProfile):
		log.Warn("profile is not configured")
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(deadline.ErrNoProfile.Error()))
		return
	case err != nil:
		log.Error("failed to create deadline", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create deadline"))
		return
	}

	log.Info("deadline created", slog.Int("id", id))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}
