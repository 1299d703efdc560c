package list

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context) ([]models.DeadlineView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeadlineView), args.Error(1)
}

func TestListHandler(t *testing.T) {
	t.Run("список дедлайнов", func(t *testing.T) {
		m := new(MockService)
		m.On("List", mock.Anything).Return([]models.DeadlineView{
			{ID: 1, Title: "Exam", TimeRemaining: "2 days"},
			{ID: 2, Title: "Old", IsOverdue: true, TimeRemaining: "Overdue"},
		}, nil).Once()

		w := httptest.NewRecorder()
		New(sl.NewDiscard(), m).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/deadlines", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Status string                `json:"status"`
			Data   []models.DeadlineView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "OK", body.Status)
		require.Len(t, body.Data, 2)
		assert.True(t, body.Data[1].IsOverdue)
		assert.Equal(t, "2 days", body.Data[0].TimeRemaining)
	})

	t.Run("ошибка сервиса", func(t *testing.T) {
		m := new(MockService)
		m.On("List", mock.Anything).Return(nil, errors.New("db error")).Once()

		w := httptest.NewRecorder()
		New(sl.NewDiscard(), m).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/deadlines", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "failed to list deadlines")
	})
}
