package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/deadline-reminder/internal/migrations"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его UID
func (f *TestDataFactory) CreateUser(t *testing.T, name, email string) string {
	uid := uuid.NewString()
	_, err := f.storage.DB.Exec(`INSERT INTO users (uid, name, email) VALUES ($1, $2, $3)`,
		uid, name, email)
	require.NoError(t, err)
	return uid
}

// CreateDeadline создает тестовый дедлайн и возвращает его ID
func (f *TestDataFactory) CreateDeadline(t *testing.T, userUID, title string, due time.Time, hours int, sent bool) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO deadlines
		(title, due_date, deadline_type, reminder_hours, reminder_sent, user_uid)
		VALUES ($1, $2, 'exam', $3, $4, $5) RETURNING id`,
		title, due, hours, sent, userUID).Scan(&id)
	require.NoError(t, err)
	return id
}

// CountDeadlines возвращает количество дедлайнов пользователя
func (f *TestDataFactory) CountDeadlines(t *testing.T, userUID string) int {
	var count int
	err := f.storage.DB.QueryRow(`SELECT COUNT(*) FROM deadlines WHERE user_uid = $1`, userUID).Scan(&count)
	require.NoError(t, err)
	return count
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "Failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return storage, cleanup
}
