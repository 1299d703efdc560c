// Package deadline содержит бизнес-логику профиля и дедлайнов
// единственного пользователя.
package deadline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/models"
	"github.com/magabrotheeeer/deadline-reminder/internal/storage/repository"
)

const profileCacheKey = "profile:current"

var (
	// ErrNoProfile профиль еще не настроен.
	ErrNoProfile = errors.New("please set up your profile in settings first")
	// ErrInvalidDueDate срок не разбирается в формате models.DueDateLayout.
	ErrInvalidDueDate = errors.New("invalid due date")
	// ErrNotFound дедлайн не найден.
	ErrNotFound = errors.New("deadline not found")
)

// Repository определяет методы хранилища, нужные сервису.
type Repository interface {
	FirstUser(ctx context.Context) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (string, error)
	UpdateUser(ctx context.Context, user models.User) error
	CreateDeadline(ctx context.Context, d models.Deadline) (int, error)
	ListDeadlinesByUser(ctx context.Context, userUID string) ([]*models.Deadline, error)
	RemoveDeadline(ctx context.Context, id int) (int, error)
}

// Cache описывает методы для кеширования профиля.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// TestMailer отправляет тестовое письмо.
type TestMailer interface {
	SendTest(recipientEmail string) error
}

// Service реализует операции над профилем и дедлайнами.
type Service struct {
	repo         Repository
	cache        Cache
	mailer       TestMailer
	defaultHours int
	profileTTL   time.Duration
	location     *time.Location
	now          func() time.Time
	log          *slog.Logger
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation задает часовой пояс, в котором вводятся сроки. По умолчанию UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, mailer TestMailer, defaultHours int, profileTTL time.Duration, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		cache:        cache,
		mailer:       mailer,
		defaultHours: defaultHours,
		profileTTL:   profileTTL,
		location:     time.UTC,
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentUser возвращает текущий профиль: сначала из кеша, затем из базы.
// Если профиля нет, возвращает ErrNoProfile.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	const op = "deadline.CurrentUser"

	var cached models.User
	found, err := s.cache.Get(ctx, profileCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read profile from cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.repo.FirstUser(ctx)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(ctx, profileCacheKey, user, s.profileTTL); err != nil {
		s.log.Warn("failed to cache profile", sl.Err(err))
	}
	return user, nil
}

// SaveProfile создает профиль или обновляет существующий.
func (s *Service) SaveProfile(ctx context.Context, req models.DummyUser) (*models.User, error) {
	const op = "deadline.SaveProfile"

	current, err := s.CurrentUser(ctx)
	switch {
	case errors.Is(err, ErrNoProfile):
		user := models.User{Name: req.Name, Email: req.Email}
		uid, err := s.repo.CreateUser(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		user.UUID = uid
		s.log.Info("profile created", slog.String("uid", uid))
		s.invalidateProfile(ctx)
		return &user, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated := *current
	updated.Name = req.Name
	updated.Email = req.Email
	if err := s.repo.UpdateUser(ctx, updated); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("profile updated", slog.String("uid", updated.UUID))
	s.invalidateProfile(ctx)
	return &updated, nil
}

func (s *Service) invalidateProfile(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, profileCacheKey); err != nil {
		s.log.Warn("failed to invalidate profile cache", sl.Err(err))
	}
}

// List возвращает дедлайны текущего пользователя по возрастанию срока.
// Без профиля список пуст.
func (s *Service) List(ctx context.Context) ([]models.DeadlineView, error) {
	const op = "deadline.List"

	user, err := s.CurrentUser(ctx)
	if errors.Is(err, ErrNoProfile) {
		return []models.DeadlineView{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	deadlines, err := s.repo.ListDeadlinesByUser(ctx, user.UUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	views := make([]models.DeadlineView, 0, len(deadlines))
	for _, d := range deadlines {
		views = append(views, models.NewDeadlineView(d, now))
	}
	return views, nil
}

// Create проверяет запрос и сохраняет дедлайн текущего пользователя.
// Неразборчивый срок отклоняется до обращения к базе.
func (s *Service) Create(ctx context.Context, req models.DummyDeadline) (int, error) {
	const op = "deadline.Create"

	due, err := time.ParseInLocation(models.DueDateLayout, req.DueDate, s.location)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDueDate, req.DueDate)
	}
	hours := s.defaultHours
	if req.ReminderHours != nil {
		hours = *req.ReminderHours
	}
	if hours < 0 {
		return 0, fmt.Errorf("%s: reminder hours must not be negative", op)
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			return 0, err
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreateDeadline(ctx, models.Deadline{
		UserUID:       user.UUID,
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       due,
		DeadlineType:  req.DeadlineType,
		ReminderHours: hours,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new deadline", slog.Int("id", id))
	return id, nil
}

// Remove удаляет дедлайн по ID.
func (s *Service) Remove(ctx context.Context, id int) error {
	const op = "deadline.Remove"

	count, err := s.repo.RemoveDeadline(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	s.log.Info("deadline removed", slog.Int("id", id))
	return nil
}

// SendTestEmail отправляет тестовое письмо на почту текущего профиля.
func (s *Service) SendTestEmail(ctx context.Context) error {
	const op = "deadline.SendTestEmail"

	user, err := s.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.mailer.SendTest(user.Email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
