// Package sweep периодически проходит по неотправленным напоминаниям,
// отправляет те, чье окно открыто, и сразу фиксирует каждую отправку.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/deadline-reminder/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/metrics"
	"github.com/magabrotheeeer/deadline-reminder/internal/models"
	"github.com/magabrotheeeer/deadline-reminder/internal/services/reminder"
	"github.com/magabrotheeeer/deadline-reminder/internal/storage/repository"
)

// Store хранилище дедлайнов, которое нужно циклу.
type Store interface {
	ListUnremindedDeadlines(ctx context.Context) ([]*models.Deadline, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	MarkReminded(ctx context.Context, id int) error
}

// Notifier делает одну попытку доставки напоминания.
type Notifier interface {
	Deliver(recipientEmail, recipientName string, d *models.Deadline) bool
}

// EventPublisher публикует событие после фиксации отправки.
type EventPublisher interface {
	PublishReminderSent(ctx context.Context, event rabbitmq.ReminderSent) error
}

// Recorder принимает метрики прохода.
type Recorder interface {
	ObserveSweep(candidates int, took time.Duration)
	IncReminder(result string)
}

// Sweeper владеет циклом напоминаний. Между Start и Stop он раз в
// interval делает проход SweepOnce; проходы никогда не пересекаются.
type Sweeper struct {
	store       Store
	notifier    Notifier
	publisher   EventPublisher
	metrics     Recorder
	interval    time.Duration
	itemTimeout time.Duration
	now         func() time.Time
	log         *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option настраивает Sweeper.
type Option func(*Sweeper)

// WithPublisher включает публикацию событий reminder sent.
func WithPublisher(p EventPublisher) Option {
	return func(s *Sweeper) { s.publisher = p }
}

// WithMetrics включает запись метрик.
func WithMetrics(r Recorder) Option {
	return func(s *Sweeper) { s.metrics = r }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithItemTimeout ограничивает каждый отдельный вызов хранилища при обработке
// дедлайна. Доставка письма в этот лимит не входит.
func WithItemTimeout(d time.Duration) Option {
	return func(s *Sweeper) { s.itemTimeout = d }
}

// New создает новый экземпляр Sweeper.
func New(store Store, notifier Notifier, interval time.Duration, log *slog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    store,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start запускает цикл в отдельной горутине. Первый проход выполняется
// через interval после старта. Повторный вызов без Stop ничего не делает.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.log.Info("reminder sweep started", slog.Duration("interval", s.interval))
}

// Stop останавливает цикл и ждет завершения текущего прохода: начатый
// проход доходит до конца своей выборки.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("reminder sweep stopped")
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx, s.now())
		}
	}
}

// SweepOnce делает один проход на момент now: берет все неотправленные
// дедлайны и обрабатывает каждый независимо от остальных. Отмена ctx не
// прерывает проход.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) {
	const op = "sweep.SweepOnce"
	log := s.log.With(slog.String("op", op))
	started := time.Now()

	ctx = context.WithoutCancel(ctx)

	log.Debug("starting reminder sweep")
	candidates, err := s.store.ListUnremindedDeadlines(ctx)
	if err != nil {
		log.Error("failed to list unreminded deadlines", sl.Err(err))
		s.observe(0, time.Since(started))
		return
	}
	log.Debug("found unreminded deadlines", slog.Int("count", len(candidates)))

	for _, d := range candidates {
		result := s.process(ctx, now, d)
		if s.metrics != nil {
			s.metrics.IncReminder(result)
		}
	}
	s.observe(len(candidates), time.Since(started))
}

func (s *Sweeper) observe(candidates int, took time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveSweep(candidates, took)
	}
}

// process обрабатывает один дедлайн. Любая ошибка или паника остаются
// внутри и не мешают остальным кандидатам.
func (s *Sweeper) process(ctx context.Context, now time.Time, d *models.Deadline) (result string) {
	log := s.log.With(slog.Int("deadline_id", d.ID))
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing deadline", sl.Err(fmt.Errorf("%v", r)))
			result = metrics.ResultError
		}
	}()

	switch reminder.Evaluate(now, d) {
	case reminder.Wait:
		return metrics.ResultPending
	case reminder.Skip:
		return metrics.ResultSkipped
	}

	userCtx, cancel := s.storeContext(ctx)
	user, err := s.store.GetUser(userCtx, d.UserUID)
	cancel()
	if errors.Is(err, repository.ErrUserNotFound) {
		return metrics.ResultOrphan
	}
	if err != nil {
		log.Error("failed to resolve owner", sl.Err(err))
		return metrics.ResultError
	}

	if !s.notifier.Deliver(user.Email, user.Name, d) {
		return metrics.ResultFailed
	}

	// отдельный лимит: медленная доставка не должна съесть время на фиксацию
	markCtx, cancel := s.storeContext(ctx)
	err = s.store.MarkReminded(markCtx, d.ID)
	cancel()
	if err != nil {
		// письмо ушло, но отметка не сохранилась: следующий проход отправит повторно
		log.Error("failed to mark deadline reminded", sl.Err(err))
		return metrics.ResultError
	}
	log.Info("reminder sent", slog.String("title", d.Title))

	if s.publisher != nil {
		event := rabbitmq.ReminderSent{
			DeadlineID: d.ID,
			Title:      d.Title,
			Email:      user.Email,
			DueDate:    d.DueDate,
			SentAt:     now,
		}
		if err := s.publisher.PublishReminderSent(ctx, event); err != nil {
			log.Warn("failed to publish reminder event", sl.Err(err))
		}
	}
	return metrics.ResultSent
}

func (s *Sweeper) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.itemTimeout > 0 {
		return context.WithTimeout(ctx, s.itemTimeout)
	}
	return context.WithCancel(ctx)
}
