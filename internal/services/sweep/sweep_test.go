package sweep

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/deadline-reminder/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/metrics"
	"github.com/magabrotheeeer/deadline-reminder/internal/models"
	"github.com/magabrotheeeer/deadline-reminder/internal/storage/repository"
)

// memStore хранилище в памяти с теми же правилами, что и postgres:
// отсутствие пользователя дает ErrUserNotFound, истекший контекст - ошибку.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	deadlines map[int]*models.Deadline
	marks     []int
	listErr   error
	markErr   error
	userErr   map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*models.User{},
		deadlines: map[int]*models.Deadline{},
		userErr:   map[string]error{},
	}
}

func (s *memStore) ListUnremindedDeadlines(_ context.Context) ([]*models.Deadline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	ids := make([]int, 0, len(s.deadlines))
	for id := range s.deadlines {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var out []*models.Deadline
	for _, id := range ids {
		if d := s.deadlines[id]; !d.ReminderSent {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.userErr[userUID]; err != nil {
		return nil, err
	}
	u, ok := s.users[userUID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) MarkReminded(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	d, ok := s.deadlines[id]
	if !ok {
		return repository.ErrDeadlineNotFound
	}
	d.ReminderSent = true
	s.marks = append(s.marks, id)
	return nil
}

func (s *memStore) sent(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadlines[id].ReminderSent
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Deliver(recipientEmail, recipientName string, d *models.Deadline) bool {
	args := m.Called(recipientEmail, recipientName, d.ID)
	return args.Bool(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishReminderSent(ctx context.Context, event rabbitmq.ReminderSent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type panicNotifier struct {
	panicOn int
	mu      sync.Mutex
	seen    []int
}

func (p *panicNotifier) Deliver(_, _ string, d *models.Deadline) bool {
	p.mu.Lock()
	p.seen = append(p.seen, d.ID)
	p.mu.Unlock()
	if d.ID == p.panicOn {
		panic("boom")
	}
	return true
}

// funcNotifier доставка через произвольную функцию.
type funcNotifier struct {
	mu    sync.Mutex
	calls []int
	fn    func(d *models.Deadline) bool
}

func (f *funcNotifier) Deliver(_, _ string, d *models.Deadline) bool {
	f.mu.Lock()
	f.calls = append(f.calls, d.ID)
	f.mu.Unlock()
	return f.fn(d)
}

func (f *funcNotifier) delivered() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

var base = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func seed(s *memStore) {
	s.users["u1"] = &models.User{UUID: "u1", Name: "Ada", Email: "ada@example.com"}
	// окно открыто: срок через час, напоминание за 24 часа
	s.deadlines[1] = &models.Deadline{ID: 1, UserUID: "u1", Title: "Exam", DueDate: base.Add(time.Hour), ReminderHours: 24}
	// окно еще не открылось
	s.deadlines[2] = &models.Deadline{ID: 2, UserUID: "u1", Title: "Essay", DueDate: base.Add(72 * time.Hour), ReminderHours: 24}
	// срок прошел
	s.deadlines[3] = &models.Deadline{ID: 3, UserUID: "u1", Title: "Old", DueDate: base.Add(-time.Hour), ReminderHours: 24}
}

func TestSweepOnce_SendsOnlyOpenWindows(t *testing.T) {
	store := newMemStore()
	seed(store)
	n := new(MockNotifier)
	n.On("Deliver", "ada@example.com", "Ada", 1).Return(true).Once()

	s := New(store, n, time.Minute, sl.NewDiscard())
	s.SweepOnce(context.Background(), base)

	n.AssertExpectations(t)
	assert.True(t, store.sent(1))
	assert.False(t, store.sent(2))
	assert.False(t, store.sent(3), "overdue deadlines are never marked")
	assert.Equal(t, []int{1}, store.marks)
}

func TestSweepOnce_Idempotent(t *testing.T) {
	store := newMemStore()
	seed(store)
	n := new(MockNotifier)
	n.On("Deliver", "ada@example.com", "Ada", 1).Return(true).Once()

	s := New(store, n, time.Minute, sl.NewDiscard())
	s.SweepOnce(context.Background(), base)
	s.SweepOnce(context.Background(), base.Add(time.Minute))

	n.AssertNumberOfCalls(t, "Deliver", 1)
	assert.Equal(t, []int{1}, store.marks)
}

func TestSweepOnce_RetryAfterFailure(t *testing.T) {
	store := newMemStore()
	store.users["u1"] = &models.User{UUID: "u1", Name: "Ada", Email: "ada@example.com"}
	store.deadlines[1] = &models.Deadline{ID: 1, UserUID: "u1", Title: "Exam", DueDate: base.Add(10 * time.Hour), ReminderHours: 24}

	n := new(MockNotifier)
	n.On("Deliver", "ada@example.com", "Ada", 1).Return(false).Once()
	n.On("Deliver", "ada@example.com", "Ada", 1).Return(true).Once()

	s := New(store, n, 5*time.Minute, sl.NewDiscard())

	s.SweepOnce(context.Background(), base)
	assert.False(t, store.sent(1), "failed delivery must leave the deadline unreminded")

	s.SweepOnce(context.Background(), base.Add(5*time.Minute))
	assert.True(t, store.sent(1))
	n.AssertExpectations(t)
}

func TestSweepOnce_ZeroHourWindow(t *testing.T) {
	store := newMemStore()
	store.users["u1"] = &models.User{UUID: "u1", Name: "Ada", Email: "ada@example.com"}
	store.deadlines[1] = &models.Deadline{ID: 1, UserUID: "u1", Title: "Now", DueDate: base, ReminderHours: 0}

	n := new(MockNotifier)
	n.On("Deliver", "ada@example.com", "Ada", 1).Return(true).Once()

	s := New(store, n, time.Minute, sl.NewDiscard())
	s.SweepOnce(context.Background(), base.Add(-time.Second))
	assert.False(t, store.sent(1))

	s.SweepOnce(context.Background(), base)
	assert.True(t, store.sent(1))
	n.AssertExpectations(t)
}

func TestSweepOnce_Isolation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(store *memStore) Notifier
	}{
		{
			name: "panic in notifier",
			setup: func(store *memStore) Notifier {
				return &panicNotifier{panicOn: 1}
			},
		},
		{
			name: "owner lookup error",
			setup: func(store *memStore) Notifier {
				store.deadlines[1].UserUID = "broken"
				store.userErr["broken"] = errors.New("connection reset")
				n := new(MockNotifier)
				n.On("Deliver", "ada@example.com", "Ada", 2).Return(true).Once()
				return n
			},
		},
		{
			name: "orphan deadline",
			setup: func(store *memStore) Notifier {
				store.deadlines[1].UserUID = "ghost"
				n := new(MockNotifier)
				n.On("Deliver", "ada@example.com", "Ada", 2).Return(true).Once()
				return n
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.users["u1"] = &models.User{UUID: "u1", Name: "Ada", Email: "ada@example.com"}
			store.deadlines[1] = &models.Deadline{ID: 1, UserUID: "u1", Title: "A", DueDate: base.Add(time.Hour), ReminderHours: 24}
			store.deadlines[2] = &models.Deadline{ID: 2, UserUID: "u1", Title: "B", DueDate: base.Add(2 * time.Hour), ReminderHours: 24}

			n := tt.setup(store)
			s := New(store, n, time.Minute, sl.NewDiscard())

			require.NotPanics(t, func() { s.SweepOnce(context.Background(), base) })
			assert.False(t, store.sent(1))
			assert.True(t, store.sent(2))
		})
	}
}

func TestSweepOnce_ListError(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("db down")
	n := new(MockNotifier)

	reg := prometheus.NewRegistry()
	m := metrics.NewSweep(reg)
	s := New(store, n, time.Minute, sl.NewDiscard(), WithMetrics(m))

	require.NotPanics(t, func() { s.SweepOnce(context.Background(), base) })
	n.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)

	count, err := testutil.GatherAndCount(reg, "deadline_reminder_sweeps_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSweepOnce_MarkErrorDoesNotPublish(t *testing.T) {
	store := newMemStore()
	seed(store)
	store.markErr = errors.New("write failed")

	n := new(MockNotifier)
	n.On("Deliver", "ada@example.com", "Ada", 1).Return(true).Once()
	p := new(MockPublisher)

	s := New(store, n, time.Minute, sl.NewDiscard(), WithPublisher(p))
	s.SweepOnce(context.Background(), base)

	assert.False(t, store.sent(1))
	p.AssertNotCalled(t, "PublishReminderSent", mock.Anything, mock.Anything)
}

func TestSweepOnce_PublishesAfterCommit(t *testing.T) {
	tests := []struct {
		name       string
		publishErr error
	}{
		{name: "publish ok"},
		{name: "publish failure keeps commit", publishErr: errors.New("broker gone")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seed(store)

			n := new(MockNotifier)
			n.On("Deliver", "ada@example.com", "Ada", 1).Return(true).Once()

			p := new(MockPublisher)
			p.On("PublishReminderSent", mock.Anything, mock.MatchedBy(func(e rabbitmq.ReminderSent) bool {
				return e.DeadlineID == 1 && e.Email == "ada@example.com" && e.SentAt.Equal(base)
			})).Run(func(mock.Arguments) {
				assert.True(t, store.sent(1), "event must follow the commit")
			}).Return(tt.publishErr).Once()

			s := New(store, n, time.Minute, sl.NewDiscard(), WithPublisher(p))
			s.SweepOnce(context.Background(), base)

			assert.True(t, store.sent(1))
			p.AssertExpectations(t)
		})
	}
}

func TestSweepOnce_Metrics(t *testing.T) {
	store := newMemStore()
	seed(store)
	store.deadlines[4] = &models.Deadline{ID: 4, UserUID: "ghost", Title: "Orphan", DueDate: base.Add(time.Hour), ReminderHours: 24}

	n := new(MockNotifier)
	n.On("Deliver", "ada@example.com", "Ada", 1).Return(true).Once()

	reg := prometheus.NewRegistry()
	s := New(store, n, time.Minute, sl.NewDiscard(), WithMetrics(metrics.NewSweep(reg)))
	s.SweepOnce(context.Background(), base)

	families, err := reg.Gather()
	require.NoError(t, err)
	results := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "deadline_reminder_reminders_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			results[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{
		metrics.ResultSent:    1,
		metrics.ResultPending: 1,
		metrics.ResultSkipped: 1,
		metrics.ResultOrphan:  1,
	}, results)
}

func TestSweeper_StartStop(t *testing.T) {
	store := newMemStore()
	seed(store)

	delivered := make(chan struct{}, 1)
	n := new(MockNotifier)
	n.On("Deliver", "ada@example.com", "Ada", 1).Return(true).Run(func(mock.Arguments) {
		select {
		case delivered <- struct{}{}:
		default:
		}
	}).Once()

	s := New(store, n, 10*time.Millisecond, sl.NewDiscard(), WithClock(func() time.Time { return base }))
	s.Start(context.Background())
	s.Start(context.Background())

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run")
	}

	s.Stop()
	s.Stop()

	assert.True(t, store.sent(1))
	n.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestSweeper_StopsWithContext(t *testing.T) {
	store := newMemStore()
	n := new(MockNotifier)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(store, n, time.Hour, sl.NewDiscard())
	s.Start(ctx)
	cancel()

	finished := make(chan struct{})
	go func() {
		s.Stop()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestSweepOnce_SlowDeliveryStillCommits(t *testing.T) {
	store := newMemStore()
	seed(store)

	n := &funcNotifier{fn: func(*models.Deadline) bool {
		time.Sleep(80 * time.Millisecond)
		return true
	}}

	s := New(store, n, time.Minute, sl.NewDiscard(), WithItemTimeout(50*time.Millisecond))
	s.SweepOnce(context.Background(), base)
	s.SweepOnce(context.Background(), base)

	assert.True(t, store.sent(1), "delivery longer than the store timeout must still be marked")
	assert.Equal(t, []int{1}, n.delivered())
}

func TestSweepOnce_CancelDoesNotAbortBatch(t *testing.T) {
	store := newMemStore()
	seed(store)
	store.deadlines[4] = &models.Deadline{ID: 4, UserUID: "u1", Title: "Lab", DueDate: base.Add(2 * time.Hour), ReminderHours: 24}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := &funcNotifier{fn: func(*models.Deadline) bool {
		cancel()
		return true
	}}

	s := New(store, n, time.Minute, sl.NewDiscard(), WithItemTimeout(time.Second))
	s.SweepOnce(ctx, base)

	assert.Equal(t, []int{1, 4}, n.delivered())
	assert.True(t, store.sent(1))
	assert.True(t, store.sent(4))
}

func TestSweeper_StopWaitsForPass(t *testing.T) {
	store := newMemStore()
	seed(store)
	store.deadlines[4] = &models.Deadline{ID: 4, UserUID: "u1", Title: "Lab", DueDate: base.Add(2 * time.Hour), ReminderHours: 24}

	started := make(chan struct{})
	var once sync.Once
	n := &funcNotifier{fn: func(*models.Deadline) bool {
		once.Do(func() { close(started) })
		time.Sleep(30 * time.Millisecond)
		return true
	}}

	s := New(store, n, 10*time.Millisecond, sl.NewDiscard(), WithClock(func() time.Time { return base }))
	s.Start(context.Background())

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run")
	}
	s.Stop()

	assert.True(t, store.sent(1))
	assert.True(t, store.sent(4))
}
