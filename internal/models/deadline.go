package models

import (
	"fmt"
	"time"
)

// DueDateLayout формат даты дедлайна во входящих запросах.
const DueDateLayout = "2006-01-02T15:04"

// Deadline представляет учебный дедлайн (экзамен, задание, проект, тест).
// Все даты наивные и трактуются как UTC.
type Deadline struct {
	ID            int       // Идентификатор
	UserUID       string    // Владелец дедлайна
	Title         string    // Название
	Description   string    // Описание, может быть пустым
	DueDate       time.Time // Срок сдачи
	DeadlineType  string    // exam, assignment, project, quiz (свободный текст)
	ReminderHours int       // За сколько часов до срока напоминать
	ReminderSent  bool      // Напоминание уже доставлено
	CreatedAt     time.Time // Дата создания
}

// ReminderTime возвращает момент, начиная с которого напоминание можно отправлять.
func (d *Deadline) ReminderTime() time.Time {
	return d.DueDate.Add(-time.Duration(d.ReminderHours) * time.Hour)
}

// IsOverdue сообщает, прошел ли срок дедлайна к моменту now.
func (d *Deadline) IsOverdue(now time.Time) bool {
	return now.After(d.DueDate)
}

// TimeRemaining возвращает человекочитаемый остаток времени до срока:
// "Overdue", "N minutes", "N hours", "1 day" или "N days".
func (d *Deadline) TimeRemaining(now time.Time) string {
	delta := d.DueDate.Sub(now)
	if delta < 0 {
		return "Overdue"
	}
	day := 24 * time.Hour
	days := int(delta / day)
	rest := delta % day
	switch {
	case days == 0:
		hours := int(rest / time.Hour)
		if hours == 0 {
			return fmt.Sprintf("%d minutes", int(rest/time.Minute))
		}
		return fmt.Sprintf("%d hours", hours)
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// DummyDeadline используется для приёма данных из JSON-запроса,
// прежде чем конвертировать их в Deadline. Дата приходит строкой в формате DueDateLayout.
type DummyDeadline struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description,omitempty"`
	DueDate       string `json:"due_date" validate:"required"`
	DeadlineType  string `json:"deadline_type" validate:"required"`
	ReminderHours *int   `json:"reminder_hours,omitempty" validate:"omitempty,gte=0"`
}

// DeadlineView описывает дедлайн в ответе API вместе с вычисляемыми полями.
type DeadlineView struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	DueDate       time.Time `json:"due_date"`
	DeadlineType  string    `json:"deadline_type"`
	ReminderHours int       `json:"reminder_hours"`
	ReminderSent  bool      `json:"reminder_sent"`
	IsOverdue     bool      `json:"is_overdue"`
	TimeRemaining string    `json:"time_remaining"`
}

// NewDeadlineView собирает представление дедлайна на момент now.
func NewDeadlineView(d *Deadline, now time.Time) DeadlineView {
	return DeadlineView{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		DueDate:       d.DueDate,
		DeadlineType:  d.DeadlineType,
		ReminderHours: d.ReminderHours,
		ReminderSent:  d.ReminderSent,
		IsOverdue:     d.IsOverdue(now),
		TimeRemaining: d.TimeRemaining(now),
	}
}
