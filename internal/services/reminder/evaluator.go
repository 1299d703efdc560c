// Package reminder решает, пора ли отправлять напоминание по дедлайну.
package reminder

import (
	"time"

	"github.com/magabrotheeeer/deadline-reminder/internal/models"
)

// Decision результат оценки одного дедлайна.
type Decision int

const (
	// Wait окно напоминания ещё не открылось.
	Wait Decision = iota
	// Fire напоминание нужно отправить сейчас.
	Fire
	// Skip напоминание уже отправлено или срок прошел.
	Skip
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "WAIT"
	case Fire:
		return "FIRE"
	case Skip:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// Evaluate оценивает дедлайн на момент now. Окно напоминания полуоткрытое:
// [DueDate - ReminderHours, DueDate). При ReminderHours == 0 окно сводится
// к единственной точке now == DueDate.
func Evaluate(now time.Time, d *models.Deadline) Decision {
	if d.ReminderSent {
		return Skip
	}
	if now.After(d.DueDate) {
		return Skip
	}
	if now.Equal(d.DueDate) {
		if d.ReminderHours == 0 {
			return Fire
		}
		return Skip
	}
	if now.Before(d.ReminderTime()) {
		return Wait
	}
	return Fire
}
