// Package notifier формирует и отправляет письма-напоминания о дедлайнах.
package notifier

import (
	"bytes"
	"fmt"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/magabrotheeeer/deadline-reminder/internal/lib/sl"
	"github.com/magabrotheeeer/deadline-reminder/internal/models"
)

const (
	dueDateFormat      = "January 02, 2006 at 03:04 PM"
	noDescription      = "No description"
	testEmailSubject   = "🧪 Test Email - Smart Deadline Reminder"
	reminderSubjectFmt = "⏰ Reminder: %s - Due Soon!"
)

// Sender внешний почтовый транспорт: одна попытка отправки за вызов.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Notifier отправляет напоминания через Sender. Ошибки транспорта
// не пробрасываются наружу из Deliver, а логируются.
type Notifier struct {
	sender Sender
	log    *slog.Logger
}

// New создает новый экземпляр Notifier.
func New(sender Sender, log *slog.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		log:    log,
	}
}

type reminderData struct {
	Name        string
	Title       string
	Type        string
	Due         string
	Description string
}

// Subject возвращает тему письма-напоминания для дедлайна.
func Subject(d *models.Deadline) string {
	return fmt.Sprintf(reminderSubjectFmt, d.Title)
}

// Body возвращает HTML-тело письма-напоминания.
func (n *Notifier) Body(recipientName string, d *models.Deadline) (string, error) {
	description := d.Description
	if description == "" {
		description = noDescription
	}
	var buf bytes.Buffer
	err := reminderTemplate.Execute(&buf, reminderData{
		Name:        recipientName,
		Title:       d.Title,
		Type:        cases.Title(language.English).String(d.DeadlineType),
		Due:         d.DueDate.Format(dueDateFormat),
		Description: description,
	})
	if err != nil {
		return "", fmt.Errorf("notifier.Body: %w", err)
	}
	return buf.String(), nil
}

// Deliver делает одну попытку отправить напоминание и сообщает, удалась ли она.
func (n *Notifier) Deliver(recipientEmail, recipientName string, d *models.Deadline) bool {
	log := n.log.With(
		slog.Int("deadline_id", d.ID),
		slog.String("to", recipientEmail),
	)

	body, err := n.Body(recipientName, d)
	if err != nil {
		log.Error("failed to render reminder", sl.Err(err))
		return false
	}
	if err := n.sender.Send(recipientEmail, Subject(d), body); err != nil {
		log.Error("failed to send reminder email", sl.Err(err))
		return false
	}
	return true
}

// SendTest отправляет тестовое письмо. В отличие от Deliver ошибку возвращает,
// чтобы показать ее пользователю.
func (n *Notifier) SendTest(recipientEmail string) error {
	if err := n.sender.Send(recipientEmail, testEmailSubject, testEmailBody); err != nil {
		return fmt.Errorf("notifier.SendTest: %w", err)
	}
	return nil
}
