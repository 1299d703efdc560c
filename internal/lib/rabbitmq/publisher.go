package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Channel часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage сериализует message в JSON и публикует его.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReminderSent событие, публикуемое после фиксации отправленного напоминания.
type ReminderSent struct {
	DeadlineID int       `json:"deadline_id"`
	Title      string    `json:"title"`
	Email      string    `json:"email"`
	DueDate    time.Time `json:"due_date"`
	SentAt     time.Time `json:"sent_at"`
}

// EventPublisher публикует события о напоминаниях в exchange reminders.
type EventPublisher struct {
	ch Channel
}

// NewEventPublisher создает EventPublisher поверх канала.
func NewEventPublisher(ch Channel) *EventPublisher {
	return &EventPublisher{ch: ch}
}

// PublishReminderSent публикует событие ReminderSent.
func (p *EventPublisher) PublishReminderSent(ctx context.Context, event ReminderSent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rabbitmq.PublishReminderSent: %w", err)
	}
	return PublishMessage(p.ch, ExchangeReminders, RoutingKeySent, event)
}
