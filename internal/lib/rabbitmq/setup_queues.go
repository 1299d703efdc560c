package rabbitmq

// ExchangeReminders direct-exchange для событий о напоминаниях.
const ExchangeReminders = "reminders"

// RoutingKeySent ключ маршрутизации события об отправленном напоминании.
const RoutingKeySent = "sent"

// QueueConfig описывает очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetReminderQueues возвращает очереди, которые объявляются при старте.
func GetReminderQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "reminders.sent", RoutingKey: RoutingKeySent},
	}
}
