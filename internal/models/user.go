// Package models содержит доменную модель единственного пользователя системы
// и его дедлайнов. Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет профиль пользователя, которому уходят напоминания.
// Система рассчитана на один профиль: текущим считается первый созданный.
type User struct {
	UUID      string    `json:"uid"`        // Уникальный идентификатор пользователя
	Name      string    `json:"name"`       // Отображаемое имя
	Email     string    `json:"email"`      // Электронная почта, уникальна
	CreatedAt time.Time `json:"created_at"` // Дата создания профиля
}

// DummyUser используется для приёма настроек профиля из JSON-запроса.
type DummyUser struct {
	Name  string `json:"name" validate:"required"`        // Имя
	Email string `json:"email" validate:"required,email"` // Почта для напоминаний
}
