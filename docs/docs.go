// Package docs регистрирует OpenAPI-описание API для /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/deadlines": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Deadlines"],
                "summary": "Список дедлайнов",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.DeadlineView"}}},
                    "500": {"description": "Ошибка сервера", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Deadlines"],
                "summary": "Создать дедлайн",
                "parameters": [
                    {"description": "Данные дедлайна", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DummyDeadline"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Некорректный JSON или дата", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Профиль не настроен", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/deadlines/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["Deadlines"],
                "summary": "Удалить дедлайн",
                "parameters": [
                    {"type": "integer", "description": "ID дедлайна", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Дедлайн не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/settings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Текущий профиль",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Сохранить профиль",
                "parameters": [
                    {"description": "Имя и почта", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DummyUser"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/settings/test-email": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Отправить тестовое письмо",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Профиль не настроен", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "429": {"description": "Слишком много запросов", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "502": {"description": "Почтовый сервер отклонил письмо", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.DeadlineView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "due_date": {"type": "string"},
                "deadline_type": {"type": "string"},
                "reminder_hours": {"type": "integer"},
                "reminder_sent": {"type": "boolean"},
                "is_overdue": {"type": "boolean"},
                "time_remaining": {"type": "string"}
            }
        },
        "models.DummyDeadline": {
            "type": "object",
            "required": ["deadline_type", "due_date", "title"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "due_date": {"type": "string", "example": "2024-01-12T10:00"},
                "deadline_type": {"type": "string", "example": "exam"},
                "reminder_hours": {"type": "integer", "minimum": 0, "example": 24}
            }
        },
        "models.DummyUser": {
            "type": "object",
            "required": ["email", "name"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "Error"},
                "error": {"type": "string", "example": "invalid request body"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "data": {}
            }
        }
    }
}`

// SwaggerInfo содержит экспортируемую информацию Swagger, чтобы клиенты могли ее изменить.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Deadline Reminder API",
	Description:      "API для управления дедлайнами и настройками напоминаний",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
