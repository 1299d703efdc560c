package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/deadline-reminder/internal/models"
)

const deadlineColumns = `id, user_uid, title, COALESCE(description, ''), due_date, deadline_type,
			      reminder_hours, reminder_sent, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDeadline(row scanner) (*models.Deadline, error) {
	var d models.Deadline
	if err := row.Scan(&d.ID, &d.UserUID, &d.Title, &d.Description, &d.DueDate, &d.DeadlineType,
		&d.ReminderHours, &d.ReminderSent, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.DueDate = d.DueDate.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	return &d, nil
}

// CreateDeadline вставляет новый дедлайн и возвращает его ID.
// Флаг reminder_sent при создании всегда false.
func (s *Storage) CreateDeadline(ctx context.Context, d models.Deadline) (int, error) {
	const op = "storage.CreateDeadline"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var description sql.NullString
	if d.Description != "" {
		description = sql.NullString{String: d.Description, Valid: true}
	}
	query := `INSERT INTO deadlines (title, description, due_date, deadline_type,
			      reminder_hours, user_uid)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		d.Title, description, d.DueDate.UTC(), d.DeadlineType, d.ReminderHours, d.UserUID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetDeadline возвращает дедлайн по ID или ErrDeadlineNotFound.
func (s *Storage) GetDeadline(ctx context.Context, id int) (*models.Deadline, error) {
	const op = "storage.GetDeadline"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE id = $1`
	d, err := scanDeadline(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrDeadlineNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// RemoveDeadline удаляет дедлайн по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveDeadline(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveDeadline"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM deadlines WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListDeadlinesByUser возвращает дедлайны пользователя, отсортированные по сроку.
func (s *Storage) ListDeadlinesByUser(ctx context.Context, userUID string) ([]*models.Deadline, error) {
	const op = "storage.ListDeadlinesByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + deadlineColumns + `
			  FROM deadlines
			  WHERE user_uid = $1
			  ORDER BY due_date, id`
	return s.listDeadlines(ctx, op, query, userUID)
}

// ListUnremindedDeadlines возвращает все дедлайны, по которым напоминание ещё не доставлено.
func (s *Storage) ListUnremindedDeadlines(ctx context.Context) ([]*models.Deadline, error) {
	const op = "storage.ListUnremindedDeadlines"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + deadlineColumns + `
			  FROM deadlines
			  WHERE reminder_sent = false
			  ORDER BY due_date, id`
	return s.listDeadlines(ctx, op, query)
}

// MarkReminded выставляет reminder_sent = true. Флаг обратно не сбрасывается.
func (s *Storage) MarkReminded(ctx context.Context, id int) error {
	const op = "storage.MarkReminded"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `UPDATE deadlines SET reminder_sent = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrDeadlineNotFound)
	}
	return nil
}

func (s *Storage) listDeadlines(ctx context.Context, op, query string, args ...any) ([]*models.Deadline, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Deadline
	for rows.Next() {
		d, err := scanDeadline(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
