package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/repository"
)

const selectTask = `SELECT id, owner_id, title, description, status, priority, created_at, updated_at FROM tasks`

type taskRow struct {
	ID          int64     `db:"id"`
	OwnerID     int64     `db:"owner_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	Priority    string    `db:"priority"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type TaskRepository struct {
	db  *sqlx.DB
	now clock
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db, now: utcNow}
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return r.getOne(ctx, selectTask+` WHERE id = ?`, id)
}

func (r *TaskRepository) GetOwned(ctx context.Context, id, ownerID int64) (*domain.Task, error) {
	return r.getOne(ctx, selectTask+` WHERE id = ? AND owner_id = ?`, id, ownerID)
}

func (r *TaskRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Task, error) {
	var row taskRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	task := mapTaskRow(row)
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows,
		selectTask+` WHERE owner_id = ? AND (? = '' OR status = ?) ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		filter.OwnerID, filter.Status, filter.Status, clampLimit(filter.Limit), filter.Offset,
	); err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, mapTaskRow(row))
	}
	return tasks, nil
}

func (r *TaskRepository) Count(ctx context.Context, filter repository.TaskFilter) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM tasks WHERE owner_id = ? AND (? = '' OR status = ?)`,
		filter.OwnerID, filter.Status, filter.Status,
	)
	return count, err
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (owner_id, title, description, status, priority, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.OwnerID, task.Title, task.Description, string(task.Status), string(task.Priority), now, now,
	)
	if err != nil {
		if foreignKeyViolation(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if task.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	task.CreatedAt, task.UpdatedAt = now, now
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		task.Title, task.Description, string(task.Status), string(task.Priority), now, task.ID, task.OwnerID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTaskNotFound
	}
	task.UpdatedAt = now
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func mapTaskRow(row taskRow) domain.Task {
	return domain.Task{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Description: row.Description,
		Status:      domain.TaskStatus(row.Status),
		Priority:    domain.TaskPriority(row.Priority),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
