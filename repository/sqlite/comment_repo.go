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

const selectComment = `
SELECT
  c.id, c.task_id, c.parent_id, COALESCE(c.content, '') AS content, c.created_at, c.updated_at,
  u.id AS author_id, u.username, u.first_name, u.last_name,
  COALESCE(p.profile_picture, '') AS profile_picture
FROM comments c
JOIN users u ON u.id = c.author_id
LEFT JOIN user_profiles p ON p.user_id = u.id
`

type commentRow struct {
	ID             int64         `db:"id"`
	TaskID         int64         `db:"task_id"`
	ParentID       sql.NullInt64 `db:"parent_id"`
	Content        string        `db:"content"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
	AuthorID       int64         `db:"author_id"`
	Username       string        `db:"username"`
	FirstName      string        `db:"first_name"`
	LastName       string        `db:"last_name"`
	ProfilePicture string        `db:"profile_picture"`
}

type CommentRepository struct {
	db  *sqlx.DB
	now clock
}

var _ repository.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db, now: utcNow}
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	var row commentRow
	if err := r.db.GetContext(ctx, &row, selectComment+` WHERE c.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, err
	}
	comment := mapCommentRow(row)
	return &comment, nil
}

func (r *CommentRepository) Subtree(ctx context.Context, id int64) ([]domain.Comment, error) {
	comments, err := r.list(ctx, `
		WITH RECURSIVE subtree (id) AS (
			SELECT id FROM comments WHERE id = ?
			UNION
			SELECT child.id FROM comments child JOIN subtree s ON child.parent_id = s.id
		)`+selectComment+`
		JOIN subtree st ON st.id = c.id
		ORDER BY c.created_at DESC, c.id DESC`, id)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, domain.ErrCommentNotFound
	}
	return comments, nil
}

func (r *CommentRepository) ListByTask(ctx context.Context, taskID int64) ([]domain.Comment, error) {
	return r.list(ctx, selectComment+` WHERE c.task_id = ? ORDER BY c.created_at DESC, c.id DESC`, taskID)
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment == nil {
		return domain.ErrInvalidPayload
	}

	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (author_id, task_id, parent_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		comment.Author.ID, comment.TaskID, comment.ParentID, comment.Content, now, now,
	)
	if err != nil {
		if foreignKeyViolation(err) {
			return domain.ErrTaskNotFound
		}
		return err
	}
	if comment.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	comment.CreatedAt, comment.UpdatedAt = now, now
	return nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id int64, content string) (*domain.Comment, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`, content, r.now(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrCommentNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *CommentRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Comment, error) {
	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	comments := make([]domain.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, mapCommentRow(row))
	}
	return comments, nil
}

func mapCommentRow(row commentRow) domain.Comment {
	return domain.Comment{
		ID:       row.ID,
		TaskID:   row.TaskID,
		ParentID: nullInt(row.ParentID),
		Author: domain.UserRef{
			ID:             row.AuthorID,
			Username:       row.Username,
			FirstName:      row.FirstName,
			LastName:       row.LastName,
			ProfilePicture: row.ProfilePicture,
		},
		Content:   row.Content,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
