package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/repository"
)

const commentSelect = `
	SELECT c.id, c.task_id, c.parent_id, COALESCE(c.content, ''), c.created_at, c.updated_at,
		u.id, u.username, u.first_name, u.last_name, COALESCE(p.profile_picture, '')
	FROM comments c
	JOIN users u ON u.id = c.author_id
	LEFT JOIN user_profiles p ON p.user_id = u.id
`

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository returns a Postgres-backed CommentRepository.
func NewCommentRepository(pool *pgxpool.Pool) repository.CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	const query = commentSelect + ` WHERE c.id = $1`
	return scanComment(r.pool.QueryRow(ctx, query, id))
}

func (r *commentRepository) Subtree(ctx context.Context, id int64) ([]domain.Comment, error) {
	// UNION (not UNION ALL) stops the walk if a cycle ever slips into parent_id.
	const query = `
	WITH RECURSIVE subtree (id) AS (
		SELECT id FROM comments WHERE id = $1
		UNION
		SELECT child.id FROM comments child JOIN subtree s ON child.parent_id = s.id
	)
	` + commentSelect + `
	JOIN subtree s ON s.id = c.id
	ORDER BY c.created_at DESC, c.id DESC
	`
	comments, err := r.list(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, domain.ErrCommentNotFound
	}
	return comments, nil
}

func (r *commentRepository) ListByTask(ctx context.Context, taskID int64) ([]domain.Comment, error) {
	const query = commentSelect + ` WHERE c.task_id = $1 ORDER BY c.created_at DESC, c.id DESC`
	return r.list(ctx, query, taskID)
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO comments (author_id, task_id, parent_id, content)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		comment.Author.ID,
		comment.TaskID,
		comment.ParentID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
		if foreignKeyViolation(err) {
			return domain.ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id int64, content string) (*domain.Comment, error) {
	const query = `UPDATE comments SET content = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, content)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrCommentNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the comment together with its replies and reactions (ON DELETE CASCADE).
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}
	return comments, rows.Err()
}

func scanComment(row scanner) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(
		&c.ID,
		&c.TaskID,
		&c.ParentID,
		&c.Content,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.Author.ID,
		&c.Author.Username,
		&c.Author.FirstName,
		&c.Author.LastName,
		&c.Author.ProfilePicture,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, err
	}
	return &c, nil
}
