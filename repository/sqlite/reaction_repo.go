package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/repository"
)

const maxToggleAttempts = 3

// Toggle steps reported to stepHook.
const (
	stepInsert   = "insert"
	stepConflict = "conflict"
)

type reactionRow struct {
	ID             int64     `db:"id"`
	CommentID      int64     `db:"comment_id"`
	ReactionType   string    `db:"reaction_type"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	UserID         int64     `db:"user_id"`
	Username       string    `db:"username"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	ProfilePicture string    `db:"profile_picture"`
}

type ReactionRepository struct {
	db  *sqlx.DB
	now clock
	// stepHook, when set, runs inside the toggle transaction before each step.
	stepHook func(ctx context.Context, tx *sqlx.Tx, step string) error
}

var _ repository.ReactionRepository = (*ReactionRepository)(nil)

func NewReactionRepository(db *sqlx.DB) *ReactionRepository {
	return &ReactionRepository{db: db, now: utcNow}
}

func (r *ReactionRepository) ListForComments(ctx context.Context, commentIDs []int64) ([]domain.Reaction, error) {
	if len(commentIDs) == 0 {
		return []domain.Reaction{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT l.id, l.comment_id, l.reaction_type, l.created_at, l.updated_at,
			u.id AS user_id, u.username, u.first_name, u.last_name,
			COALESCE(p.profile_picture, '') AS profile_picture
		FROM comment_likes l
		JOIN users u ON u.id = l.user_id
		LEFT JOIN user_profiles p ON p.user_id = u.id
		WHERE l.comment_id IN (?)
		ORDER BY l.created_at, l.id`, commentIDs)
	if err != nil {
		return nil, err
	}

	var rows []reactionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	reactions := make([]domain.Reaction, 0, len(rows))
	for _, row := range rows {
		reactions = append(reactions, domain.Reaction{
			ID:        row.ID,
			CommentID: row.CommentID,
			User: domain.UserRef{
				ID:             row.UserID,
				Username:       row.Username,
				FirstName:      row.FirstName,
				LastName:       row.LastName,
				ProfilePicture: row.ProfilePicture,
			},
			Type:      domain.ReactionType(row.ReactionType),
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return reactions, nil
}

func (r *ReactionRepository) Toggle(ctx context.Context, userID, commentID int64, reaction domain.ReactionType) (domain.ReactionOutcome, error) {
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		outcome, done, err := r.toggleOnce(ctx, userID, commentID, reaction)
		if err != nil {
			if foreignKeyViolation(err) {
				return domain.ReactionOutcome{}, domain.ErrCommentNotFound
			}
			return domain.ReactionOutcome{}, err
		}
		if done {
			return outcome, nil
		}
	}
	return domain.ReactionOutcome{}, domain.ErrReactionConflict
}

func (r *ReactionRepository) toggleOnce(ctx context.Context, userID, commentID int64, kind domain.ReactionType) (domain.ReactionOutcome, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.ReactionOutcome{}, false, err
	}
	defer tx.Rollback()

	now := r.now()
	row := &domain.Reaction{CommentID: commentID, User: domain.UserRef{ID: userID}, Type: kind}

	if err := r.step(ctx, tx, stepInsert); err != nil {
		return domain.ReactionOutcome{}, false, err
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO comment_likes (user_id, comment_id, reaction_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, comment_id) DO NOTHING`,
		userID, commentID, string(kind), now, now,
	)
	if err != nil {
		return domain.ReactionOutcome{}, false, err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		if row.ID, err = res.LastInsertId(); err != nil {
			return domain.ReactionOutcome{}, false, err
		}
		row.CreatedAt, row.UpdatedAt = now, now
		return domain.ReactionOutcome{Action: domain.ReactionAdded, Type: kind, Reaction: row}, true, tx.Commit()
	}

	if err := r.step(ctx, tx, stepConflict); err != nil {
		return domain.ReactionOutcome{}, false, err
	}
	res, err = tx.ExecContext(ctx,
		`DELETE FROM comment_likes WHERE user_id = ? AND comment_id = ? AND reaction_type = ?`,
		userID, commentID, string(kind),
	)
	if err != nil {
		return domain.ReactionOutcome{}, false, err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return domain.ReactionOutcome{Action: domain.ReactionRemoved, Type: kind}, true, tx.Commit()
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE comment_likes SET reaction_type = ?, updated_at = ? WHERE user_id = ? AND comment_id = ? AND reaction_type <> ?`,
		string(kind), now, userID, commentID, string(kind),
	)
	if err != nil {
		return domain.ReactionOutcome{}, false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ReactionOutcome{}, false, nil
	}

	var stored struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := tx.GetContext(ctx, &stored,
		`SELECT id, created_at FROM comment_likes WHERE user_id = ? AND comment_id = ?`, userID, commentID,
	); err != nil {
		return domain.ReactionOutcome{}, false, err
	}
	row.ID, row.CreatedAt, row.UpdatedAt = stored.ID, stored.CreatedAt, now
	return domain.ReactionOutcome{Action: domain.ReactionUpdated, Type: kind, Reaction: row}, true, tx.Commit()
}

func (r *ReactionRepository) step(ctx context.Context, tx *sqlx.Tx, name string) error {
	if r.stepHook == nil {
		return nil
	}
	return r.stepHook(ctx, tx, name)
}
