package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/repository"
)

// maxToggleAttempts bounds retries when a concurrent request changes the row between steps.
const maxToggleAttempts = 3

// Toggle steps reported to stepHook.
const (
	stepInsert   = "insert"
	stepConflict = "conflict"
)

// errToggleRetry rolls back an attempt that lost its row to another request.
var errToggleRetry = errors.New("reaction toggle retry")

type reactionRepository struct {
	pool *pgxpool.Pool
	// stepHook, when set, runs inside the toggle transaction before each step.
	stepHook func(ctx context.Context, tx pgx.Tx, step string) error
}

// NewReactionRepository returns a Postgres-backed ReactionRepository.
func NewReactionRepository(pool *pgxpool.Pool) repository.ReactionRepository {
	return &reactionRepository{pool: pool}
}

func (r *reactionRepository) ListForComments(ctx context.Context, commentIDs []int64) ([]domain.Reaction, error) {
	if len(commentIDs) == 0 {
		return []domain.Reaction{}, nil
	}

	const query = `
	SELECT l.id, l.comment_id, l.reaction_type, l.created_at, l.updated_at,
		u.id, u.username, u.first_name, u.last_name, COALESCE(p.profile_picture, '')
	FROM comment_likes l
	JOIN users u ON u.id = l.user_id
	LEFT JOIN user_profiles p ON p.user_id = u.id
	WHERE l.comment_id = ANY($1)
	ORDER BY l.created_at, l.id
	`
	rows, err := r.pool.Query(ctx, query, commentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reactions := make([]domain.Reaction, 0)
	for rows.Next() {
		var (
			reaction domain.Reaction
			kind     string
		)
		if err := rows.Scan(
			&reaction.ID,
			&reaction.CommentID,
			&kind,
			&reaction.CreatedAt,
			&reaction.UpdatedAt,
			&reaction.User.ID,
			&reaction.User.Username,
			&reaction.User.FirstName,
			&reaction.User.LastName,
			&reaction.User.ProfilePicture,
		); err != nil {
			return nil, err
		}
		reaction.Type = domain.ReactionType(kind)
		reactions = append(reactions, reaction)
	}
	return reactions, rows.Err()
}

func (r *reactionRepository) Toggle(ctx context.Context, userID, commentID int64, reaction domain.ReactionType) (domain.ReactionOutcome, error) {
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		var (
			outcome domain.ReactionOutcome
			done    bool
		)
		err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			var err error
			outcome, done, err = r.toggleOnce(ctx, tx, userID, commentID, reaction)
			if err == nil && !done {
				return errToggleRetry
			}
			return err
		})
		if errors.Is(err, errToggleRetry) {
			continue
		}
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

// toggleOnce runs insert-if-absent, delete-if-same, update-if-different. done is false
// only when another request removed the row between the steps.
func (r *reactionRepository) toggleOnce(ctx context.Context, tx pgx.Tx, userID, commentID int64, kind domain.ReactionType) (domain.ReactionOutcome, bool, error) {
	const insert = `
	INSERT INTO comment_likes (user_id, comment_id, reaction_type)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, comment_id) DO NOTHING
	RETURNING id, created_at, updated_at
	`
	const remove = `
	DELETE FROM comment_likes
	WHERE user_id = $1 AND comment_id = $2 AND reaction_type = $3
	RETURNING id
	`
	const update = `
	UPDATE comment_likes
	SET reaction_type = $3, updated_at = NOW()
	WHERE user_id = $1 AND comment_id = $2 AND reaction_type <> $3
	RETURNING id, created_at, updated_at
	`

	row := &domain.Reaction{CommentID: commentID, User: domain.UserRef{ID: userID}, Type: kind}

	if err := r.step(ctx, tx, stepInsert); err != nil {
		return domain.ReactionOutcome{}, false, err
	}
	err := tx.QueryRow(ctx, insert, userID, commentID, string(kind)).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	switch {
	case err == nil:
		return domain.ReactionOutcome{Action: domain.ReactionAdded, Type: kind, Reaction: row}, true, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return domain.ReactionOutcome{}, false, err
	}

	if err := r.step(ctx, tx, stepConflict); err != nil {
		return domain.ReactionOutcome{}, false, err
	}
	var removedID int64
	err = tx.QueryRow(ctx, remove, userID, commentID, string(kind)).Scan(&removedID)
	switch {
	case err == nil:
		return domain.ReactionOutcome{Action: domain.ReactionRemoved, Type: kind}, true, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return domain.ReactionOutcome{}, false, err
	}

	err = tx.QueryRow(ctx, update, userID, commentID, string(kind)).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	switch {
	case err == nil:
		return domain.ReactionOutcome{Action: domain.ReactionUpdated, Type: kind, Reaction: row}, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ReactionOutcome{}, false, nil
	default:
		return domain.ReactionOutcome{}, false, err
	}
}

func (r *reactionRepository) step(ctx context.Context, tx pgx.Tx, name string) error {
	if r.stepHook == nil {
		return nil
	}
	return r.stepHook(ctx, tx, name)
}
