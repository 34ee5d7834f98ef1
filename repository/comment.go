package repository

import (
	"context"

	"github.com/fastygo/taskhub/domain"
)

type CommentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	// Subtree returns the comment and every reply below it, newest first.
	Subtree(ctx context.Context, id int64) ([]domain.Comment, error)
	ListByTask(ctx context.Context, taskID int64) ([]domain.Comment, error)
	Create(ctx context.Context, comment *domain.Comment) error
	UpdateContent(ctx context.Context, id int64, content string) (*domain.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type ReactionRepository interface {
	// ListForComments returns the reactions of every listed comment with the reacting user joined in.
	ListForComments(ctx context.Context, commentIDs []int64) ([]domain.Reaction, error)
	// Toggle adds, removes or switches the reaction of userID on commentID in one storage round.
	Toggle(ctx context.Context, userID, commentID int64, reaction domain.ReactionType) (domain.ReactionOutcome, error)
}
