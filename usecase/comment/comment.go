// Package comment implements threaded task comments and reaction toggles.
package comment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/pkg/logger"
	"github.com/fastygo/taskhub/repository"
)

type UseCase struct {
	tasks     repository.TaskRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	maxDepth  int
	logger    *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	comments repository.CommentRepository,
	reactions repository.ReactionRepository,
	maxDepth int,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:     tasks,
		comments:  comments,
		reactions: reactions,
		maxDepth:  maxDepth,
		logger:    logger,
	}
}

// AddComment posts on any existing task. A parent must be a comment of the same task.
func (uc *UseCase) AddComment(ctx context.Context, authorID, taskID int64, content string, parentID *int64) (*domain.CommentNode, error) {
	if _, err := uc.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := uc.comments.GetByID(ctx, *parentID)
		switch {
		case errors.Is(err, domain.ErrCommentNotFound):
			return nil, parentError(fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, *parentID))
		case err != nil:
			return nil, err
		case parent.TaskID != taskID:
			return nil, parentError("Parent comment must belong to the same task.")
		}
	}

	c := &domain.Comment{
		TaskID:   taskID,
		ParentID: parentID,
		Author:   domain.UserRef{ID: authorID},
		Content:  content,
	}
	if err := uc.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return uc.load(ctx, c.ID)
}

// UpdateComment replaces the content; only the author may edit.
func (uc *UseCase) UpdateComment(ctx context.Context, userID, id int64, content *string) (*domain.CommentNode, error) {
	c, err := uc.authored(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if _, err := uc.comments.UpdateContent(ctx, c.ID, *content); err != nil {
			return nil, err
		}
	}
	return uc.load(ctx, c.ID)
}

// DeleteComment removes the comment with its replies and reactions; only the author may delete.
func (uc *UseCase) DeleteComment(ctx context.Context, userID, id int64) error {
	if _, err := uc.authored(ctx, userID, id); err != nil {
		return err
	}
	return uc.comments.Delete(ctx, id)
}

// React toggles the reaction of userID and returns the refreshed comment.
func (uc *UseCase) React(ctx context.Context, userID, id int64, rawType string) (*domain.CommentNode, domain.ReactionOutcome, error) {
	kind, err := domain.ParseReactionType(rawType)
	if err != nil {
		return nil, domain.ReactionOutcome{}, err
	}

	outcome, err := uc.reactions.Toggle(ctx, userID, id, kind)
	if err != nil {
		if errors.Is(err, domain.ErrReactionConflict) {
			logger.WithRequestID(ctx, uc.logger).Warn("reaction toggle gave up after retries",
				zap.Int64("comment_id", id), zap.Int64("user_id", userID))
		}
		return nil, domain.ReactionOutcome{}, err
	}

	node, err := uc.load(ctx, id)
	if err != nil {
		return nil, domain.ReactionOutcome{}, err
	}
	return node, outcome, nil
}

// load builds the comment subtree with one subtree query and one reaction query.
func (uc *UseCase) load(ctx context.Context, id int64) (*domain.CommentNode, error) {
	comments, err := uc.comments.Subtree(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	reactions, err := uc.reactions.ListForComments(ctx, ids)
	if err != nil {
		return nil, err
	}

	node, ok := domain.NewThread(comments, reactions, uc.maxDepth).Node(id)
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	return node, nil
}

func (uc *UseCase) authored(ctx context.Context, userID, id int64) (*domain.Comment, error) {
	c, err := uc.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Author.ID != userID {
		return nil, domain.ErrCommentForbidden
	}
	return c, nil
}

func parentError(message string) error {
	v := domain.NewValidationError()
	v.Add("parent", message)
	return v
}
