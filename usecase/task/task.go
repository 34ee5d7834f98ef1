// Package task implements owner-scoped task management.
package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/repository"
)

// Detail is a task with its comment threads, newest first.
type Detail struct {
	Task     *domain.Task
	Comments []*domain.CommentNode
}

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

// ListTasks returns one page of the owner's tasks. status may be empty.
func (uc *UseCase) ListTasks(ctx context.Context, ownerID int64, status string, number, perPage int) ([]domain.Task, domain.Page, error) {
	filter := repository.TaskFilter{OwnerID: ownerID, Status: status}
	total, err := uc.tasks.Count(ctx, filter)
	if err != nil {
		return nil, domain.Page{}, err
	}
	page, err := domain.NewPage(total, number, perPage)
	if err != nil {
		return nil, domain.Page{}, err
	}

	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, domain.Page{}, err
	}
	return tasks, page, nil
}

// CreateTask applies patch over the default todo/medium task.
func (uc *UseCase) CreateTask(ctx context.Context, ownerID int64, patch domain.TaskPatch) (*domain.Task, error) {
	t := &domain.Task{
		OwnerID:  ownerID,
		Status:   domain.TaskStatusTodo,
		Priority: domain.TaskPriorityMedium,
	}
	patch.Apply(t)
	return uc.tasks.Create(ctx, t)
}

// GetTask loads the task with every comment and reaction in two queries.
func (uc *UseCase) GetTask(ctx context.Context, id, ownerID int64) (*Detail, error) {
	t, err := uc.tasks.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	comments, err := uc.comments.ListByTask(ctx, t.ID)
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

	return &Detail{
		Task:     t,
		Comments: domain.NewThread(comments, reactions, uc.maxDepth).Roots(),
	}, nil
}

func (uc *UseCase) UpdateTask(ctx context.Context, id, ownerID int64, patch domain.TaskPatch) (*domain.Task, error) {
	t, err := uc.tasks.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	if err := uc.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id, ownerID int64) error {
	return uc.tasks.Delete(ctx, id, ownerID)
}
