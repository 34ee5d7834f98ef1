package repository

import (
	"context"

	"github.com/fastygo/taskhub/domain"
)

type TaskFilter struct {
	OwnerID int64
	Status  string
	Limit   int
	Offset  int
}

type TaskRepository interface {
	// GetOwned scopes the lookup to the owner; another user's task is reported as not found.
	GetOwned(ctx context.Context, id, ownerID int64) (*domain.Task, error)
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id, ownerID int64) error
}
