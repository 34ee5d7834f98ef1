package transport

import (
	"time"

	"github.com/fastygo/taskhub/domain"
)

type TaskSummaryView struct {
	ID          int64     `json:"id"`
	Owner       int64     `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskView is a task with its comment threads.
type TaskView struct {
	TaskSummaryView
	Comments []CommentView `json:"comments"`
}

func NewTaskSummaryView(t domain.Task) TaskSummaryView {
	return TaskSummaryView{
		ID:          t.ID,
		Owner:       t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func NewTaskSummaryViews(tasks []domain.Task) []TaskSummaryView {
	views := make([]TaskSummaryView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, NewTaskSummaryView(t))
	}
	return views
}

func NewTaskView(t domain.Task, threads []*domain.CommentNode, urls URLResolver) TaskView {
	return TaskView{
		TaskSummaryView: NewTaskSummaryView(t),
		Comments:        NewCommentViews(threads, urls),
	}
}
