package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskhub/api/transport"
	"github.com/fastygo/taskhub/domain"
	taskUC "github.com/fastygo/taskhub/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, common Common) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(common),
		uc:          uc,
	}
}

// @Summary List the caller's tasks
// @Tags tasks
// @Param status query string false "todo, in_progress or done"
// @Param page query string false "page number or last"
// @Router /api/v1/tasks/ [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}
	number, perPage, ok := h.pageParams(ctx)
	if !ok {
		return
	}
	status := string(ctx.QueryArgs().Peek("status"))
	if status != "" && !domain.TaskStatus(status).Valid() {
		fields := transport.NewFields()
		fields.Set("status", []string{"Select a valid choice. " + status + " is not one of the available choices."})
		h.respond(ctx, http.StatusBadRequest, fields, "")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, page, err := h.uc.ListTasks(stdCtx, userID, status, number, perPage)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondPage(ctx, transport.NewTaskSummaryViews(tasks), page)
}

// @Summary Create a task
// @Tags tasks
// @Router /api/v1/tasks/ [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patch, err := req.Patch(false)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	t, err := h.uc.CreateTask(stdCtx, userID, patch)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusCreated, transport.NewTaskView(*t, nil, h.urls(ctx)), "Task created successfully")
}

// @Summary Get a task with its comment threads
// @Tags tasks
// @Router /api/v1/tasks/{id}/ [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	detail, err := h.uc.GetTask(stdCtx, id, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewTaskView(*detail.Task, detail.Comments, h.urls(ctx)), "")
}

// @Summary Partially update a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/ [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patch, err := req.Patch(true)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if _, err := h.uc.UpdateTask(stdCtx, id, userID, patch); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	detail, err := h.uc.GetTask(stdCtx, id, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewTaskView(*detail.Task, detail.Comments, h.urls(ctx)), "Task updated successfully")
}

// @Summary Delete a task with its comments
// @Tags tasks
// @Router /api/v1/tasks/{id}/ [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, id, userID); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusNoContent, nil, "Task deleted successfully")
}
