package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskhub/api/transport"
	commentUC "github.com/fastygo/taskhub/usecase/comment"
)

type CommentHandler struct {
	baseHandler
	uc *commentUC.UseCase
}

func NewCommentHandler(uc *commentUC.UseCase, common Common) *CommentHandler {
	return &CommentHandler{
		baseHandler: newBaseHandler(common),
		uc:          uc,
	}
}

// @Summary Comment on a task, optionally replying to another comment
// @Tags comments
// @Router /api/v1/tasks/{id}/comment/ [post]
func (h *CommentHandler) AddComment(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}
	taskID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	var req transport.CommentRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(false); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	node, err := h.uc.AddComment(stdCtx, userID, taskID, *req.Content, req.Parent)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusCreated, transport.NewCommentView(node, h.urls(ctx)), "Comment added successfully")
}

// @Summary Edit a comment
// @Tags comments
// @Router /api/v1/tasks/comment/{id}/update/ [put]
func (h *CommentHandler) UpdateComment(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	var req transport.CommentRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := req.Validate(true); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	node, err := h.uc.UpdateComment(stdCtx, userID, id, req.Content)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewCommentView(node, h.urls(ctx)), "Comment updated successfully")
}

// @Summary Delete a comment with its replies
// @Tags comments
// @Router /api/v1/tasks/comment/{id}/delete/ [delete]
func (h *CommentHandler) DeleteComment(ctx *fasthttp.RequestCtx) {
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

	if err := h.uc.DeleteComment(stdCtx, userID, id); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, nil, "Comment deleted successfully")
}

// @Summary Toggle a reaction on a comment
// @Tags comments
// @Router /api/v1/tasks/comment/{id}/like/ [post]
func (h *CommentHandler) LikeComment(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	var req transport.ReactionRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	node, outcome, err := h.uc.React(stdCtx, userID, id, req.Type())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewCommentView(node, h.urls(ctx)), "Comment "+outcome.Message()+" successfully")
}
