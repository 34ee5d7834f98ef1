package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskhub/api/transport"
	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/pkg/httpcontext"
	"github.com/fastygo/taskhub/pkg/logger"
	"github.com/fastygo/taskhub/pkg/media"
	"github.com/fastygo/taskhub/pkg/translator"
)

const msgInternal = "Internal server error"

// Common carries the collaborators shared by every handler.
type Common struct {
	Adapter       *httpcontext.Adapter
	Logger        *zap.Logger
	Translator    *translator.Translator
	PublicBaseURL string
	PageSize      int
	MaxPageSize   int
}

type baseHandler struct {
	adapter    *httpcontext.Adapter
	logger     *zap.Logger
	translator *translator.Translator
	publicBase string
	pageSize   int
	maxPage    int
	now        func() time.Time
}

func newBaseHandler(c Common) baseHandler {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.MaxPageSize < c.PageSize {
		c.MaxPageSize = c.PageSize
	}
	return baseHandler{
		adapter:    c.Adapter,
		logger:     c.Logger,
		translator: c.Translator,
		publicBase: c.PublicBaseURL,
		pageSize:   c.PageSize,
		maxPage:    c.MaxPageSize,
		now:        time.Now,
	}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, payload transport.Envelope) {
	payload.Message = h.translator.Localize(string(ctx.Request.Header.Peek("Accept-Language")), payload.Message)

	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		body, _ = json.Marshal(transport.NewResponse(nil, http.StatusInternalServerError, msgInternal, nil))
		payload.StatusCode = http.StatusInternalServerError
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(payload.StatusCode)
	ctx.SetBody(body)
}

func (h baseHandler) respond(ctx *fasthttp.RequestCtx, status int, data interface{}, message string) {
	h.respondJSON(ctx, transport.NewResponse(data, status, message, nil))
}

func (h baseHandler) respondPage(ctx *fasthttp.RequestCtx, data interface{}, page domain.Page) {
	h.respondJSON(ctx, transport.NewResponse(data, http.StatusOK, "", transport.NewPageMeta(page)))
}

// respondError maps validation errors to 400 and domain codes to their status.
// Anything else is logged and hidden behind a 500.
func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	if vErr, ok := domain.AsValidationError(err); ok {
		h.respond(ctx, http.StatusBadRequest, vErr.Fields(), "")
		return
	}

	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Code != domain.ErrCodeInternal {
		h.respond(ctx, statusFor(dErr), nil, dErr.Message)
		return
	}

	logger.WithRequestID(stdCtx, h.logger).Error("request failed",
		zap.ByteString("method", ctx.Method()),
		zap.ByteString("path", ctx.Path()),
		zap.Error(err))
	h.respond(ctx, http.StatusInternalServerError, nil, msgInternal)
}

func statusFor(err *domain.Error) int {
	switch err.Code {
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeForbidden:
		return http.StatusForbidden
	case domain.ErrCodeInvalid:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeConflict:
		if errors.Is(err, domain.ErrReactionConflict) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst; an empty body leaves dst untouched.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	body := ctx.PostBody()
	if len(strings.TrimSpace(string(body))) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.respond(ctx, http.StatusBadRequest, nil, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// userID returns the caller recorded by the auth middleware.
func (h baseHandler) userID(ctx *fasthttp.RequestCtx) (int64, bool) {
	id, ok := httpcontext.UserID(ctx)
	if !ok {
		h.respond(ctx, http.StatusUnauthorized, nil, "Authentication credentials were not provided.")
	}
	return id, ok
}

func (h baseHandler) pathID(ctx *fasthttp.RequestCtx, name string) (int64, bool) {
	raw, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respond(ctx, http.StatusNotFound, nil, "Not found.")
		return 0, false
	}
	return id, true
}

// pageParams reads page (a number or "last") and per_page, capped at the configured maximum.
func (h baseHandler) pageParams(ctx *fasthttp.RequestCtx) (int, int, bool) {
	args := ctx.QueryArgs()

	number := 1
	if raw := string(args.Peek("page")); raw != "" {
		if raw == "last" {
			number = domain.PageLast
		} else if n, err := strconv.Atoi(raw); err == nil {
			number = n
		} else {
			h.respond(ctx, http.StatusNotFound, nil, domain.ErrInvalidPage.Message)
			return 0, 0, false
		}
	}

	perPage := h.pageSize
	if n, err := strconv.Atoi(string(args.Peek("per_page"))); err == nil && n > 0 {
		perPage = n
	}
	if perPage > h.maxPage {
		perPage = h.maxPage
	}
	return number, perPage, true
}

// urls resolves media paths against PUBLIC_BASE_URL or, when unset, the request host.
func (h baseHandler) urls(ctx *fasthttp.RequestCtx) media.Resolver {
	scheme := "http"
	if ctx.IsTLS() || strings.EqualFold(string(ctx.Request.Header.Peek("X-Forwarded-Proto")), "https") {
		scheme = "https"
	}
	return media.NewResolver(h.publicBase, scheme, string(ctx.Host()))
}
