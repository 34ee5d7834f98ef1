package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskhub/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyUserID     Key = "user_id"
)

// UserValueUserID is the fasthttp user value under which the auth middleware stores the caller id.
const UserValueUserID = "auth_user_id"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with request metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if userID, ok := UserID(ctx); ok {
		stdCtx = context.WithValue(stdCtx, KeyUserID, userID)
		stdCtx = appLogger.ContextWithUserID(stdCtx, userID)
	}

	return stdCtx, cancel
}

// RequestID returns the inbound X-Request-ID or a fresh one, reusing it for the rest of the request.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue("request_id").(string); ok {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID")))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue("request_id", id)
	return id
}

// SetUserID records the authenticated caller on the request.
func SetUserID(ctx *fasthttp.RequestCtx, userID int64) {
	ctx.SetUserValue(UserValueUserID, userID)
}

// UserID returns the authenticated caller recorded by SetUserID.
func UserID(ctx *fasthttp.RequestCtx) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.UserValue(UserValueUserID).(int64)
	return id, ok && id > 0
}

// UserIDFromContext reads the caller id copied into a context by Attach.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(KeyUserID).(int64)
	return id, ok
}
