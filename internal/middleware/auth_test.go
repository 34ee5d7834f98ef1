package middleware

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskhub/pkg/httpcontext"
	"github.com/fastygo/taskhub/pkg/token"
)

func run(t *testing.T, tokens *token.Manager, header string) (*fasthttp.RequestCtx, int64) {
	t.Helper()
	var seen int64
	handler := JWTAuth(tokens, nil)(func(ctx *fasthttp.RequestCtx) {
		seen, _ = httpcontext.UserID(ctx)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	ctx := &fasthttp.RequestCtx{}
	if header != "" {
		ctx.Request.Header.Set("Authorization", header)
	}
	handler(ctx)
	return ctx, seen
}

func message(t *testing.T, ctx *fasthttp.RequestCtx) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	return body.Message
}

func TestJWTAuth(t *testing.T) {
	tokens := token.NewManager("secret", "taskhub", time.Minute, time.Hour)
	access, _, err := tokens.Issue(42, token.Access)
	require.NoError(t, err)
	refresh, _, err := tokens.Issue(42, token.Refresh)
	require.NoError(t, err)

	ctx, seen := run(t, tokens, "Bearer "+access)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, int64(42), seen)

	ctx, _ = run(t, tokens, "")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Equal(t, msgNoCredentials, message(t, ctx))

	ctx, _ = run(t, tokens, "Bearer "+refresh)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Equal(t, msgInvalidToken, message(t, ctx))

	ctx, _ = run(t, tokens, "Bearer garbage")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}
