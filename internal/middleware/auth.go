package middleware

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskhub/api/transport"
	"github.com/fastygo/taskhub/pkg/httpcontext"
	"github.com/fastygo/taskhub/pkg/token"
)

const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgInvalidToken  = "Given token not valid for any token type"
)

// JWTAuth admits requests carrying a valid access token and records the caller id on the request.
func JWTAuth(tokens *token.Manager, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			raw := extractToken(ctx)
			if raw == "" {
				unauthorized(ctx, msgNoCredentials)
				return
			}

			claims, err := tokens.Parse(raw, token.Access)
			if err != nil {
				logger.Warn("rejected access token",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.Error(err))
				unauthorized(ctx, msgInvalidToken)
				return
			}

			httpcontext.SetUserID(ctx, claims.UserID)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewResponse(nil, fasthttp.StatusUnauthorized, message, nil))
	ctx.Response.Header.Set("WWW-Authenticate", `Bearer realm="api"`)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}
