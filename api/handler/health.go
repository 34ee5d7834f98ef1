package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskhub/internal/infrastructure/monitor"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, common Common) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(common),
		monitor:     mon,
	}
}

type outboxHealth struct {
	Online bool `json:"online"`
	Size   int  `json:"size"`
}

type healthView struct {
	Timestamp string         `json:"timestamp"`
	Services  map[string]any `json:"services"`
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	status := h.monitor.Check(stdCtx)
	payload := healthView{
		Timestamp: status.LastCheck.UTC().Format(time.RFC3339),
		Services: map[string]any{
			"database": status.Database,
			"redis":    status.Redis,
			"outbox":   outboxHealth{Online: status.Outbox, Size: status.OutboxSize},
		},
	}

	if status.Healthy() {
		h.respond(ctx, http.StatusOK, payload, "")
		return
	}
	h.respond(ctx, http.StatusServiceUnavailable, payload, "dependencies unhealthy")
}
