package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gsarma/courier/internal/logger"
)

// Health is 200 only when the database answers. An unreachable mail service
// is reported but does not fail the check, since sends are best-effort.
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	resp := gin.H{"status": "ok", "database": "ok"}
	code := http.StatusOK

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			logger.From(ctx).Warn("health: database ping failed", zap.Error(err))
			resp["status"] = "degraded"
			resp["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	if h.mail != nil {
		if h.mail.CheckHealth(ctx) {
			resp["emailService"] = "ok"
		} else {
			resp["emailService"] = "unreachable"
		}
	}
	c.JSON(code, resp)
}
