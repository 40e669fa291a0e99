package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Live reports that the process is serving.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether every dependency answers.
func (h *Handler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.health.Ready(ctx); err != nil {
		h.logger.Warn(ctx, "not ready", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": h.health.Report(ctx)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
