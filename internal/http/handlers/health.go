package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-certificates/internal/observability"
)

type HealthHandler struct {
	metrics *observability.Metrics
}

func NewHealthHandler(metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{metrics: metrics}
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /metrics
func (h *HealthHandler) Metrics(c *gin.Context) {
	h.metrics.WriteHTTP(c.Writer, c.Request)
}
