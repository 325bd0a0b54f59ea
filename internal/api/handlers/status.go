package handlers

import (
	"net/http"

	"forecast-portal/internal/proxy"

	"github.com/gin-gonic/gin"
)

// StatusHandler probes every feature's upstream endpoint
type StatusHandler struct {
	relay *proxy.Relay
}

func NewStatusHandler(relay *proxy.Relay) *StatusHandler {
	return &StatusHandler{relay: relay}
}

// Probe handles GET /api/v1/status
func (h *StatusHandler) Probe(c *gin.Context) {
	c.JSON(http.StatusOK, h.relay.ProbeAll(c.Request.Context()))
}
