package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"forecast-portal/internal/api/middleware"
	"forecast-portal/internal/api/models"
	"forecast-portal/internal/config"
	"forecast-portal/internal/journal"
	"forecast-portal/internal/proxy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProxyHandler relays dashboard requests to the forecasting API
type ProxyHandler struct {
	cfg     *config.Config
	relay   *proxy.Relay
	journal *journal.Journal
	logger  *zap.Logger
}

// NewProxyHandler creates a new proxy handler. j may be nil.
func NewProxyHandler(cfg *config.Config, relay *proxy.Relay, j *journal.Journal, logger *zap.Logger) *ProxyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProxyHandler{cfg: cfg, relay: relay, journal: j, logger: logger.Named("proxy")}
}

// Relay handles ANY /proxy/:feature
func (h *ProxyHandler) Relay(c *gin.Context) {
	middleware.ProxyCORS(c)
	if c.Request.Method == http.MethodOptions {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	slug := c.Param("feature")
	res := h.resolve(c, slug)
	h.record(c, slug, res)

	c.Data(res.StatusCode, res.ContentType, res.Body)
}

func (h *ProxyHandler) resolve(c *gin.Context, slug string) *proxy.Result {
	feature, ok := h.cfg.Feature(slug)
	if !ok {
		return proxy.Failed(fmt.Errorf("feature %q is not configured", slug))
	}

	req := proxy.Request{Query: c.Request.URL.Query()}
	if feature.Transform == config.TransformForecast {
		var q models.ForecastQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			return proxy.BadRequest(err.Error())
		}
		req.Forecast = proxy.ForecastParams{Metric: q.Metric, Periods: q.Periods, Method: q.Method}
	}
	return h.relay.Do(c.Request.Context(), feature, req)
}

func (h *ProxyHandler) record(c *gin.Context, slug string, res *proxy.Result) {
	if h.journal == nil {
		return
	}
	entry := journal.Entry{
		Feature:     slug,
		RequestID:   middleware.RequestIDFrom(c),
		Method:      c.Request.Method,
		UpstreamURL: res.UpstreamURL,
		StatusCode:  res.StatusCode,
		Outcome:     res.Outcome,
		Cached:      res.Cached,
		Duration:    res.Duration.Milliseconds(),
	}
	if !res.Success() && res.Err != nil {
		entry.Detail = res.Err.Error()
	}

	// the client may already be gone; the journal write should still land
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
	defer cancel()
	if err := h.journal.Record(ctx, entry); err != nil {
		h.logger.Warn("journal write failed", zap.String("feature", slug), zap.Error(err))
	}
}
