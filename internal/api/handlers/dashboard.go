package handlers

import (
	"net/http"

	"forecast-portal/internal/api/models"
	"forecast-portal/internal/config"
	"forecast-portal/internal/page"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler serves the per-feature HTML shells
type DashboardHandler struct {
	cfg      *config.Config
	renderer *page.Renderer
	logger   *zap.Logger
}

func NewDashboardHandler(cfg *config.Config, renderer *page.Renderer, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{cfg: cfg, renderer: renderer, logger: logger.Named("dashboard")}
}

// Serve handles GET /dashboards/:feature
func (h *DashboardHandler) Serve(c *gin.Context) {
	slug := c.Param("feature")
	feature, ok := h.cfg.Feature(slug)
	if !ok {
		c.JSON(http.StatusNotFound, models.Failure("Unknown dashboard", slug))
		return
	}

	base := page.BaseURL(c.Request, h.cfg.Server.PublicBaseURL, h.cfg.Server.TrustForwardedProto)
	doc, err := h.renderer.Render(feature, base)
	if err != nil {
		h.logger.Error("render failed", zap.String("feature", slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.Failure("Failed to load dashboard", err.Error()))
		return
	}
	if h.cfg.Server.PublicBaseURL == "" {
		// URLs in the page came from request headers
		c.Header("Cache-Control", "no-store")
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}
