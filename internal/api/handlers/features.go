package handlers

import (
	"net/http"

	"forecast-portal/internal/api/models"
	"forecast-portal/internal/config"
	"forecast-portal/internal/page"

	"github.com/gin-gonic/gin"
)

// FeatureHandler lists the configured dashboards
type FeatureHandler struct {
	cfg *config.Config
}

func NewFeatureHandler(cfg *config.Config) *FeatureHandler {
	return &FeatureHandler{cfg: cfg}
}

// ListFeatures handles GET /api/v1/features
func (h *FeatureHandler) ListFeatures(c *gin.Context) {
	base := page.BaseURL(c.Request, h.cfg.Server.PublicBaseURL, h.cfg.Server.TrustForwardedProto)
	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: FeatureInfos(h.cfg, base)})
}

// FeatureInfos describes every configured feature with URLs under base.
func FeatureInfos(cfg *config.Config, base string) []models.FeatureInfo {
	out := make([]models.FeatureInfo, 0, len(cfg.Features))
	for _, f := range cfg.Features {
		out = append(out, models.FeatureInfo{
			Slug:         f.Slug,
			Title:        f.Title,
			Description:  f.Description,
			DashboardURL: page.DashboardURL(base, f.Slug),
			ProxyURL:     page.ProxyURL(base, f.Slug),
			Transform:    f.Transform,
		})
	}
	return out
}
