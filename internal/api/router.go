// Package api wires the HTTP surface: dashboards, the proxy, static assets
// and the JSON management endpoints.
package api

import (
	"net/http"
	"strings"

	"forecast-portal/internal/api/handlers"
	"forecast-portal/internal/api/middleware"
	"forecast-portal/internal/api/models"
	"forecast-portal/internal/config"
	"forecast-portal/internal/journal"
	"forecast-portal/internal/page"
	"forecast-portal/internal/proxy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the collaborators the router hands to its handlers.
type Deps struct {
	Config   *config.Config
	Relay    *proxy.Relay
	Renderer *page.Renderer
	Journal  *journal.Journal
	Logger   *zap.Logger
}

// NewRouter builds the gin engine.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))

	dashboardHandler := handlers.NewDashboardHandler(d.Config, d.Renderer, logger)
	proxyHandler := handlers.NewProxyHandler(d.Config, d.Relay, d.Journal, logger)
	featureHandler := handlers.NewFeatureHandler(d.Config)
	statusHandler := handlers.NewStatusHandler(d.Relay)
	journalHandler := handlers.NewJournalHandler(d.Journal, logger)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/features", featureHandler.ListFeatures)
		api.GET("/status", statusHandler.Probe)
		api.GET("/journal", journalHandler.ListExchanges)
	}

	router.GET("/dashboards/:feature", dashboardHandler.Serve)
	router.Any("/proxy/:feature", proxyHandler.Relay)
	router.StaticFS("/assets", http.FS(d.Renderer.Assets()))

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		switch {
		case c.Request.Method == http.MethodOptions:
			c.Status(http.StatusNoContent)
		case strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/proxy"):
			c.JSON(http.StatusNotFound, models.Failure("Not found", path))
		case len(d.Config.Features) > 0 && (c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead):
			c.Redirect(http.StatusFound, "/dashboards/"+d.Config.Features[0].Slug)
		default:
			c.JSON(http.StatusNotFound, models.Failure("Not found", path))
		}
	})

	return router
}
