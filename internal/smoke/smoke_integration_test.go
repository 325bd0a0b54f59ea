//go:build integration

package smoke

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forecast-portal/internal/api"
	"forecast-portal/internal/config"
	"forecast-portal/internal/data"
	"forecast-portal/internal/page"
	"forecast-portal/internal/proxy"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, upstream http.HandlerFunc) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	cfg := config.Default()
	cfg.Upstream.BaseURL = up.URL
	for i := range cfg.Features {
		cfg.Features[i].BaseURL = ""
	}
	client := data.NewForecastClient(up.URL, "", 5*time.Second, nil)
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Config:   cfg,
		Relay:    proxy.New(cfg, client, nil),
		Renderer: page.Configured(cfg),
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestCheck_Loaded(t *testing.T) {
	base := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"current_state":{"capacity_analysis":{}},"network_optimization_summary":{}}}`))
	})

	report, err := Check(context.Background(), base+"/dashboards/warehouse-capacity", Options{Timeout: 60 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, report.State)
}

func TestCheck_UpstreamError(t *testing.T) {
	base := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
	})

	report, err := Check(context.Background(), base+"/dashboards/partner-trend", Options{Timeout: 60 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, StateError, report.State)
	assert.Contains(t, report.Message, "API server returned status 401")
}
