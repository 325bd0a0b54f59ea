package api

import (
	"fmt"

	"forecast-portal/internal/config"
	"forecast-portal/internal/data"
	"forecast-portal/internal/journal"
	"forecast-portal/internal/page"
	"forecast-portal/internal/proxy"

	"go.uber.org/zap"
)

// BuildDeps wires the upstream client, response cache, journal and renderer
// described by cfg. The returned close func releases the cache and journal.
func BuildDeps(cfg *config.Config, logger *zap.Logger) (Deps, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout, err := cfg.Upstream.TimeoutDuration()
	if err != nil {
		return Deps{}, nil, err
	}
	ttl, err := cfg.Upstream.CacheTTLDuration()
	if err != nil {
		return Deps{}, nil, err
	}

	client := data.NewForecastClient(cfg.Upstream.BaseURL, cfg.Upstream.Token, timeout, logger)
	client.Cache = data.NewResponseCache(ttl)

	var j *journal.Journal
	if cfg.Journal.Path != "" {
		j, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			client.Cache.Close()
			return Deps{}, nil, fmt.Errorf("journal: %w", err)
		}
	}

	closeFn := func() error {
		client.Cache.Close()
		return j.Close()
	}

	return Deps{
		Config:   cfg,
		Relay:    proxy.New(cfg, client, logger),
		Renderer: page.Configured(cfg),
		Journal:  j,
		Logger:   logger,
	}, closeFn, nil
}
