package proxy

import (
	"context"
	"fmt"

	"forecast-portal/internal/api/models"

	"golang.org/x/sync/errgroup"
)

// probeConcurrency bounds simultaneous upstream probes.
const probeConcurrency = 4

// ProbeAll relays every configured feature once, with default parameters, and
// summarizes which upstream endpoints answered successfully. Probes always hit
// the upstream, never the response cache. Results keep the configured feature
// order.
func (r *Relay) ProbeAll(ctx context.Context) models.StatusResponse {
	results := make([]models.ProbeResult, len(r.cfg.Features))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)
	for i := range r.cfg.Features {
		i := i
		feature := &r.cfg.Features[i]
		g.Go(func() error {
			res := r.Do(gctx, feature, Request{NoCache: true})
			pr := models.ProbeResult{
				Feature:    feature.Slug,
				Success:    res.Success(),
				StatusCode: res.StatusCode,
				DurationMS: res.Duration.Milliseconds(),
				Outcome:    string(res.Outcome),
				Cached:     res.Cached,
			}
			if !res.Success() && res.Err != nil {
				pr.Error = res.Err.Error()
			}
			results[i] = pr
			return nil
		})
	}
	_ = g.Wait()

	successful := 0
	for _, pr := range results {
		if pr.Success {
			successful++
		}
	}
	rate := 0.0
	if len(results) > 0 {
		rate = float64(successful) / float64(len(results)) * 100
	}
	return models.StatusResponse{
		Success: successful == len(results),
		Summary: models.StatusSummary{
			Successful:  successful,
			Total:       len(results),
			SuccessRate: fmt.Sprintf("%.1f%%", rate),
		},
		Results: results,
	}
}
