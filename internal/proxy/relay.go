// Package proxy implements the relay between a dashboard and the forecasting
// API: one outbound GET per request, upstream status and body passed through
// on success, and a {success:false} envelope for everything else.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"forecast-portal/internal/api/models"
	"forecast-portal/internal/config"
	"forecast-portal/internal/data"
	"forecast-portal/internal/journal"
	"forecast-portal/internal/model"

	"go.uber.org/zap"
)

const (
	MsgFetchFailed   = "Failed to fetch data from API server"
	MsgMalformed     = "Malformed payload from API server"
	MsgUnknownMetric = "Unknown metric"
	MsgInvalidParams = "Invalid request parameters"
)

const jsonContentType = "application/json; charset=utf-8"

// ForecastParams are the query parameters of the transforming forecast variant.
type ForecastParams struct {
	Metric string
	// Periods is nil when the caller did not ask for a horizon.
	Periods *int
	Method  string
}

// Request is one inbound proxy call.
type Request struct {
	Forecast ForecastParams
	// Query is the raw inbound query; only the feature's forward_query keys
	// are passed upstream.
	Query url.Values
	// NoCache forces a live upstream call.
	NoCache bool
}

// Result is what the proxy answers with, ready to be written to the client.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Outcome     journal.Outcome
	UpstreamURL string
	Cached      bool
	Duration    time.Duration
	Err         error
}

// Success reports whether the relay produced a 2xx pass-through.
func (r *Result) Success() bool {
	return r.Outcome == journal.OutcomeOK
}

type Relay struct {
	cfg    *config.Config
	client *data.ForecastClient
	logger *zap.Logger
}

func New(cfg *config.Config, client *data.ForecastClient, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{cfg: cfg, client: client, logger: logger.Named("proxy")}
}

// Do performs the relay for one feature.
func (r *Relay) Do(ctx context.Context, feature *config.FeatureConfig, req Request) *Result {
	start := time.Now()
	res := r.do(ctx, feature, req)
	res.Duration = time.Since(start)
	return res
}

func (r *Relay) do(ctx context.Context, feature *config.FeatureConfig, req Request) *Result {
	path, query, bad := r.resolve(feature, req)
	if bad != nil {
		return bad
	}

	base := feature.UpstreamBase(r.cfg.Upstream)
	target, _ := r.client.URL(base, path, query)

	fetch := r.client.Fetch
	if req.NoCache {
		fetch = r.client.FetchFresh
	}
	resp, err := fetch(ctx, base, path, query)
	if err != nil {
		r.logger.Warn("upstream fetch failed", zap.String("feature", feature.Slug), zap.Error(err))
		res := failure(http.StatusInternalServerError, journal.OutcomeTransportError, MsgFetchFailed, err.Error())
		res.UpstreamURL = target
		res.Err = err
		return res
	}

	if !resp.OK() {
		upErr := resp.Err()
		res := failure(resp.StatusCode, journal.OutcomeUpstreamError, upErr.Error(), string(resp.Body))
		res.UpstreamURL = target
		res.Err = upErr
		return res
	}

	body := resp.Body
	contentType := resp.ContentType
	if contentType == "" {
		contentType = jsonContentType
	}
	if feature.Transform == config.TransformForecast {
		body, err = data.TransformForecast(resp.Body)
		if err != nil {
			r.logger.Warn("upstream payload rejected", zap.String("feature", feature.Slug), zap.Error(err))
			res := failure(http.StatusInternalServerError, journal.OutcomeMalformed, MsgMalformed, err.Error())
			res.UpstreamURL = target
			res.Err = err
			return res
		}
		contentType = jsonContentType
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
		Outcome:     journal.OutcomeOK,
		UpstreamURL: target,
		Cached:      resp.Cached,
	}
}

// resolve works out the upstream path and query. A non-nil Result means the
// inbound request was rejected.
func (r *Relay) resolve(feature *config.FeatureConfig, req Request) (string, url.Values, *Result) {
	if feature.Transform != config.TransformForecast {
		query := url.Values{}
		for _, key := range feature.ForwardQuery {
			if vals, ok := req.Query[key]; ok {
				query[key] = vals
			}
		}
		return feature.UpstreamPath, query, nil
	}

	p := req.Forecast
	metric, ok := model.LookupMetric(p.Metric)
	if !ok {
		res := failure(http.StatusBadRequest, journal.OutcomeBadRequest, MsgUnknownMetric,
			fmt.Sprintf("metric %q is not one of the supported metrics", p.Metric))
		return "", nil, res
	}
	periods := model.DefaultPeriods
	if p.Periods != nil {
		periods = *p.Periods
	}
	if periods < model.MinPeriods || periods > model.MaxPeriods {
		res := failure(http.StatusBadRequest, journal.OutcomeBadRequest, MsgInvalidParams,
			fmt.Sprintf("periods must be between %d and %d", model.MinPeriods, model.MaxPeriods))
		return "", nil, res
	}
	if p.Method == "" {
		p.Method = model.MethodARIMA
	}
	if !model.ValidMethod(p.Method) {
		res := failure(http.StatusBadRequest, journal.OutcomeBadRequest, MsgInvalidParams,
			fmt.Sprintf("method must be %q or %q", model.MethodARIMA, model.MethodExponentialSmoothing))
		return "", nil, res
	}

	query := url.Values{}
	query.Set("periods", strconv.Itoa(periods))
	query.Set("method", p.Method)
	return feature.UpstreamPath + "/" + metric.Path, query, nil
}

// BadRequest builds the 400 result for a request rejected before relaying.
func BadRequest(details string) *Result {
	return failure(http.StatusBadRequest, journal.OutcomeBadRequest, MsgInvalidParams, details)
}

// Failed builds the 500 result for a failure outside the upstream call.
func Failed(err error) *Result {
	res := failure(http.StatusInternalServerError, journal.OutcomeTransportError, MsgFetchFailed, err.Error())
	res.Err = err
	return res
}

func failure(status int, outcome journal.Outcome, message, details string) *Result {
	body, err := json.Marshal(models.Failure(message, details))
	if err != nil {
		body = []byte(`{"success":false}`)
	}
	return &Result{
		StatusCode:  status,
		ContentType: jsonContentType,
		Body:        body,
		Outcome:     outcome,
		Err:         errors.New(message),
	}
}
