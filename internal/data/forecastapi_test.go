package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastClient_RelaysStatusAndBody(t *testing.T) {
	var gotPath, gotQuery, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"success": true, "data": {"n": 1}}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, "", time.Second, nil)
	resp, err := c.Fetch(context.Background(), "", "/api/warehouse-forecast", url.Values{"horizon": {"6"}})
	require.NoError(t, err)

	assert.Equal(t, "/api/warehouse-forecast", gotPath)
	assert.Equal(t, "horizon=6", gotQuery)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, `{"success": true, "data": {"n": 1}}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.ContentType)
	assert.True(t, resp.OK())
	assert.NoError(t, resp.Err())
}

func TestForecastClient_NonOKIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, "", time.Second, nil)
	resp, err := c.Fetch(context.Background(), "", "/api/partner-demand", nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())

	var upErr *UpstreamError
	require.ErrorAs(t, resp.Err(), &upErr)
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Equal(t, "API server returned status 401", upErr.Error())
	assert.Equal(t, `{"detail":"Not authenticated"}`, string(upErr.Body))
}

func TestForecastClient_SendsBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, "tok-123", time.Second, nil)
	_, err := c.Fetch(context.Background(), "", "/api/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", auth)

	c.Token = ""
	_, err = c.Fetch(context.Background(), "", "/api/x", nil)
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestForecastClient_PerCallBaseURL(t *testing.T) {
	var hits atomic.Int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"from":"other"}`))
	}))
	defer other.Close()

	c := NewForecastClient("http://127.0.0.1:1", "", time.Second, nil)
	resp, err := c.Fetch(context.Background(), other.URL+"/", "api/inventory-level", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"from":"other"}`, string(resp.Body))
	assert.EqualValues(t, 1, hits.Load())
}

func TestForecastClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	c := NewForecastClient(target, "", time.Second, nil)
	_, err := c.Fetch(context.Background(), "", "/api/x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute request")
}

func TestForecastClient_CachesOnlySuccess(t *testing.T) {
	var hits atomic.Int32
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, "", time.Second, nil)
	c.Cache = NewResponseCache(time.Minute)
	defer c.Cache.Close()

	first, err := c.Fetch(context.Background(), "", "/api/a", nil)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := c.Fetch(context.Background(), "", "/api/a", nil)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Body, second.Body)
	assert.EqualValues(t, 1, hits.Load())

	status = http.StatusBadGateway
	_, err = c.Fetch(context.Background(), "", "/api/b", nil)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "", "/api/b", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, hits.Load(), "non-2xx responses are never cached")
}

func TestForecastClient_URL(t *testing.T) {
	c := NewForecastClient("http://api.example.com/", "", 0, nil)
	got, err := c.URL("", "/api/inventory-level", url.Values{"periods": {"12"}, "method": {"arima"}})
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com/api/inventory-level?method=arima&periods=12", got)

	_, err = c.URL("://bad", "x", nil)
	require.Error(t, err)
}

func TestForecastClient_RejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/fits":
			_, _ = w.Write([]byte(`{"n":12345}`))
		default:
			_, _ = w.Write([]byte(`{"n":123456}`))
		}
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, "", time.Second, nil)
	c.MaxBodyBytes = 11

	resp, err := c.Fetch(context.Background(), "", "/api/fits", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"n":12345}`, string(resp.Body), "a body exactly at the limit is kept whole")

	resp, err = c.Fetch(context.Background(), "", "/api/too-big", nil)
	require.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "exceeds 11 bytes")
}

func TestForecastClient_FetchFreshSkipsCache(t *testing.T) {
	var hits atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, "", time.Second, nil)
	c.Cache = NewResponseCache(time.Minute)
	defer c.Cache.Close()

	_, err := c.Fetch(context.Background(), "", "/api/a", nil)
	require.NoError(t, err)

	status.Store(http.StatusServiceUnavailable)
	cached, err := c.Fetch(context.Background(), "", "/api/a", nil)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, http.StatusOK, cached.StatusCode)

	fresh, err := c.FetchFresh(context.Background(), "", "/api/a", nil)
	require.NoError(t, err)
	assert.False(t, fresh.Cached)
	assert.Equal(t, http.StatusServiceUnavailable, fresh.StatusCode)
	assert.EqualValues(t, 2, hits.Load())
}
