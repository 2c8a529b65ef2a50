package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCountingServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestFetchOrCachedServesCacheWithinTTL(t *testing.T) {
	srv, calls := newCountingServer(t, http.StatusOK, `[{"casa":"blue"}]`)
	fetch := NewFetchService(WithRateLimit(100))
	ctx := context.Background()

	body, ok := fetch.FetchOrCached(ctx, srv.URL, time.Minute)
	require.True(t, ok)
	assert.Equal(t, `[{"casa":"blue"}]`, string(body))

	body, ok = fetch.FetchOrCached(ctx, srv.URL, time.Minute)
	require.True(t, ok)
	assert.Equal(t, `[{"casa":"blue"}]`, string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchOrCachedRefetchesAfterTTL(t *testing.T) {
	srv, calls := newCountingServer(t, http.StatusOK, `[]`)
	fetch := NewFetchService(WithRateLimit(100))
	ctx := context.Background()

	_, ok := fetch.FetchOrCached(ctx, srv.URL, 20*time.Millisecond)
	require.True(t, ok)
	time.Sleep(60 * time.Millisecond)
	_, ok = fetch.FetchOrCached(ctx, srv.URL, 20*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestFetchOrCachedInvalidate(t *testing.T) {
	srv, calls := newCountingServer(t, http.StatusOK, `[]`)
	fetch := NewFetchService(WithRateLimit(100))
	ctx := context.Background()

	_, _ = fetch.FetchOrCached(ctx, srv.URL, 0)
	fetch.Invalidate(srv.URL)
	_, _ = fetch.FetchOrCached(ctx, srv.URL, 0)
	fetch.Flush()
	_, _ = fetch.FetchOrCached(ctx, srv.URL, 0)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestFetchOrCachedFailuresYieldNoData(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `boom`},
		{"not found", http.StatusNotFound, `[]`},
		{"empty body", http.StatusOK, "  \n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv, calls := newCountingServer(t, tc.status, tc.body)
			fetch := NewFetchService(WithRateLimit(100))

			body, ok := fetch.FetchOrCached(ctx, srv.URL, time.Minute)
			assert.False(t, ok)
			assert.Nil(t, body)

			// Failures are not cached.
			_, _ = fetch.FetchOrCached(ctx, srv.URL, time.Minute)
			assert.Equal(t, int32(2), atomic.LoadInt32(calls))
		})
	}
}

func TestFetchOrCachedTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	fetch := NewFetchService(WithTimeout(time.Second))
	body, ok := fetch.FetchOrCached(context.Background(), url, time.Minute)
	assert.False(t, ok)
	assert.Nil(t, body)
}

func TestFetchOrCachedCancelledContext(t *testing.T) {
	srv, calls := newCountingServer(t, http.StatusOK, `[]`)
	fetch := NewFetchService(WithRateLimit(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := fetch.FetchOrCached(ctx, srv.URL, time.Minute)
	assert.False(t, ok)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}
