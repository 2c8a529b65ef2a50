package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/username/dolarhistorico/src/logger"
)

const (
	DefaultCacheTTL  = time.Hour
	DefaultTimeout   = 20 * time.Second
	DefaultRateLimit = 5 // requests per second

	maxResponseBytes = 10 << 20
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// FetchService performs GET requests and keeps successful bodies in a TTL cache keyed by URL.
type FetchService struct {
	httpClient *http.Client
	cache      *cache.Cache
	limiter    *rate.Limiter
	defaultTTL time.Duration
	log        *slog.Logger
}

var _ Fetcher = (*FetchService)(nil)

// FetchOption configures the FetchService.
type FetchOption func(*FetchService)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(s *FetchService) {
		s.httpClient = c
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) FetchOption {
	return func(s *FetchService) {
		if timeout > 0 {
			s.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit sets the outbound rate limit.
func WithRateLimit(requestsPerSecond int) FetchOption {
	return func(s *FetchService) {
		if requestsPerSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithDefaultTTL sets the TTL used when a caller passes none.
func WithDefaultTTL(ttl time.Duration) FetchOption {
	return func(s *FetchService) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) FetchOption {
	return func(s *FetchService) {
		s.log = l
	}
}

func NewFetchService(opts ...FetchOption) *FetchService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		slog.Error("Failed to create cookie jar", "error", err)
	}

	s := &FetchService{
		httpClient: &http.Client{Jar: jar, Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		defaultTTL: DefaultCacheTTL,
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = cache.New(s.defaultTTL, 2*s.defaultTTL)
	return s
}

// FetchOrCached returns the body for url, from the cache when a copy younger than ttl exists.
// On a miss exactly one request is made. Transport failures, non-2xx answers and empty
// bodies all yield (nil, false).
func (s *FetchService) FetchOrCached(ctx context.Context, url string, ttl time.Duration) ([]byte, bool) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	log := s.log.With("url", url)

	if cached, found := s.cache.Get(url); found {
		log.Debug("Fetch cache hit")
		return cached.([]byte), true
	}

	if err := s.limiter.Wait(ctx); err != nil {
		log.Warn("Rate limit wait aborted", "error", err)
		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Warn("Failed to build request", "error", err)
		return nil, false
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn("Request failed", "error", err, "elapsed", elapsed)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		log.Warn("Upstream returned non-success status", "status", resp.StatusCode, "elapsed", elapsed)
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("Failed to read response body", "error", err)
		return nil, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		log.Warn("Upstream returned an empty body", "status", resp.StatusCode)
		return nil, false
	}

	s.cache.Set(url, body, ttl)
	log.Debug("Fetched and cached", "bytes", len(body), "ttl", ttl, "elapsed", elapsed)
	return body, true
}

// Invalidate drops the cached copy of url.
func (s *FetchService) Invalidate(url string) {
	s.cache.Delete(url)
}

// Flush drops every cached body.
func (s *FetchService) Flush() {
	s.cache.Flush()
}
