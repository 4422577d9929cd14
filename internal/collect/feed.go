package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/settlerhq/settler/internal/cache"
	"github.com/settlerhq/settler/internal/model"
	"github.com/settlerhq/settler/internal/util"
	"github.com/settlerhq/settler/internal/worker"
)

// FeedFetcher retrieves the raw feed payload for one search query.
// Implementations are injectable so tests and alternative feeds can
// replace the HTTP path.
type FeedFetcher interface {
	Fetch(ctx context.Context, query string) ([]byte, error)
}

// Fetcher fetches the news-search feed through an ordered list of base
// URLs, normally an HTTPS text-extraction proxy with a plain-HTTP
// fallback. The final error propagates only if every base fails.
type Fetcher struct {
	client    *http.Client
	bases     []string
	userAgent string
	maxBytes  int64
	ttl       time.Duration
	cache     cache.Cache
	limiter   *worker.Limiter
	robots    *util.RobotsChecker
}

// NewFetcher builds the default HTTP fetcher from feed configuration.
func NewFetcher(cfg model.FeedConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	var robots *util.RobotsChecker
	if cfg.RespectRobots {
		robots = util.NewRobotsChecker(cfg.UserAgent, timeout)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc("", ""),
			},
		},
		bases:     cfg.BaseURLs,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		ttl:       ttl,
		cache:     cache.NewMemory(ttl, 2*ttl),
		limiter:   worker.NewLimiter(rps, cfg.Burst),
		robots:    robots,
	}
}

// Fetch tries each base in order and returns the first successful body.
func (f *Fetcher) Fetch(ctx context.Context, query string) ([]byte, error) {
	if len(f.bases) == 0 {
		return nil, errors.New("no feed base URLs configured")
	}

	var lastErr error
	for _, base := range f.bases {
		full := base + url.QueryEscape(query)
		key := cache.Key(full)
		if body, ok := f.cache.Get(key); ok {
			return body, nil
		}

		body, err := f.fetchOne(ctx, full)
		if err != nil {
			lastErr = err
			continue
		}
		f.cache.Set(key, body, f.ttl)
		return body, nil
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOne(ctx context.Context, fullURL string) ([]byte, error) {
	if f.robots != nil && !f.robots.Allowed(ctx, fullURL) {
		return nil, fmt.Errorf("robots.txt disallows %s", fullURL)
	}
	if err := f.limiter.Wait(ctx, fullURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/xml;q=0.9,text/html;q=0.8,*/*;q=0.7")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	limit := f.maxBytes
	if limit <= 0 {
		limit = 2_000_000
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
