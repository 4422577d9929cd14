// Package collect builds search queries from a market's text and turns a
// public news feed into ranked outcome signals.
package collect

import (
	"context"
	"log/slog"
	"strings"

	"github.com/settlerhq/settler/internal/model"
)

// Collector gathers outcome signals for a request. Per-query failures are
// logged and skipped; only a check with zero queries succeeding produces
// zero signals, which the pipeline reports as PENDING.
type Collector struct {
	fetcher  FeedFetcher
	perQuery int
	total    int
	logger   *slog.Logger
}

// NewCollector creates a collector around the given fetcher.
func NewCollector(fetcher FeedFetcher, cfg model.FeedConfig, logger *slog.Logger) *Collector {
	perQuery := cfg.MaxSignalsPerQuery
	if perQuery <= 0 {
		perQuery = 6
	}
	total := cfg.MaxSignalsTotal
	if total <= 0 {
		total = perQuery * 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		fetcher:  fetcher,
		perQuery: perQuery,
		total:    total,
		logger:   logger,
	}
}

// Queries returns the ordered search queries for a request: the question,
// the resolution criteria if present, the joined option keywords, and the
// market id for disambiguation.
func (c *Collector) Queries(req model.OutcomeRequest) []string {
	var queries []string
	if q := strings.TrimSpace(req.Question); q != "" {
		queries = append(queries, q)
	}
	if rc := strings.TrimSpace(req.ResolutionCriteria); rc != "" {
		queries = append(queries, rc)
	}
	if kws := req.Keywords(); len(kws) > 0 {
		queries = append(queries, strings.Join(kws, " "))
	}
	if id := strings.TrimSpace(req.MarketID); id != "" {
		queries = append(queries, id)
	}
	return queries
}

// Collect fetches and parses every query's feed into signals, bounded per
// query and in total.
func (c *Collector) Collect(ctx context.Context, req model.OutcomeRequest) []model.OutcomeSignal {
	var signals []model.OutcomeSignal
	for _, query := range c.Queries(req) {
		if len(signals) >= c.total {
			break
		}

		body, err := c.fetcher.Fetch(ctx, query)
		if err != nil {
			c.logger.Warn("feed query failed",
				"market", req.MarketID, "query", query, "error", err)
			continue
		}

		taken := 0
		for _, sig := range parseSignals(body) {
			if taken >= c.perQuery || len(signals) >= c.total {
				break
			}
			signals = append(signals, sig)
			taken++
		}
	}
	return signals
}
