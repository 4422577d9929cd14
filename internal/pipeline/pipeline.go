// Package pipeline orchestrates one oracle check: collect signals,
// aggregate a heuristic verdict, and optionally let the LLM corroborate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/settlerhq/settler/internal/collect"
	"github.com/settlerhq/settler/internal/extract"
	"github.com/settlerhq/settler/internal/llm"
	"github.com/settlerhq/settler/internal/model"
	"github.com/settlerhq/settler/internal/scale"
	"github.com/settlerhq/settler/internal/score"
)

// Checker runs the full resolution pipeline for a single market request.
// Dependencies are injected explicitly; there is no hidden state between
// checks.
type Checker struct {
	collector    *collect.Collector
	aggregator   *score.Aggregator
	corroborator *llm.Corroborator
	logger       *slog.Logger
	now          func() time.Time
}

// New assembles a checker from its parts. corroborator may be nil to
// disable the LLM pass.
func New(collector *collect.Collector, aggregator *score.Aggregator, corroborator *llm.Corroborator, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		collector:    collector,
		aggregator:   aggregator,
		corroborator: corroborator,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// FromConfig builds a checker with the default HTTP feed fetcher.
func FromConfig(cfg *model.Config, logger *slog.Logger) *Checker {
	extractor := extract.NewExtractor(cfg.Resolution.DomainTolerance)
	return New(
		collect.NewCollector(collect.NewFetcher(cfg.Feed), cfg.Feed, logger),
		score.NewAggregator(extractor, cfg.Resolution.Threshold, cfg.Resolution.DomainTolerance),
		llm.NewCorroborator(cfg.LLM, logger),
		logger,
	)
}

// NormalizeRequest resolves the unit variant once so every later stage
// can match on it exhaustively.
func NormalizeRequest(req model.OutcomeRequest) model.OutcomeRequest {
	req.Unit = model.ParseUnit(string(req.Unit))
	return req
}

// CheckOutcome runs a single-shot resolution attempt. Collection and
// corroboration failures never fail the check: a check either completes
// with a verdict or surfaces an error without partial effects.
func (c *Checker) CheckOutcome(ctx context.Context, req model.OutcomeRequest) (model.OutcomeVerdict, error) {
	req = NormalizeRequest(req)
	domain := scale.Resolve(req)

	signals := c.collector.Collect(ctx, req)
	now := c.now()

	if len(signals) == 0 {
		return model.OutcomeVerdict{
			Outcome:    model.PendingOutcome(),
			Confidence: 0,
			DecidedAt:  now,
			Signals:    []model.OutcomeSignal{},
		}, nil
	}

	var verdict model.OutcomeVerdict
	est, err := c.aggregator.Aggregate(req, domain, signals)
	switch {
	case errors.Is(err, score.ErrNoEstimate):
		verdict = model.OutcomeVerdict{
			Outcome:    model.PendingOutcome(),
			Confidence: 0,
			Reasoning:  fmt.Sprintf("no numeric evidence in %d signal(s)", len(signals)),
			DecidedAt:  now,
			Signals:    signals,
		}
	case err != nil:
		return model.OutcomeVerdict{}, err
	default:
		verdict = c.aggregator.Verdict(est, signals, now)
	}

	// Corroboration fires only with a credential configured and at least
	// one signal collected; any failure keeps the heuristic verdict.
	if c.corroborator.Enabled() {
		corroborated, err := c.corroborator.Corroborate(ctx, req, domain, verdict)
		if err != nil {
			c.logger.Warn("llm corroboration failed, keeping heuristic verdict",
				"market", req.MarketID, "error", err)
		} else {
			verdict = corroborated
		}
	}

	return verdict, nil
}
