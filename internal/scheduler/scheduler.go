// Package scheduler drives periodic re-checks of unresolved AI-oracle
// markets against the outcome pipeline and persists what changed.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/settlerhq/settler/internal/model"
	"github.com/settlerhq/settler/internal/store"
	"github.com/settlerhq/settler/internal/worker"
)

// Checker produces a verdict for one outcome request. Satisfied by
// pipeline.Checker.
type Checker interface {
	CheckOutcome(ctx context.Context, req model.OutcomeRequest) (model.OutcomeVerdict, error)
}

// Scheduler walks the market set, checks every due market, and writes
// back oracle state. Markets that are not due pass through untouched.
type Scheduler struct {
	checker Checker
	store   store.Store
	recheck time.Duration
	tick    time.Duration
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

// New wires a scheduler from explicit parts.
func New(checker Checker, st store.Store, schedCfg model.SchedulerConfig, conc model.ConcurrencyConfig, logger *slog.Logger) *Scheduler {
	recheck := schedCfg.RecheckInterval
	if recheck <= 0 {
		recheck = 5 * time.Minute
	}
	tick := schedCfg.TickInterval
	if tick <= 0 {
		tick = time.Minute
	}
	workers := conc.CheckWorkers
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		checker: checker,
		store:   st,
		recheck: recheck,
		tick:    tick,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// SyncResult is the outcome of one pass over the market set.
type SyncResult struct {
	Markets []model.Market
	Updated int
}

// eligible reports whether a market is due for a check now. Only
// AI-oracle markets count; terminal markets never re-enter; a market
// without any deadline never becomes due; and rechecks respect the
// minimum spacing.
func (s *Scheduler) eligible(m model.Market, now time.Time) bool {
	if m.Oracle == nil || m.Oracle.Type != model.OracleTypeAI {
		return false
	}
	if m.Resolved || m.ResolvedOutcome != nil || m.Oracle.Terminal() {
		return false
	}
	deadline := m.Deadline()
	if deadline == nil || now.Before(*deadline) {
		return false
	}
	if last := m.Oracle.LastCheckedAt; last != nil && now.Sub(*last) < s.recheck {
		return false
	}
	return true
}

// checkMarket runs one check and folds the result into the market. A
// failed check records the error and the attempt time only, leaving any
// previous verdict in place.
func (s *Scheduler) checkMarket(ctx context.Context, m model.Market, now time.Time) model.Market {
	verdict, err := s.checker.CheckOutcome(ctx, m.Oracle.Request)
	checked := now
	m.Oracle.LastCheckedAt = &checked

	if err != nil {
		m.Oracle.Error = err.Error()
		s.logger.Warn("outcome check failed", "market", m.ID, "error", err)
		return m
	}

	m.Oracle.Error = ""
	m.Oracle.LastVerdict = &verdict

	if verdict.Outcome.IsNumeric() {
		index := verdict.Outcome.Index
		m.Oracle.Status = model.StatusResolved
		m.Oracle.ResolvedOutcome = &index
		m.Resolved = true
		m.ResolvedOutcome = &index
		s.logger.Info("market resolved",
			"market", m.ID, "outcome", index, "confidence", verdict.Confidence)
	} else {
		s.logger.Info("market still pending",
			"market", m.ID, "outcome", verdict.Outcome.String(), "confidence", verdict.Confidence)
	}
	return m
}

// Sync checks every due market in the given set and returns the updated
// set. The input slice is not mutated; oracle substates are deep-copied
// before writing.
func (s *Scheduler) Sync(ctx context.Context, markets []model.Market) SyncResult {
	now := s.now()
	out := make([]model.Market, len(markets))
	copy(out, markets)

	var due []int
	for i, m := range out {
		if s.eligible(m, now) {
			oracle := *m.Oracle
			out[i].Oracle = &oracle
			due = append(due, i)
		}
	}
	if len(due) == 0 {
		return SyncResult{Markets: out}
	}

	if s.workers > 1 && len(due) > 1 {
		s.syncConcurrent(ctx, out, due, now)
	} else {
		for _, i := range due {
			out[i] = s.checkMarket(ctx, out[i], now)
		}
	}
	return SyncResult{Markets: out, Updated: len(due)}
}

// checkJob adapts one market check to the worker pool.
type checkJob struct {
	scheduler *Scheduler
	index     int
	market    model.Market
	now       time.Time
}

type checkOutcome struct {
	index  int
	market model.Market
}

func (*checkOutcome) GetError() error { return nil }

func (j *checkJob) Execute(ctx context.Context) worker.Result {
	return &checkOutcome{
		index:  j.index,
		market: j.scheduler.checkMarket(ctx, j.market, j.now),
	}
}

// syncConcurrent fans the due checks out over a bounded pool. The job
// context derives from the caller's, so the pass timeout reaches every
// in-flight check.
func (s *Scheduler) syncConcurrent(ctx context.Context, markets []model.Market, due []int, now time.Time) {
	pool := worker.NewPoolContext(ctx, s.workers)
	pool.Start()
	for _, i := range due {
		pool.Submit(&checkJob{scheduler: s, index: i, market: markets[i], now: now})
	}
	for _, result := range pool.Wait() {
		outcome := result.(*checkOutcome)
		markets[outcome.index] = outcome.market
	}
}

// SyncStored loads the market set, runs one pass, and saves only when at
// least one market changed.
func (s *Scheduler) SyncStored(ctx context.Context) (SyncResult, error) {
	markets, err := s.store.Load(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("loading markets: %w", err)
	}

	result := s.Sync(ctx, markets)
	if result.Updated == 0 {
		return result, nil
	}
	if err := s.store.Save(ctx, result.Markets); err != nil {
		return result, fmt.Errorf("saving markets: %w", err)
	}
	return result, nil
}

// Run executes passes on the tick interval until the context is
// cancelled. A failed pass is logged and skipped; the next tick retries.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		"tick", s.tick, "recheck", s.recheck, "workers", s.workers)

	for {
		runID := uuid.NewString()
		result, err := s.SyncStored(ctx)
		if err != nil {
			s.logger.Error("sync pass failed", "run", runID, "error", err)
		} else {
			s.logger.Info("sync pass complete",
				"run", runID, "markets", len(result.Markets), "updated", result.Updated)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
