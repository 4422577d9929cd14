// Package score folds extracted signal values into one confidence-weighted
// estimate and decides whether it clears the resolution threshold.
package score

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/settlerhq/settler/internal/extract"
	"github.com/settlerhq/settler/internal/model"
	"github.com/settlerhq/settler/internal/scale"
)

// ErrNoEstimate is returned when no signal yields a usable numeric value.
// The caller reports PENDING with empty reasoning evidence.
var ErrNoEstimate = errors.New("no usable numeric evidence")

// Aggregator computes the heuristic verdict from collected signals.
type Aggregator struct {
	extractor *extract.Extractor
	threshold float64
	tolerance float64
}

// NewAggregator creates an aggregator. threshold is the minimum confidence
// to settle; tolerance is the domain-span fraction outside which a
// signal's representative value is discarded.
func NewAggregator(extractor *extract.Extractor, threshold, tolerance float64) *Aggregator {
	if threshold <= 0 {
		threshold = 0.6
	}
	if tolerance <= 0 {
		tolerance = 0.10
	}
	return &Aggregator{extractor: extractor, threshold: threshold, tolerance: tolerance}
}

// Estimate is the blended heuristic result before thresholding.
type Estimate struct {
	Value      float64 // in domain units
	Index      int
	Confidence float64
	Samples    []model.ValueSample
}

// Aggregate extracts unit-appropriate values from each signal and blends
// them into one estimate. Each signal contributes the median of its own
// matches, which resists multi-number paragraphs.
func (a *Aggregator) Aggregate(req model.OutcomeRequest, domain model.ValueDomain, signals []model.OutcomeSignal) (*Estimate, error) {
	span := domain.Max - domain.Min
	if span < 0 {
		span = 0
	}
	lo := domain.Min - span*a.tolerance
	hi := domain.Max + span*a.tolerance

	var samples []model.ValueSample
	for _, sig := range signals {
		text := sig.Headline + " " + sig.Snippet
		values := a.extractor.Values(req.Unit, domain, text)
		if len(values) == 0 {
			continue
		}
		rep := median(values)
		if rep < lo || rep > hi {
			continue
		}
		rep = clamp(rep, domain.Min, domain.Max)

		hits := keywordHits(req.Options, text)
		weight := sig.Confidence * (1 + math.Min(float64(hits), 5)*0.1)
		if weight < 0.1 {
			weight = 0.1
		}
		samples = append(samples, model.ValueSample{Value: rep, Weight: weight, Signal: sig})
	}

	if len(samples) == 0 {
		return nil, ErrNoEstimate
	}

	// Blend a precision estimator (weighted mean) with a robust one
	// (weighted median).
	estimate := (weightedMean(samples) + weightedMedian(samples)) / 2
	index := scale.NormalizeToIndex(estimate, domain)

	n := float64(len(samples))
	totalWeight := 0.0
	for _, s := range samples {
		totalWeight += s.Weight
	}
	avgWeight := math.Min(1, totalWeight/n)
	supportFactor := math.Min(1, n/3)
	confidence := math.Min(1, avgWeight*0.6+supportFactor*0.4)

	return &Estimate{
		Value:      estimate,
		Index:      index,
		Confidence: confidence,
		Samples:    samples,
	}, nil
}

// Verdict turns an estimate into an outcome verdict: below the threshold
// the outcome stays PENDING even though a numeric estimate exists.
func (a *Aggregator) Verdict(est *Estimate, signals []model.OutcomeSignal, now time.Time) model.OutcomeVerdict {
	outcome := model.NumericOutcome(est.Index)
	if est.Confidence < a.threshold {
		outcome = model.PendingOutcome()
	}
	return model.OutcomeVerdict{
		Outcome:    outcome,
		Confidence: est.Confidence,
		Reasoning:  a.reasoning(est),
		DecidedAt:  now,
		Signals:    signals,
	}
}

// Threshold returns the configured resolution threshold.
func (a *Aggregator) Threshold() float64 { return a.threshold }

func (a *Aggregator) reasoning(est *Estimate) string {
	top := make([]model.ValueSample, len(est.Samples))
	copy(top, est.Samples)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Weight > top[j].Weight })
	if len(top) > 3 {
		top = top[:3]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Estimated %s (index %d, confidence %.2f) from %d sample(s).",
		trimFloat(est.Value), est.Index, est.Confidence, len(est.Samples))
	for _, s := range top {
		fmt.Fprintf(&b, " %s: %q (value %s, weight %.2f).",
			s.Signal.Source, s.Signal.Headline, trimFloat(s.Value), s.Weight)
	}
	return b.String()
}

// keywordHits folds over the option list counting case-insensitive
// substring matches of each keyword in the text.
func keywordHits(options []model.OutcomeOption, text string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, opt := range options {
		for _, kw := range opt.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				hits++
			}
		}
	}
	return hits
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func weightedMean(samples []model.ValueSample) float64 {
	var sum, total float64
	for _, s := range samples {
		sum += s.Value * s.Weight
		total += s.Weight
	}
	return sum / total
}

// weightedMedian sorts samples by value and returns the first whose
// cumulative weight reaches half the total.
func weightedMedian(samples []model.ValueSample) float64 {
	sorted := make([]model.ValueSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	var total float64
	for _, s := range sorted {
		total += s.Weight
	}
	half := total / 2

	var cum float64
	for _, s := range sorted {
		cum += s.Weight
		if cum >= half {
			return s.Value
		}
	}
	return sorted[len(sorted)-1].Value
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
