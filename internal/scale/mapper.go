// Package scale converts between a market's real-world value domain and
// the canonical 0-100 outcome index.
package scale

import (
	"math"

	"github.com/settlerhq/settler/internal/model"
)

// Default domains used when a request carries none.
var (
	defaultCurrencyDomain = model.ValueDomain{Min: 0, Max: 1e9}
	defaultGenericDomain  = model.ValueDomain{Min: 0, Max: 100}
)

// Resolve returns the effective value domain for a request: an explicit
// domain wins, else a unit-specific default. A single check resolves the
// domain once and uses it for both extraction and normalization.
func Resolve(req model.OutcomeRequest) model.ValueDomain {
	if req.Domain != nil {
		return *req.Domain
	}
	if req.Unit == model.UnitCurrency {
		return defaultCurrencyDomain
	}
	return defaultGenericDomain
}

// NormalizeToIndex maps a real-world value onto the 0-100 index: the
// value is clamped into the domain, the ratio scaled to 100 and rounded
// up. A degenerate domain (Max <= Min) resolves to index 0.
func NormalizeToIndex(value float64, d model.ValueDomain) int {
	if d.Max <= d.Min {
		return 0
	}
	if value < d.Min {
		value = d.Min
	}
	if value > d.Max {
		value = d.Max
	}
	idx := int(math.Ceil((value - d.Min) / (d.Max - d.Min) * 100))
	if idx < 0 {
		return 0
	}
	if idx > 100 {
		return 100
	}
	return idx
}

// IndexToValue is the inverse linear map, used for reasoning text and LLM
// prompts. A degenerate domain resolves to its minimum.
func IndexToValue(index int, d model.ValueDomain) float64 {
	if d.Max <= d.Min {
		return d.Min
	}
	if index < 0 {
		index = 0
	}
	if index > 100 {
		index = 100
	}
	return d.Min + float64(index)/100*(d.Max-d.Min)
}
