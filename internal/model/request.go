package model

import (
	"strings"
	"time"
)

// Unit classifies how numeric evidence for a market is expressed.
// It is resolved once when a request is normalized and matched
// exhaustively afterwards.
type Unit string

const (
	UnitCurrency    Unit = "currency"
	UnitPercent     Unit = "percent"
	UnitTemperature Unit = "temperature"
	UnitGeneric     Unit = "generic"
)

// ParseUnit maps a free-form unit string onto the closed Unit variant.
// Anything unrecognized falls back to the generic numeric unit.
func ParseUnit(raw string) Unit {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "currency", "usd", "eur", "gbp", "dollar", "dollars", "money", "price":
		return UnitCurrency
	case "percent", "percentage", "pct", "%":
		return UnitPercent
	case "temperature", "celsius", "fahrenheit", "degrees":
		return UnitTemperature
	default:
		return UnitGeneric
	}
}

// ValueDomain is the [Min,Max] real-world range a market's outcome can
// take, used to convert extracted numbers to and from the outcome index.
type ValueDomain struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// OutcomeOption is one possible resolution of a market, with keywords
// used to score the relevance of collected evidence.
type OutcomeOption struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords,omitempty"`
}

// OutcomeRequest describes what the oracle must resolve. It is created
// once at market inception and reused unchanged across checks.
type OutcomeRequest struct {
	MarketID           string          `json:"market_id"`
	Question           string          `json:"question"`
	ResolutionCriteria string          `json:"resolution_criteria,omitempty"`
	ResolutionDeadline *time.Time      `json:"resolution_deadline,omitempty"`
	Options            []OutcomeOption `json:"options,omitempty"`
	Unit               Unit            `json:"unit,omitempty"`
	Domain             *ValueDomain    `json:"domain,omitempty"`
}

// Keywords returns every option keyword of the request, in option order.
func (r OutcomeRequest) Keywords() []string {
	var out []string
	for _, opt := range r.Options {
		out = append(out, opt.Keywords...)
	}
	return out
}
