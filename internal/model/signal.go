package model

import "time"

// OutcomeSignal is one piece of external textual evidence bearing on a
// market's likely outcome. Signals are ephemeral per check and are only
// persisted as part of the verdict that cites them.
type OutcomeSignal struct {
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	Headline    string     `json:"headline"`
	Snippet     string     `json:"snippet,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Confidence  float64    `json:"confidence"`
}

// ValueSample pairs a domain-clamped extracted value with its aggregation
// weight. Samples exist only during aggregation.
type ValueSample struct {
	Value  float64
	Weight float64
	Signal OutcomeSignal
}
