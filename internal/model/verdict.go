package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentinel outcome values.
const (
	SentinelPending = "PENDING"
	SentinelInvalid = "INVALID"
)

// Outcome is either a settled index on the canonical 0-100 scale or one
// of the PENDING/INVALID sentinels. The zero value is index 0.
type Outcome struct {
	Index    int
	Sentinel string
}

// NumericOutcome returns a settled outcome at the given index.
func NumericOutcome(index int) Outcome { return Outcome{Index: index} }

// PendingOutcome marks a check that produced no confident resolution.
func PendingOutcome() Outcome { return Outcome{Sentinel: SentinelPending} }

// InvalidOutcome marks a market judged unresolvable.
func InvalidOutcome() Outcome { return Outcome{Sentinel: SentinelInvalid} }

func (o Outcome) IsNumeric() bool { return o.Sentinel == "" }
func (o Outcome) IsPending() bool { return o.Sentinel == SentinelPending }
func (o Outcome) IsInvalid() bool { return o.Sentinel == SentinelInvalid }

func (o Outcome) String() string {
	if o.Sentinel != "" {
		return o.Sentinel
	}
	return strconv.Itoa(o.Index)
}

// MarshalJSON encodes a numeric outcome as a JSON number and a sentinel
// as a JSON string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Sentinel != "" {
		return json.Marshal(o.Sentinel)
	}
	return json.Marshal(o.Index)
}

// UnmarshalJSON accepts a JSON number, a sentinel string, or a string
// holding an integer.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*o = NumericOutcome(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("outcome must be a number or string: %w", err)
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case SentinelPending:
		*o = PendingOutcome()
		return nil
	case SentinelInvalid:
		*o = InvalidOutcome()
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("unrecognized outcome %q", s)
	}
	*o = NumericOutcome(n)
	return nil
}

// OutcomeVerdict is the result of one oracle check. The latest verdict is
// kept on the oracle state as LastVerdict.
type OutcomeVerdict struct {
	Outcome    Outcome         `json:"outcome"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning,omitempty"`
	DecidedAt  time.Time       `json:"decided_at"`
	Signals    []OutcomeSignal `json:"signals"`
}
