package model

import "time"

// OracleType identifies who resolves a market. Only AI-resolved markets
// are handled here; anything else is skipped by the scheduler.
const OracleTypeAI = "ai"

// OracleStatus is the two-state lifecycle of an oracle: pending until a
// confident resolution is persisted, then resolved forever.
type OracleStatus string

const (
	StatusPending  OracleStatus = "pending"
	StatusResolved OracleStatus = "resolved"
)

// MarketOracleState is the oracle's persisted view of one market. It is
// owned by the market record.
type MarketOracleState struct {
	Type            string          `json:"type"`
	Request         OutcomeRequest  `json:"request"`
	Status          OracleStatus    `json:"status"`
	LastCheckedAt   *time.Time      `json:"last_checked_at,omitempty"`
	LastVerdict     *OutcomeVerdict `json:"last_verdict,omitempty"`
	ResolvedOutcome *int            `json:"resolved_outcome,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// Terminal reports whether the state must never be overwritten again.
// Once ResolvedOutcome holds a finite index the market is settled.
func (s *MarketOracleState) Terminal() bool {
	if s == nil {
		return false
	}
	return s.Status == StatusResolved || s.ResolvedOutcome != nil
}

// Market is the stored market record the surrounding system owns. The
// oracle only reads its metadata and writes back the Oracle substate plus
// the top-level resolution fields.
type Market struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Category        string             `json:"category,omitempty"`
	Description     string             `json:"description,omitempty"`
	Unit            string             `json:"unit,omitempty"`
	Domain          *ValueDomain       `json:"domain,omitempty"`
	ResolvesAt      *time.Time         `json:"resolves_at,omitempty"`
	ExpiresAt       *time.Time         `json:"expires_at,omitempty"`
	Resolved        bool               `json:"resolved"`
	ResolvedOutcome *int               `json:"resolved_outcome,omitempty"`
	Oracle          *MarketOracleState `json:"oracle,omitempty"`
}

// Deadline returns when the market should be resolvable: the explicit
// resolution deadline if set, else the resolves-at time, else expiry.
// Nil means the market never becomes due.
func (m Market) Deadline() *time.Time {
	if m.Oracle != nil && m.Oracle.Request.ResolutionDeadline != nil {
		return m.Oracle.Request.ResolutionDeadline
	}
	if m.ResolvesAt != nil {
		return m.ResolvesAt
	}
	return m.ExpiresAt
}
