package pipeline

import (
	"strings"

	"github.com/settlerhq/settler/internal/model"
)

// Generic boosters appended to the auto-derived keywords so option
// relevance scoring has something to latch onto from day one.
var (
	positiveBoosters = []string{"yes", "confirmed", "official"}
	negativeBoosters = []string{"no", "denied", "rejected"}
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "will": {}, "with": {}, "that": {},
	"this": {}, "are": {}, "was": {}, "were": {}, "has": {}, "have": {},
	"had": {}, "not": {}, "but": {}, "its": {}, "their": {}, "from": {},
	"into": {}, "over": {}, "under": {}, "about": {}, "than": {},
	"more": {}, "most": {}, "before": {}, "after": {}, "when": {},
	"what": {}, "who": {}, "how": {}, "why": {}, "does": {}, "did": {},
	"been": {}, "being": {}, "they": {}, "them": {}, "there": {},
	"would": {}, "could": {}, "should": {}, "can": {}, "may": {},
	"any": {}, "all": {}, "out": {}, "his": {}, "her": {}, "our": {},
}

// NewDefaultOracleState seeds an AI oracle state from market metadata at
// market creation. Keywords are derived from the stopword-filtered title
// tokens plus the category, with generic positive/negative boosters per
// option.
func NewDefaultOracleState(m model.Market) *model.MarketOracleState {
	base := deriveKeywords(m.Title, m.Category)

	req := model.OutcomeRequest{
		MarketID:           m.ID,
		Question:           m.Title,
		ResolutionCriteria: m.Description,
		ResolutionDeadline: m.ResolvesAt,
		Options: []model.OutcomeOption{
			{ID: "yes", Label: "Yes", Keywords: appendCopy(base, positiveBoosters)},
			{ID: "no", Label: "No", Keywords: appendCopy(base, negativeBoosters)},
		},
		Unit:   model.ParseUnit(m.Unit),
		Domain: m.Domain,
	}

	return &model.MarketOracleState{
		Type:    model.OracleTypeAI,
		Request: req,
		Status:  model.StatusPending,
	}
}

// deriveKeywords lowercases and tokenizes the title, dropping stopwords
// and short tokens, then appends the category.
func deriveKeywords(title, category string) []string {
	seen := make(map[string]struct{})
	var keywords []string

	for _, token := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}

	if cat := strings.ToLower(strings.TrimSpace(category)); cat != "" {
		if _, dup := seen[cat]; !dup {
			keywords = append(keywords, cat)
		}
	}
	return keywords
}

func appendCopy(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}
