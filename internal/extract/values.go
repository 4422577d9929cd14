// Package extract pulls candidate numeric values out of free text using
// unit-specific pattern families.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/settlerhq/settler/internal/model"
)

// Magnitude suffixes resolved to multipliers. Longer alternatives are
// listed first in the patterns so "million" is never read as "m".
var magnitudes = map[string]float64{
	"k": 1e3, "thousand": 1e3,
	"m": 1e6, "mm": 1e6, "million": 1e6,
	"b": 1e9, "bn": 1e9, "billion": 1e9,
	"t": 1e12, "trillion": 1e12,
}

const magnitudeAlt = `thousand|trillion|million|billion|mm|bn|k|m|b|t`

var (
	// "$1,234.56", "USD 1.2 million", "€3bn"
	currencyMarked = regexp.MustCompile(`(?i)(?:\$|€|£|\b(?:usd|eur|gbp)\b)\s*(-?\d[\d,]*(?:\.\d+)?)\s*(` + magnitudeAlt + `)?\b`)
	// "3bn", "1.5 million": a magnitude suffix stands in for the marker
	currencyBare = regexp.MustCompile(`(?i)(-?\b\d[\d,]*(?:\.\d+)?)\s*(` + magnitudeAlt + `)\b`)

	// "-3.2%", "5 percentage points", "12 percent"
	percentPattern = regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s*(?:%|percentage\s+points?|percent\b|pct\b)`)

	// "-2°C", "3 degrees Celsius", word-boundary-guarded "5C"
	tempDegreeSign = regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s*°\s*[cf]\b`)
	tempSpelled    = regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s*degrees?\s+(?:celsius|fahrenheit)\b`)
	tempBare       = regexp.MustCompile(`(-?\b\d+(?:\.\d+)?)\s?[CF]\b`)

	genericPattern = regexp.MustCompile(`-?\b\d+(?:\.\d+)?\b`)
)

// Extractor dispatches on the request's unit to one pattern family.
type Extractor struct {
	tolerance float64
}

// NewExtractor returns an extractor. tolerance is the fraction of the
// domain span by which a generic numeric match may fall outside the
// domain before it is rejected as unrelated.
func NewExtractor(tolerance float64) *Extractor {
	if tolerance <= 0 {
		tolerance = 0.10
	}
	return &Extractor{tolerance: tolerance}
}

// Values returns the raw candidate values found in text for the given
// unit. Duplicates are expected; the aggregator resolves them.
func (e *Extractor) Values(unit model.Unit, domain model.ValueDomain, text string) []float64 {
	switch unit {
	case model.UnitCurrency:
		return currencyValues(text)
	case model.UnitPercent:
		return percentValues(text)
	case model.UnitTemperature:
		return temperatureValues(text)
	default:
		return e.genericValues(domain, text)
	}
}

func currencyValues(text string) []float64 {
	var values []float64
	var spans [][2]int

	for _, m := range currencyMarked.FindAllStringSubmatchIndex(text, -1) {
		v, ok := parseNumber(text[m[2]:m[3]])
		if !ok {
			continue
		}
		if m[4] >= 0 {
			v *= magnitudes[strings.ToLower(text[m[4]:m[5]])]
		}
		values = append(values, v)
		spans = append(spans, [2]int{m[0], m[1]})
	}

	for _, m := range currencyBare.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(spans, m[0], m[1]) {
			continue
		}
		v, ok := parseNumber(text[m[2]:m[3]])
		if !ok {
			continue
		}
		v *= magnitudes[strings.ToLower(text[m[4]:m[5]])]
		values = append(values, v)
	}

	return values
}

func percentValues(text string) []float64 {
	var values []float64
	for _, m := range percentPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseNumber(m[1]); ok {
			values = append(values, v)
		}
	}
	return values
}

func temperatureValues(text string) []float64 {
	var values []float64
	var spans [][2]int

	for _, pat := range []*regexp.Regexp{tempDegreeSign, tempSpelled, tempBare} {
		for _, m := range pat.FindAllStringSubmatchIndex(text, -1) {
			if overlaps(spans, m[0], m[1]) {
				continue
			}
			if v, ok := parseNumber(text[m[2]:m[3]]); ok {
				values = append(values, v)
				spans = append(spans, [2]int{m[0], m[1]})
			}
		}
	}

	return values
}

// genericValues accepts bare signed floats, but only within the domain
// plus tolerance: unrelated numbers in a paragraph (years, counts) are
// almost never in range.
func (e *Extractor) genericValues(domain model.ValueDomain, text string) []float64 {
	span := domain.Max - domain.Min
	if span < 0 {
		span = 0
	}
	lo := domain.Min - span*e.tolerance
	hi := domain.Max + span*e.tolerance

	var values []float64
	for _, m := range genericPattern.FindAllString(text, -1) {
		v, ok := parseNumber(m)
		if !ok {
			continue
		}
		if v < lo || v > hi {
			continue
		}
		values = append(values, v)
	}
	return values
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}
