package extract

import (
	"math"
	"testing"

	"github.com/settlerhq/settler/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6*math.Max(1, math.Abs(b))
}

func TestValues_Currency(t *testing.T) {
	e := NewExtractor(0.10)
	domain := model.ValueDomain{Min: 0, Max: 1e12}

	cases := []struct {
		text string
		want []float64
	}{
		{"The deal was worth $1.5 million according to filings", []float64{1_500_000}},
		{"Revenue reached USD 2,000 last quarter", []float64{2000}},
		{"Analysts expect 3bn in proceeds", []float64{3_000_000_000}},
		{"priced at $1,234.56 per unit", []float64{1234.56}},
		{"a €2.5 billion package", []float64{2_500_000_000}},
		{"roughly 450k users paid", []float64{450_000}},
		{"USD 1.2 million and then $800,000 more", []float64{1_200_000, 800_000}},
		{"no money mentioned here", nil},
	}

	for _, tc := range cases {
		got := e.Values(model.UnitCurrency, domain, tc.text)
		if len(got) != len(tc.want) {
			t.Errorf("%q: got %v, want %v", tc.text, got, tc.want)
			continue
		}
		for i := range got {
			if !almostEqual(got[i], tc.want[i]) {
				t.Errorf("%q: value %d = %v, want %v", tc.text, i, got[i], tc.want[i])
			}
		}
	}
}

func TestValues_Percent(t *testing.T) {
	e := NewExtractor(0.10)
	domain := model.ValueDomain{Min: -100, Max: 100}

	cases := []struct {
		text string
		want []float64
	}{
		{"inflation fell -3.2% year over year", []float64{-3.2}},
		{"the gap widened by 5 percentage points", []float64{5}},
		{"support stands at 12 percent nationwide", []float64{12}},
		{"up 1.5 pct since March", []float64{1.5}},
		{"nothing quantified", nil},
	}

	for _, tc := range cases {
		got := e.Values(model.UnitPercent, domain, tc.text)
		if len(got) != len(tc.want) {
			t.Errorf("%q: got %v, want %v", tc.text, got, tc.want)
			continue
		}
		for i := range got {
			if !almostEqual(got[i], tc.want[i]) {
				t.Errorf("%q: value %d = %v, want %v", tc.text, i, got[i], tc.want[i])
			}
		}
	}
}

func TestValues_Temperature(t *testing.T) {
	e := NewExtractor(0.10)
	domain := model.ValueDomain{Min: -50, Max: 60}

	cases := []struct {
		text string
		want []float64
	}{
		{"lows of -2°C expected overnight", []float64{-2}},
		{"highs near 3 degrees Celsius", []float64{3}},
		{"peaked at 5C before noon", []float64{5}},
		{"a record 41.8°C in the shade", []float64{41.8}},
		{"no forecast given", nil},
	}

	for _, tc := range cases {
		got := e.Values(model.UnitTemperature, domain, tc.text)
		if len(got) != len(tc.want) {
			t.Errorf("%q: got %v, want %v", tc.text, got, tc.want)
			continue
		}
		for i := range got {
			if !almostEqual(got[i], tc.want[i]) {
				t.Errorf("%q: value %d = %v, want %v", tc.text, i, got[i], tc.want[i])
			}
		}
	}
}

func TestValues_TemperatureWordBoundary(t *testing.T) {
	e := NewExtractor(0.10)
	domain := model.ValueDomain{Min: -50, Max: 60}

	// "5Cs" must not read as a temperature.
	if got := e.Values(model.UnitTemperature, domain, "shipped 5Cs of product"); len(got) != 0 {
		t.Errorf("expected no temperature in %q, got %v", "shipped 5Cs of product", got)
	}
}

func TestValues_GenericToleranceRejectsUnrelatedNumbers(t *testing.T) {
	e := NewExtractor(0.10)
	domain := model.ValueDomain{Min: 0, Max: 100}

	// 2024 is a year, far outside [−10, 110]; 57 is in range.
	got := e.Values(model.UnitGeneric, domain, "In 2024 the candidate polled 57 in the survey")
	if len(got) != 1 || got[0] != 57 {
		t.Errorf("expected [57], got %v", got)
	}

	// Values just inside the tolerance band survive.
	got = e.Values(model.UnitGeneric, domain, "a reading of 108 was recorded")
	if len(got) != 1 || got[0] != 108 {
		t.Errorf("expected [108] within tolerance, got %v", got)
	}

	// Values outside it do not.
	got = e.Values(model.UnitGeneric, domain, "a reading of 115 was recorded")
	if len(got) != 0 {
		t.Errorf("expected no values outside tolerance, got %v", got)
	}
}

func TestValues_DuplicatesKept(t *testing.T) {
	e := NewExtractor(0.10)
	domain := model.ValueDomain{Min: 0, Max: 100}

	got := e.Values(model.UnitGeneric, domain, "40 then 40 again")
	if len(got) != 2 {
		t.Errorf("expected duplicates to be kept, got %v", got)
	}
}
