package collect

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/settlerhq/settler/internal/model"
)

type fakeFetcher struct {
	responses map[string][]byte
	err       error
	calls     []string
}

func (f *fakeFetcher) Fetch(_ context.Context, query string) ([]byte, error) {
	f.calls = append(f.calls, query)
	if f.err != nil {
		return nil, f.err
	}
	if body, ok := f.responses[query]; ok {
		return body, nil
	}
	return nil, errors.New("no response configured")
}

func feedWithItems(n int) []byte {
	body := "<rss><channel>"
	for i := 0; i < n; i++ {
		body += fmt.Sprintf("<item><title>headline %d</title><link>https://example.com/%d</link><description>reported</description></item>", i, i)
	}
	return []byte(body + "</channel></rss>")
}

func collectRequest() model.OutcomeRequest {
	return model.OutcomeRequest{
		MarketID:           "mkt-42",
		Question:           "Will turnout exceed 60%?",
		ResolutionCriteria: "Official commission figures",
		Options: []model.OutcomeOption{
			{ID: "yes", Label: "Yes", Keywords: []string{"turnout", "confirmed"}},
		},
	}
}

func TestQueries_OrderAndContent(t *testing.T) {
	c := NewCollector(&fakeFetcher{}, model.FeedConfig{}, nil)
	queries := c.Queries(collectRequest())

	want := []string{
		"Will turnout exceed 60%?",
		"Official commission figures",
		"turnout confirmed",
		"mkt-42",
	}
	if len(queries) != len(want) {
		t.Fatalf("expected %d queries, got %d: %v", len(want), len(queries), queries)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Errorf("query %d = %q, want %q", i, queries[i], want[i])
		}
	}
}

func TestQueries_OmitsEmptyParts(t *testing.T) {
	c := NewCollector(&fakeFetcher{}, model.FeedConfig{}, nil)
	queries := c.Queries(model.OutcomeRequest{MarketID: "m1", Question: "q"})
	if len(queries) != 2 {
		t.Errorf("expected question + market id only, got %v", queries)
	}
}

func TestCollect_PerQueryCap(t *testing.T) {
	req := collectRequest()
	f := &fakeFetcher{responses: map[string][]byte{}}
	c := NewCollector(f, model.FeedConfig{MaxSignalsPerQuery: 2, MaxSignalsTotal: 100}, nil)
	for _, q := range c.Queries(req) {
		f.responses[q] = feedWithItems(5)
	}

	signals := c.Collect(context.Background(), req)
	// 4 queries x 2 signals each.
	if len(signals) != 8 {
		t.Errorf("expected 8 signals, got %d", len(signals))
	}
}

func TestCollect_TotalCap(t *testing.T) {
	req := collectRequest()
	f := &fakeFetcher{responses: map[string][]byte{}}
	c := NewCollector(f, model.FeedConfig{MaxSignalsPerQuery: 10, MaxSignalsTotal: 3}, nil)
	for _, q := range c.Queries(req) {
		f.responses[q] = feedWithItems(5)
	}

	signals := c.Collect(context.Background(), req)
	if len(signals) != 3 {
		t.Errorf("expected total cap of 3, got %d", len(signals))
	}
}

func TestCollect_QueryFailuresAreSkipped(t *testing.T) {
	req := collectRequest()
	f := &fakeFetcher{err: errors.New("feed unreachable")}
	c := NewCollector(f, model.FeedConfig{}, nil)

	signals := c.Collect(context.Background(), req)
	if len(signals) != 0 {
		t.Errorf("expected no signals, got %d", len(signals))
	}
	// Every query was still attempted.
	if len(f.calls) != 4 {
		t.Errorf("expected all 4 queries attempted, got %d", len(f.calls))
	}
}
