package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/settlerhq/settler/internal/model"
)

func llmConfig(baseURL string) model.LLMConfig {
	return model.LLMConfig{
		APIKey:          "test-key",
		Model:           "gpt-4o-mini",
		BaseURL:         baseURL,
		MaxRetries:      2,
		RetryDelay:      time.Millisecond,
		Timeout:         2 * time.Second,
		MaxOutputTokens: 512,
	}
}

func testDomain() model.ValueDomain { return model.ValueDomain{Min: 0, Max: 100} }

func baselineVerdict() model.OutcomeVerdict {
	return model.OutcomeVerdict{
		Outcome:    model.NumericOutcome(60),
		Confidence: 0.7,
		Reasoning:  "heuristic",
		DecidedAt:  time.Now().UTC(),
		Signals: []model.OutcomeSignal{
			{Source: "example.com", Headline: "Index at 60", Confidence: 0.8},
		},
	}
}

func completionWith(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:    "chatcmpl-1",
		Model: "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
		},
	}
}

func TestCorroborate_OverridesBaseline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONSchema {
			t.Error("expected a json_schema response format")
		}
		_ = json.NewEncoder(w).Encode(completionWith(`{"outcome": 72, "confidence": 0.9, "reasoning": "three outlets agree"}`))
	}))
	defer server.Close()

	c := NewCorroborator(llmConfig(server.URL), nil)
	verdict, err := c.Corroborate(context.Background(), model.OutcomeRequest{MarketID: "m1", Question: "q"}, testDomain(), baselineVerdict())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Outcome.IsNumeric() || verdict.Outcome.Index != 72 {
		t.Errorf("expected index 72, got %s", verdict.Outcome)
	}
	if verdict.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", verdict.Confidence)
	}
	// Evidence is preserved from collection.
	if len(verdict.Signals) != 1 || verdict.Signals[0].Source != "example.com" {
		t.Errorf("expected baseline signals preserved, got %+v", verdict.Signals)
	}
}

func TestCorroborate_SentinelOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionWith(`{"outcome": "PENDING", "confidence": 0.2, "reasoning": "not enough"}`))
	}))
	defer server.Close()

	c := NewCorroborator(llmConfig(server.URL), nil)
	verdict, err := c.Corroborate(context.Background(), model.OutcomeRequest{MarketID: "m1"}, testDomain(), baselineVerdict())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Outcome.IsPending() {
		t.Errorf("expected PENDING, got %s", verdict.Outcome)
	}
}

func TestCorroborate_RetriesThenExhausts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewCorroborator(llmConfig(server.URL), nil)
	_, err := c.Corroborate(context.Background(), model.OutcomeRequest{MarketID: "m1"}, testDomain(), baselineVerdict())
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected maxRetries+1 = 3 attempts, got %d", attempts)
	}
}

func TestCorroborate_MissingOutputTextIsRetryable(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "empty"})
			return
		}
		_ = json.NewEncoder(w).Encode(completionWith(`{"outcome": 50, "confidence": 0.8, "reasoning": "ok"}`))
	}))
	defer server.Close()

	c := NewCorroborator(llmConfig(server.URL), nil)
	verdict, err := c.Corroborate(context.Background(), model.OutcomeRequest{MarketID: "m1"}, testDomain(), baselineVerdict())
	if err != nil {
		t.Fatalf("expected recovery on second attempt, got %v", err)
	}
	if verdict.Outcome.Index != 50 {
		t.Errorf("expected index 50, got %s", verdict.Outcome)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestCorroborate_MalformedOutcomeValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionWith(`{"outcome": "definitely", "confidence": 0.8, "reasoning": "?"}`))
	}))
	defer server.Close()

	c := NewCorroborator(llmConfig(server.URL), nil)
	_, err := c.Corroborate(context.Background(), model.OutcomeRequest{MarketID: "m1"}, testDomain(), baselineVerdict())
	if err == nil {
		t.Fatal("expected error for unparsable outcome value")
	}
	// Not a retry exhaustion: the call itself succeeded.
	if errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("outcome parse failure must not count as retry exhaustion: %v", err)
	}
}

func TestNewCorroborator_DisabledWithoutKey(t *testing.T) {
	c := NewCorroborator(model.LLMConfig{}, nil)
	if c.Enabled() {
		t.Error("expected corroborator disabled without an API key")
	}
}

func TestParseOutcome(t *testing.T) {
	domain := model.ValueDomain{Min: 0, Max: 100}

	cases := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`42`, "42", false},
		{`"PENDING"`, "PENDING", false},
		{`"invalid"`, "INVALID", false},
		{`"17"`, "17", false},
		{`"n/a"`, "", true},
		{`[1,2]`, "", true},
	}
	for _, tc := range cases {
		got, err := parseOutcome(json.RawMessage(tc.raw), domain)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseOutcome(%s): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseOutcome(%s): %v", tc.raw, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("parseOutcome(%s) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
