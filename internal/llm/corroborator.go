// Package llm corroborates heuristic verdicts through a schema-constrained
// call to an OpenAI-compatible endpoint. It only ever overrides the
// heuristic on a well-formed success; every failure mode falls back.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/settlerhq/settler/internal/model"
	"github.com/settlerhq/settler/internal/scale"
)

const (
	maxEvidenceItems = 8
	maxReasoningLen  = 512
)

// verdictSchema constrains the response to the exact verdict shape.
var verdictSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"outcome": {
			"description": "Settled outcome index 0-100, or the string PENDING or INVALID",
			"anyOf": [
				{"type": "integer", "minimum": 0, "maximum": 100},
				{"type": "string", "enum": ["PENDING", "INVALID"]}
			]
		},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reasoning": {"type": "string", "maxLength": 512}
	},
	"required": ["outcome", "confidence", "reasoning"],
	"additionalProperties": false
}`)

// Corroborator submits evidence plus the heuristic baseline to the LLM.
type Corroborator struct {
	client *openai.Client
	cfg    model.LLMConfig
	logger *slog.Logger
}

// NewCorroborator returns a corroborator, or nil when no API credential
// is configured. A nil corroborator is disabled and safe to call Enabled
// on.
func NewCorroborator(cfg model.LLMConfig, logger *slog.Logger) *Corroborator {
	if !cfg.Enabled() {
		return nil
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Corroborator{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		logger: logger,
	}
}

// Enabled reports whether corroboration should run at all.
func (c *Corroborator) Enabled() bool { return c != nil }

// outcomePayload is the wire shape the schema enforces. Outcome is kept
// raw so numbers and sentinel strings can share one field.
type outcomePayload struct {
	Outcome    json.RawMessage `json:"outcome"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// Corroborate runs the schema-constrained call with retries and maps the
// response onto a verdict. On success the returned verdict fully replaces
// the heuristic one; the evidence list is preserved from collection.
func (c *Corroborator) Corroborate(ctx context.Context, req model.OutcomeRequest, domain model.ValueDomain, baseline model.OutcomeVerdict) (model.OutcomeVerdict, error) {
	prompt := c.buildPrompt(req, domain, baseline)

	maxRetries := c.cfg.MaxRetries
	delayStep := c.cfg.RetryDelay
	if delayStep <= 0 {
		delayStep = 500 * time.Millisecond
	}

	payload, err := Retry(ctx, maxRetries, LinearBackoff(delayStep), func(ctx context.Context) (outcomePayload, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		return model.OutcomeVerdict{}, err
	}

	outcome, err := parseOutcome(payload.Outcome, domain)
	if err != nil {
		return model.OutcomeVerdict{}, err
	}

	reasoning := payload.Reasoning
	if len([]rune(reasoning)) > maxReasoningLen {
		reasoning = string([]rune(reasoning)[:maxReasoningLen])
	}

	c.logger.Debug("llm corroboration succeeded",
		"market", req.MarketID, "outcome", outcome.String(), "confidence", payload.Confidence)

	return model.OutcomeVerdict{
		Outcome:    outcome,
		Confidence: clamp01(payload.Confidence),
		Reasoning:  reasoning,
		DecidedAt:  time.Now().UTC(),
		Signals:    baseline.Signals,
	}, nil
}

// complete performs one attempt. Transport errors, non-2xx responses,
// missing output text, and malformed JSON are all retryable.
func (c *Corroborator) complete(ctx context.Context, prompt string) (outcomePayload, error) {
	var zero outcomePayload

	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You resolve prediction markets strictly from the evidence provided. Respond only with the requested JSON object.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.3,
		MaxTokens:   c.cfg.MaxOutputTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "market_outcome",
				Schema: verdictSchema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return zero, fmt.Errorf("llm call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return zero, fmt.Errorf("llm response has no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return zero, fmt.Errorf("llm response has no output text")
	}

	var payload outcomePayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return zero, fmt.Errorf("malformed llm JSON: %w", err)
	}
	return payload, nil
}

func (c *Corroborator) buildPrompt(req model.OutcomeRequest, domain model.ValueDomain, baseline model.OutcomeVerdict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Market %s: %s\n", req.MarketID, req.Question)
	if req.ResolutionCriteria != "" {
		fmt.Fprintf(&b, "Resolution criteria: %s\n", req.ResolutionCriteria)
	}
	if req.ResolutionDeadline != nil {
		fmt.Fprintf(&b, "Resolution deadline: %s\n", req.ResolutionDeadline.UTC().Format(time.RFC3339))
	}

	fmt.Fprintf(&b, "\nOutcome encoding: the outcome is an integer index 0-100 mapping linearly onto the value range [%g, %g]; index 0 means %g and index 100 means %g. Respond with PENDING if the evidence is insufficient, or INVALID if the market cannot be resolved.\n",
		domain.Min, domain.Max, domain.Min, domain.Max)

	fmt.Fprintf(&b, "\nHeuristic baseline: ")
	if baseline.Outcome.IsNumeric() {
		fmt.Fprintf(&b, "index %d (approximately %g in market units), confidence %.2f.\n",
			baseline.Outcome.Index, scale.IndexToValue(baseline.Outcome.Index, domain), baseline.Confidence)
	} else {
		fmt.Fprintf(&b, "%s, confidence %.2f.\n", baseline.Outcome, baseline.Confidence)
	}

	b.WriteString("\nEvidence:\n")
	for i, sig := range baseline.Signals {
		if i >= maxEvidenceItems {
			fmt.Fprintf(&b, "... and %d more items\n", len(baseline.Signals)-maxEvidenceItems)
			break
		}
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, sig.Source, sig.Headline)
		if sig.Snippet != "" {
			fmt.Fprintf(&b, " :: %s", sig.Snippet)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nReturn the JSON object now.")
	return b.String()
}

// parseOutcome normalizes the raw outcome field: numbers go through the
// domain mapping, sentinels pass through, other strings get an integer
// parse; anything else is an error the caller treats as a failed
// corroboration.
func parseOutcome(raw json.RawMessage, domain model.ValueDomain) (model.Outcome, error) {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return model.NumericOutcome(scale.NormalizeToIndex(num, domain)), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Outcome{}, fmt.Errorf("unparsable outcome %s", raw)
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case model.SentinelPending:
		return model.PendingOutcome(), nil
	case model.SentinelInvalid:
		return model.InvalidOutcome(), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return model.Outcome{}, fmt.Errorf("unparsable outcome %q", s)
	}
	return model.NumericOutcome(scale.NormalizeToIndex(float64(n), domain)), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
