// Package llm adapts an OpenAI-compatible chat completions endpoint to the
// semantic classifier port. One batched call covers all unmatched columns of
// a sheet; the JSON response is typed and joined back by column name.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"sheetwise/domain/core"
	"sheetwise/domain/mapping"
	"sheetwise/internal/config"
)

// Classifier calls the configured model with a JSON-mode prompt.
type Classifier struct {
	cfg    config.AIConfig
	client *http.Client
}

// NewClassifier creates the classifier adapter
func NewClassifier(cfg config.AIConfig) *Classifier {
	log.Printf("[Classifier] model=%s baseURL=%s enabled=%v", cfg.OpenAIModel, cfg.BaseURL, cfg.Enabled())
	return &Classifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Available gates every call; without a key the mapper falls back
func (c *Classifier) Available() bool {
	return c.cfg.Enabled()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model               string         `json:"model"`
	Messages            []chatMessage  `json:"messages"`
	Temperature         float64        `json:"temperature,omitempty"`
	MaxCompletionTokens int            `json:"max_completion_tokens,omitempty"`
	ResponseFormat      responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// classifierPayload is the typed shape the model is asked to return.
type classifierPayload struct {
	Mappings []mapping.SemanticMapping `json:"mappings"`
}

const systemPrompt = `You map spreadsheet columns to a standard business schema. ` +
	`For every input column return one entry: original_field (the exact input column name), ` +
	`standard_field (snake_case canonical name, empty if none fits), chart_axis ` +
	`(X_AXIS, SERIES, Y_AXIS or NONE), aggregation_type (SUM, AVG, COUNT, COUNT_DISTINCT, GROUP_BY or NONE), ` +
	`axis_priority (1 = highest), confidence (0..1) and a one-sentence reasoning. ` +
	`Respond with a JSON object {"mappings": [...]}.`

// Classify sends the batch and parses the typed response.
func (c *Classifier) Classify(ctx context.Context, columns []mapping.ColumnSample) ([]mapping.SemanticMapping, error) {
	if !c.Available() {
		return nil, core.ErrClassifierUnavailable
	}
	if len(columns) == 0 {
		return nil, nil
	}

	prompt, err := buildPrompt(columns)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	reqBody := chatRequest{
		Model: c.cfg.OpenAIModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:         c.cfg.Temperature,
		MaxCompletionTokens: c.cfg.MaxTokens,
		ResponseFormat:      responseFormat{Type: "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIKey)

	log.Printf("[Classifier] classifying %d column(s) with %s", len(columns), c.cfg.OpenAIModel)
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("classifier request timed out: %w", err)
		}
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned HTTP %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("failed to decode classifier envelope: %w", err)
	}
	if chat.Error != nil {
		return nil, fmt.Errorf("classifier error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("classifier returned no choices")
	}

	content := stripCodeFence(chat.Choices[0].Message.Content)
	var parsed classifierPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode classifier mappings: %w", err)
	}

	log.Printf("[Classifier] received %d mapping(s)", len(parsed.Mappings))
	return parsed.Mappings, nil
}

func buildPrompt(columns []mapping.ColumnSample) (string, error) {
	encoded, err := json.MarshalIndent(columns, "", "  ")
	if err != nil {
		return "", err
	}
	return "Classify these spreadsheet columns:\n\n" + string(encoded), nil
}

// stripCodeFence tolerates models that wrap JSON in markdown fences
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
