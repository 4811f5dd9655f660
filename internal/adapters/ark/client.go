// Package ark implements the completion service client against the Ark
// chat-completions endpoint.
package ark

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CompletionService = (*Client)(nil)

// Client implements ports.CompletionService over HTTP.
type Client struct {
	apiKey string
	httpc  *http.Client
	logger ports.Logger
}

// NewClient creates a completion client. A missing API key is a
// configuration error surfaced at construction, not at call time.
func NewClient(creds domain.Credentials, logger ports.Logger) (*Client, error) {
	if creds.ArkAPIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	return &Client{
		apiKey: creds.ArkAPIKey,
		httpc:  &http.Client{Timeout: 120 * time.Second},
		logger: logger,
	}, nil
}

type completionRequest struct {
	Model           string           `json:"model"`
	Messages        []domain.Message `json:"messages"`
	ReasoningEffort string           `json:"reasoning_effort,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt messages and returns the generated text. Any
// transport or service failure is returned as an error; the scheduler's
// retry budget applies without further distinction.
func (c *Client) Complete(ctx context.Context, messages []domain.Message, cfg domain.ModelConfig) (string, error) {
	reqID := uuid.New().String()
	start := time.Now()

	payload, err := json.Marshal(completionRequest{
		Model:           cfg.Name,
		Messages:        messages,
		ReasoningEffort: cfg.ReasoningEffort,
	})
	if err != nil {
		return "", zerr.Wrap(err, "failed to encode completion request")
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", zerr.Wrap(err, "failed to build completion request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Info("completion request",
		"req_id", reqID, "model", cfg.Name, "effort", cfg.ReasoningEffort, "content_length", len(payload))

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", "req_id", reqID, "error", err)
		return "", zerr.Wrap(err, "completion request failed")
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", zerr.Wrap(err, "failed to read completion response")
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("completion request rejected",
			"req_id", reqID, "status", resp.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())
		return "", zerr.With(zerr.New("completion request rejected"), "status", resp.StatusCode)
	}

	var cr completionResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return "", zerr.Wrap(err, "failed to decode completion response")
	}
	if len(cr.Choices) == 0 {
		return "", zerr.New("completion response has no choices")
	}

	text := cr.Choices[0].Message.Content
	c.logger.Info("completion succeeded",
		"req_id", reqID, "text_len", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}
