package openai

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	sdk "github.com/openai/openai-go/v3"

	"github.com/joseph-ayodele/market-views/internal/common"
	"github.com/joseph-ayodele/market-views/internal/llm"
)

// Name implements llm.Oracle.
func (c *Client) Name() string { return "openai/" + c.cfg.Model }

// Complete implements llm.Oracle with a single-message chat completion and returns
// the first choice's content untouched.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqID := uuid.New().String()
	start := time.Now()
	c.logger.Info("llm.openai.request", "req_id", reqID, "model", c.cfg.Model, "prompt_len", len(prompt))

	resp, err := c.api.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(c.cfg.Model),
		Messages:    []sdk.ChatCompletionMessageParamUnion{sdk.UserMessage(prompt)},
		Temperature: sdk.Float(float64(c.cfg.Temperature)),
	})
	if err != nil {
		attrs := []any{"req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds()}
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "status", apiErr.StatusCode)
		}
		c.logger.Error("llm.openai.send_error", attrs...)
		return "", common.NewAppError(common.KindOracleUnavailable, "openai request failed", err)
	}

	c.logger.Info("llm.openai.response",
		"req_id", reqID,
		"choices", len(resp.Choices),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if len(resp.Choices) == 0 {
		c.logger.Error("llm.openai.no_choices", "req_id", reqID)
		return "", common.NewAppError(common.KindOracleUnavailable, "no choices in openai response", nil)
	}
	choice := resp.Choices[0]
	if fr := choice.FinishReason; fr != "" && fr != "stop" {
		c.logger.Warn("llm.openai.finish_reason", "req_id", reqID, "finish_reason", fr)
	}
	return choice.Message.Content, nil
}

var _ llm.Oracle = (*Client)(nil)
