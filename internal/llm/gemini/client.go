package gemini

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/joseph-ayodele/market-views/internal/common"
	"github.com/joseph-ayodele/market-views/internal/llm"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Name implements llm.Oracle.
func (c *Client) Name() string { return "gemini/" + c.cfg.Model }

// Complete implements llm.Oracle against models/{model}:generateContent and returns the
// concatenated text parts of the first candidate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"contents": []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		"generationConfig": map[string]any{
			"temperature": c.cfg.Temperature,
		},
	}
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", common.NewAppError(common.KindOracleUnavailable, "gemini request failed", err)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.logger.Error("llm.gemini.decode_error", "error", err, "raw_bytes", len(raw))
		return "", common.NewAppError(common.KindOracleUnavailable, "decode gemini response", err)
	}
	if len(gr.Candidates) == 0 {
		reason := gr.PromptFeedback.BlockReason
		c.logger.Error("llm.gemini.no_candidates", "block_reason", reason)
		msg := "no candidates in gemini response"
		if reason != "" {
			msg += " (blocked: " + reason + ")"
		}
		return "", common.NewAppError(common.KindOracleUnavailable, msg, nil)
	}

	cand := gr.Candidates[0]
	if cand.FinishReason != "" && cand.FinishReason != "STOP" {
		c.logger.Warn("llm.gemini.finish_reason", "finish_reason", cand.FinishReason)
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

var _ llm.Oracle = (*Client)(nil)
