// Package llm calls the Gemini generateContent API on behalf of the assistant
// pricing strategy.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"traiteur_devis/internal/domain/pricing"
	"traiteur_devis/internal/infrastructure/config"
)

var (
	ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY")
	ErrEmptyResponse = errors.New("empty gemini response")
)

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

var _ pricing.Assistant = (*GeminiClient)(nil)

// NewGeminiClient returns a client without its own timeout: callers bound each
// call through the context.
func NewGeminiClient(cfg config.GeminiConfig, httpClient *http.Client, log *logrus.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		log:     log,
	}, nil
}

// Complete sends the prompt and returns the text of the first candidate. The
// model is asked for a JSON response; the text is returned unchanged so the
// caller's parser decides whether it is usable.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)

	payload := map[string]any{
		"contents": []map[string]any{
			{
				"role": "user",
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature":      0.1,
			"maxOutputTokens":  4096,
			"responseMimeType": "application/json",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	log := g.log.WithFields(logrus.Fields{"model": g.model, "prompt_len": len(prompt)})
	log.Debug("[llm][gemini] request start")

	resp, err := g.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("[llm][gemini] request failed")
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = truncate(string(raw), maxErrorBody)
		}
		log.WithField("status", resp.StatusCode).Warn("[llm][gemini] api error")
		return "", fmt.Errorf("gemini api error (%d): %s", resp.StatusCode, msg)
	}

	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text")
	if !text.Exists() || strings.TrimSpace(text.String()) == "" {
		reason := gjson.GetBytes(raw, "candidates.0.finishReason").String()
		if reason == "" {
			reason = gjson.GetBytes(raw, "promptFeedback.blockReason").String()
		}
		if reason != "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyResponse, reason)
		}
		return "", ErrEmptyResponse
	}

	log.WithField("response_len", len(text.String())).Debug("[llm][gemini] request success")
	return text.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
