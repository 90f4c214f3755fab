// Package promo generates short promotional blurbs for events.
package promo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"partyflow/internal/status"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	// baseURL is the API host, overridable for tests.
	baseURL string

	// apiKey authenticates every request.
	apiKey string

	// model is the model id, e.g. gemini-2.5-flash.
	model string

	// hc is the http client.
	hc *http.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   model,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *GeminiClient) WithBaseURL(base string) *GeminiClient {
	c.baseURL = base
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateReply struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate runs one prompt and returns the first candidate's text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("generate: marshal: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("generate: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate: http.Do: %w (%w)", err, status.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	var reply generateReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("generate: json.Decode: %w (%w)", err, status.ErrUpstreamUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		if reply.Error.Message != "" {
			return "", fmt.Errorf("generate: api: %s", reply.Error.Message)
		}
		return "", fmt.Errorf("generate: status %d", resp.StatusCode)
	}
	if len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generate: empty reply")
	}
	return reply.Candidates[0].Content.Parts[0].Text, nil
}
