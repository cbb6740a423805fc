// Package gemini wraps the Generative Language API call used to
// classify a batch of mention texts against the tag taxonomy.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cureanalytics/twtagger/pkg/tagging"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client calls a Gemini-style generateContent endpoint with a
// JSON-constrained response and low sampling temperature.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	// Temperature is sent with every request as configured; 0 is a
	// valid sampling temperature.
	Temperature float64

	HTTPClient *http.Client
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Classify submits one batch and parses the model's JSON answer into a
// mapping from stringified record id to raw label values. Any
// transport or backend problem, and any empty or unparsable body, is
// returned as an error; the caller decides whether to retry.
func (c *Client) Classify(ctx context.Context, batch []tagging.BatchItem, system string) (map[string][]any, error) {
	if c.Model == "" {
		return nil, fmt.Errorf("gemini: model required")
	}

	var prompt bytes.Buffer
	for i, item := range batch {
		if i > 0 {
			prompt.WriteByte('\n')
		}
		fmt.Fprintf(&prompt, "ID %d: %s", item.ID, item.Text)
	}

	reqBody, err := json.Marshal(generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: system}}},
		Contents:          []content{{Parts: []part{{Text: prompt.String()}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			Temperature:      c.Temperature,
		},
	})
	if err != nil {
		return nil, err
	}

	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", base, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-goog-api-key", c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gemini: http %d", resp.StatusCode)
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("gemini: %s", payload.Error.Message)
	}
	text := responseText(payload)
	if text == "" {
		return nil, fmt.Errorf("gemini: empty response")
	}

	var results map[string][]any
	if err := json.Unmarshal([]byte(text), &results); err != nil {
		return nil, fmt.Errorf("gemini: unparsable answer: %w", err)
	}
	return results, nil
}

func responseText(payload generateResponse) string {
	if len(payload.Candidates) == 0 {
		return ""
	}
	var buf bytes.Buffer
	for _, p := range payload.Candidates[0].Content.Parts {
		buf.WriteString(p.Text)
	}
	return buf.String()
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}
