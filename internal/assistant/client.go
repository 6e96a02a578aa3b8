package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NoAnswer is shown when the reply carries none of the known answer fields.
const NoAnswer = "No answer from server"

var ErrNotConfigured = errors.New("assistant endpoint is not configured")

type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{endpoint: strings.TrimSpace(endpoint), http: httpClient}
}

type request struct {
	Prompt string `json:"prompt"`
}

type response struct {
	Answer  string `json:"answer"`
	Choices []struct {
		Text    string `json:"text"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Data json.RawMessage `json:"data"`
}

// Ask posts one prompt and returns the answer text.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	if c.endpoint == "" {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(request{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("assistant failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}
	return r.text(), nil
}

func (r response) text() string {
	if s := strings.TrimSpace(r.Answer); s != "" {
		return s
	}
	if len(r.Choices) > 0 {
		if s := strings.TrimSpace(r.Choices[0].Text); s != "" {
			return s
		}
		if s := strings.TrimSpace(r.Choices[0].Message.Content); s != "" {
			return s
		}
	}
	if len(r.Data) > 0 {
		var s string
		if err := json.Unmarshal(r.Data, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		} else if raw := strings.TrimSpace(string(r.Data)); raw != "" && raw != "null" {
			return raw
		}
	}
	return NoAnswer
}
