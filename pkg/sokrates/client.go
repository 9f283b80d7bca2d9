package sokrates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const DefaultEndpoint = "https://ws1.app.sokrates.ae.org/api/evaluateSubmission"

var (
	ErrInvalidToken = errors.New("sokrates rejected the token")
	ErrMissingToken = errors.New("sokrates token is not configured")
)

// The service only answers requests that look like they come from its web
// app.
var defaultHeaders = map[string]string{
	"Accept":             "*/*",
	"Accept-Language":    "de-DE,de;q=0.9,en;q=0.8,en-US;q=0.7",
	"Content-Type":       "application/json",
	"DNT":                "1",
	"Priority":           "u=1, i",
	"Sec-Ch-Ua":          `"Google Chrome";v="135", "Not-A.Brand";v="8", "Chromium";v="135"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"macOS"`,
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-origin",
	"User-Agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
}

type submissionRequest struct {
	Token      string `json:"token"`
	Submission string `json:"submission"`
}

// EventHandler receives decoded events in arrival order. Returning an error
// stops the evaluation.
type EventHandler func(Event) error

type Client struct {
	Endpoint string
	Token    string
	Client   *http.Client
}

func NewClient(endpoint, token string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint: endpoint,
		Token:    token,
		// No timeout: grading streams for as long as the model runs.
		Client: &http.Client{},
	}
}

// Evaluate posts submission and feeds every streamed event to handle until
// the server closes the stream.
func (c *Client) Evaluate(ctx context.Context, submission string, handle EventHandler) error {
	if c.Token == "" {
		return ErrMissingToken
	}

	payload, err := json.Marshal(submissionRequest{Token: c.Token, Submission: submission})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	if origin := originOf(c.Endpoint); origin != "" {
		req.Header.Set("Origin", origin)
		req.Header.Set("Referer", origin+"/")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sokrates request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidToken
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sokrates error: status %d, body: %s", resp.StatusCode, string(body))
	}

	dec := NewDecoder(resp.Body)
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read event stream: %w", err)
		}
		if err := handle(ev); err != nil {
			return err
		}
	}
}

func originOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
