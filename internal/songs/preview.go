package songs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultDeezerBaseURL = "https://api.deezer.com"

// PreviewClient resolves 30-second preview URLs from the Deezer track
// API for catalog rows that do not carry one.
type PreviewClient struct {
	baseURL string
	http    *http.Client
}

// PreviewOption adjusts client construction.
type PreviewOption func(*PreviewClient)

// WithBaseURL points the client at a different API host; tests use an
// httptest server.
func WithBaseURL(url string) PreviewOption {
	return func(c *PreviewClient) { c.baseURL = url }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) PreviewOption {
	return func(c *PreviewClient) { c.http = hc }
}

// NewPreviewClient creates a Deezer preview resolver.
func NewPreviewClient(opts ...PreviewOption) *PreviewClient {
	c := &PreviewClient{
		baseURL: defaultDeezerBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PreviewURL fetches the preview stream URL for one track.
func (c *PreviewClient) PreviewURL(ctx context.Context, trackID int64) (string, error) {
	url := fmt.Sprintf("%s/track/%d", c.baseURL, trackID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build track request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch track %d: %w", trackID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch track %d: unexpected status %d", trackID, resp.StatusCode)
	}

	var body struct {
		Preview string `json:"preview"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode track %d response: %w", trackID, err)
	}
	if body.Preview == "" {
		return "", fmt.Errorf("track %d has no preview", trackID)
	}
	return body.Preview, nil
}
