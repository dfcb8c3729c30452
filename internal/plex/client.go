// Package plex is the media server catalog client: paginated track
// listing, per-field metadata updates, and playlist membership calls.
package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/brettwatson77/autoPLEX/internal/config"
)

// Client talks to one Plex server. All requests share the token, the
// timeout and the rate limiter; the server throttles bursts otherwise.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	token      string

	machineID string // cached from /identity
}

// NewClient builds a client from the run configuration.
func NewClient(cfg config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// 4 req/sec keeps a full-library walk polite on a LAN box.
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
		baseURL: cfg.ServerURL,
		token:   cfg.ServerToken,
	}
}

// do handles the low-level headers and rate limiting.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Product", "autoPLEX")
	return c.httpClient.Do(req.WithContext(ctx))
}

// request is the high-level helper: builds the URL, checks the status and
// decodes the JSON container when result is non-nil.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return fmt.Errorf("plex %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("plex %s %s: invalid token (status 401)", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("plex %s %s: status %d: %s", method, path, resp.StatusCode, body)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("plex %s %s: decoding response: %w", method, path, err)
		}
	}
	return nil
}

// Verify checks connectivity and auth, caching the machine identifier
// playlist creation needs. Failure here is fatal to the run.
func (c *Client) Verify(ctx context.Context) error {
	var out struct {
		MediaContainer struct {
			MachineIdentifier string `json:"machineIdentifier"`
		} `json:"MediaContainer"`
	}
	if err := c.request(ctx, http.MethodGet, "/identity", nil, &out); err != nil {
		return err
	}
	c.machineID = out.MediaContainer.MachineIdentifier
	return nil
}
