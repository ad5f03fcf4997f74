// Package remote pushes and pulls snapshot documents against a
// cloud-drive-style storage endpoint. The wire bytes are exactly the file
// export; the codec is transport-agnostic.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "MINUTA_HTTP_TIMEOUT"
	tokenEnvKey        = "MINUTA_REMOTE_TOKEN"
)

// Client is a simple HTTP client for remote snapshot storage.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient creates a client for the endpoint base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
		token:   strings.TrimSpace(os.Getenv(tokenEnvKey)),
	}
}

// Push uploads snapshot bytes under name.
func (c *Client) Push(ctx context.Context, name string, data []byte) error {
	req, err := c.newRequest(ctx, http.MethodPut, name, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Pull downloads snapshot bytes stored under name.
func (c *Client) Pull(ctx context.Context, name string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, name, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method, name string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("remote url is not configured")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("snapshot name is required")
	}

	endpoint := c.baseURL + "/v1/snapshots/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = resp.Status
	}
	return fmt.Errorf("remote storage: %s", message)
}

func httpTimeoutFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if raw == "" {
		return defaultHTTPTimeout
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return defaultHTTPTimeout
}
