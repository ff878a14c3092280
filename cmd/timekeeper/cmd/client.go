package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/psantana5/timekeeper/pkg/api"
	"github.com/psantana5/timekeeper/pkg/retry"
	"github.com/psantana5/timekeeper/pkg/timekeeper"
	tlsutil "github.com/psantana5/timekeeper/pkg/tls"
)

// apiClient talks to a timekeeper server
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   retry.Config
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   retry.DefaultConfig(),
	}
}

// clientFromConfig builds the client for the --server and --api-key flags,
// trusting client.ca_file and retrying client.retries times
func clientFromConfig() (*apiClient, error) {
	client := newAPIClient(GetServerURL(), apiKey)
	client.retry.MaxRetries = cfg.Client.Retries

	if cfg.Client.CAFile != "" {
		tlsConfig, err := tlsutil.LoadClientConfig(cfg.Client.CAFile)
		if err != nil {
			return nil, err
		}
		client.http.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: tlsConfig,
		}
	}
	return client, nil
}

// timingPath escapes name into /timings/{name}/suffix
func timingPath(name, suffix string) string {
	p := "/timings/" + url.PathEscape(name)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// do sends the request and decodes a successful response into out, which
// may be nil. A 404 with an error body becomes timekeeper.ErrTimingNotFound.
// Connection failures are retried for GET and DELETE only, a POST may
// already have reached the server.
func (c *apiClient) do(ctx context.Context, method, path string, out interface{}) error {
	policy := c.retry
	if method != http.MethodGet && method != http.MethodDelete {
		policy.MaxRetries = 0
	}

	var resp *http.Response
	err := retry.Do(ctx, policy, func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err = c.http.Do(req)
		if err != nil {
			return fmt.Errorf("failed to connect to timekeeper server: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		var apiErr api.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Name != "" {
			return fmt.Errorf("%w: %s", timekeeper.ErrTimingNotFound, apiErr.Name)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
