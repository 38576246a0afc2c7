package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/adapter/http/middleware"
	"github.com/finovo/bankcore/internal/domain"
)

// apiClient talks to the staff endpoints of a running server.
type apiClient struct {
	opts *options
	http *http.Client
}

func newAPIClient(opts *options) *apiClient {
	return &apiClient{opts: opts, http: &http.Client{Timeout: opts.timeout}}
}

// do sends body as JSON and decodes the response into out. Statuses in
// accept are decoded into out; anything else becomes an error carrying the
// server's message.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any, accept ...int) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.opts.baseURL, "/")+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.opts.token != "":
		req.Header.Set("Authorization", "Bearer "+c.opts.token)
	case c.opts.devUser != "":
		req.Header.Set(middleware.DevUserHeader, c.opts.devUser)
		req.Header.Set(middleware.DevRoleHeader, string(domain.RoleAdmin))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	for _, code := range accept {
		if resp.StatusCode == code {
			if out == nil {
				return resp.StatusCode, nil
			}
			if err := json.Unmarshal(raw, out); err != nil {
				return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
			}
			return resp.StatusCode, nil
		}
	}

	var apiErr dto.ErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
		if apiErr.Message != "" {
			return resp.StatusCode, fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
		}
		return resp.StatusCode, fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
	}
	return resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(raw), 200))
}
