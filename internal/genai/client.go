/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "canvasstudio/internal/log"
)

// Models names the provider model used by each operation.
type Models struct {
	Image     string
	Edit      string
	Vision    string
	Video     string
	Speech    string
	Voice     string
	Chat      string
	Reasoning string
}

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Models  Models
	// HTTPClient overrides the default client; tests use httptest servers.
	HTTPClient *http.Client
}

// Client talks to the provider's REST API.
type Client struct {
	base   string
	key    string
	models Models
	http   *http.Client
	log    *slog.Logger
}

// NewClient creates a client. baseURL may include a trailing slash; it will be normalized.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		t := opts.Timeout
		if t <= 0 {
			t = 2 * time.Minute
		}
		hc = &http.Client{Timeout: t}
	}
	return &Client{
		base:   strings.TrimRight(opts.BaseURL, "/"),
		key:    opts.APIKey,
		models: opts.Models,
		http:   hc,
		log:    applog.WithComponent("genai"),
	}
}

var _ Provider = (*Client)(nil)

// doJSON sends body (if any) and decodes the response into dest.
func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	if c.key == "" {
		return ErrNoAPIKey
	}
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = c.base + "/" + strings.TrimLeft(path, "/")
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-goog-api-key", c.key)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, redact(u), err)
	}
	defer resp.Body.Close()
	c.log.Debug("provider call", slog.String("method", method), slog.String("path", redact(u)),
		slog.Int("status", resp.StatusCode), slog.Duration("took", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", redact(u), err)
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env errorEnvelope
	if json.Unmarshal(b, &env) == nil && env.Error.Message != "" {
		return &APIError{Status: resp.StatusCode, Code: env.Error.Status, Message: env.Error.Message}
	}
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func (e *APIError) billing() bool {
	m := strings.ToLower(e.Message)
	return strings.Contains(m, "billing") || (e.Code == "FAILED_PRECONDITION" && strings.Contains(m, "billed"))
}

// redact strips query parameters so keys never reach the log.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<url>"
	}
	u.RawQuery = ""
	return u.String()
}

func modelPath(model, method string) string {
	return "models/" + url.PathEscape(model) + ":" + method
}
