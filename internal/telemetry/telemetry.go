/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in anonymous usage events and crash reports.
// Nothing is sent unless the user opted in and an endpoint is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	applog "canvasstudio/internal/log"
	"canvasstudio/internal/version"
)

// Event names emitted by the generation layer.
const (
	GenerationSucceeded = "generation_succeeded"
	GenerationFailed    = "generation_failed"
)

// Config holds runtime configuration for telemetry and crash uploads.
//
// Environment variables (read by FromEnv):
//   - CVS_TELEMETRY_OPT_IN: "1", "true", "yes" or "on" to enable
//   - CVS_TELEMETRY_URL: endpoint receiving JSON events
//   - CVS_CRASH_UPLOAD_URL: endpoint receiving plain-text crash reports
//   - CVS_TELEMETRY_TIMEOUT_MS: request timeout, default 1500
//   - CVS_TELEMETRY_DEBUG: log send attempts
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("CVS_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("CVS_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("CVS_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("CVS_TELEMETRY_DEBUG") != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CVS_TELEMETRY_TIMEOUT_MS"))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// event is the JSON body of one usage event. Props must never carry prompts,
// file paths or other user content.
type event struct {
	Name    string            `json:"name"`
	TS      string            `json:"ts"`
	Version string            `json:"version"`
	OS      string            `json:"os"`
	Arch    string            `json:"arch"`
	Props   map[string]string `json:"props,omitempty"`
}

// Client sends events from a bounded queue on its own goroutine. Event never blocks;
// when the queue is full the event is dropped.
type Client struct {
	cfg  Config
	log  *slog.Logger
	http *http.Client

	q       chan event
	pending sync.WaitGroup
	stop    chan struct{}
	once    sync.Once
}

// New constructs a client and starts its sender.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		http: &http.Client{Timeout: cfg.Timeout},
		q:    make(chan event, 64),
		stop: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events will actually be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues a named event. props values are stringified.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	e := event{
		Name:    name,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if len(props) > 0 {
		e.Props = make(map[string]string, len(props))
		for k, v := range props {
			e.Props[k] = stringify(v)
		}
	}
	c.pending.Add(1)
	select {
	case c.q <- e:
	default:
		c.pending.Done()
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

// Flush waits until queued events were sent or ctx ends.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close stops the sender. Queued events that were not sent are dropped.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

func (c *Client) loop() {
	for {
		select {
		case <-c.stop:
			return
		case e := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(e))
			c.pending.Done()
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (c *Client) post(url, contentType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry sent", slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a crash report in the background if the user opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	b := append([]byte(nil), report...)
	go c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b)
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// SetDefault installs the client used by package-level helpers such as crash uploads.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
}

// Default returns the installed client, creating one from the environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// UploadCrash using the default client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }
