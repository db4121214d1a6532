/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"canvasstudio/internal/config"
	"canvasstudio/internal/crash"
	"canvasstudio/internal/genai"
	"canvasstudio/internal/lessons"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/orchestrator"
	"canvasstudio/internal/storage"
	"canvasstudio/internal/telemetry"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

// env is what every subcommand shares once the root command has set up.
type env struct {
	cfg     config.AppConfig
	apiKey  string
	media   *storage.Cache
	catalog *lessons.Catalog
	tele    *telemetry.Client
	log     *slog.Logger

	stop []func()
}

var app = &env{}

var rootCmd = &cobra.Command{
	Use:   "canvasstudio",
	Short: "An infinite canvas for notes, tasks and generated media",
	Long: `Canvas Studio is a spatial workspace: place notes, tasks, links, drawings,
generated images and videos on an infinite canvas, follow guided lessons and
talk to an assistant that sees the whole board.

Run "canvasstudio ui" for the desktop app (build with -tags fyne), or use the
subcommands for headless generation, export and the MCP tool server.`,
	SilenceUsage:       true,
	PersistentPreRunE:  func(cmd *cobra.Command, _ []string) error { return app.setup(cmd.Context()) },
	PersistentPostRunE: func(*cobra.Command, []string) error { app.teardown(); return nil },
}

func (e *env) setup(ctx context.Context) error {
	cfg, key, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.cfg, e.apiKey = cfg, key

	// Load already applied the CVS_LOG_* overrides.
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	e.log = applog.WithComponent("cli")

	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || cfg.General.TelemetryOptIn
	e.tele = telemetry.New(tc)
	telemetry.SetDefault(e.tele)
	e.stop = append(e.stop, e.tele.Close)

	if cfg.Media.CacheDir != "" {
		c, err := storage.Open(cfg.Media.CacheDir, cfg.Media.MaxCacheBytes)
		if err != nil {
			// Generation still works without history; files stay in memory.
			e.log.Warn("media cache unavailable", slog.String("dir", cfg.Media.CacheDir), slog.Any("err", err))
		} else {
			e.media = c
			e.stop = append(e.stop, func() { _ = c.Close() })
			if stop, err := c.StartJanitor(cfg.Media.EvictSchedule); err != nil {
				e.log.Warn("cache janitor not started", slog.Any("err", err))
			} else {
				e.stop = append(e.stop, stop)
			}
		}
	}

	e.catalog = lessons.NewCatalog()
	if path := cfg.Lessons.CatalogFile; path != "" {
		if err := lessons.LoadInto(e.catalog, path); err != nil {
			e.log.Warn("lesson catalog not loaded", slog.String("file", path), slog.Any("err", err))
		}
		if cfg.Lessons.Watch {
			wctx, cancel := context.WithCancel(ctx)
			e.stop = append(e.stop, cancel)
			err := lessons.Watch(wctx, e.catalog, path, func(err error) {
				if err == nil {
					e.log.Info("lesson catalog reloaded", slog.String("file", path))
				}
			})
			if err != nil {
				e.log.Warn("lesson catalog not watched", slog.Any("err", err))
			}
		}
	}
	e.log.Debug("setup done", slog.Bool("media", e.media != nil), slog.Int("lessons", len(e.catalog.List())))
	return nil
}

func (e *env) teardown() {
	for i := len(e.stop) - 1; i >= 0; i-- {
		e.stop[i]()
	}
	e.stop = nil
}

func (e *env) provider() genai.Provider {
	p := e.cfg.Provider
	return genai.NewClient(genai.Options{
		BaseURL: p.BaseURL,
		APIKey:  e.apiKey,
		Timeout: p.Timeout(),
		Models: genai.Models{
			Image:     p.ImageModel,
			Edit:      p.EditModel,
			Vision:    p.VisionModel,
			Video:     p.VideoModel,
			Speech:    p.SpeechModel,
			Voice:     p.SpeechVoice,
			Chat:      p.ChatModel,
			Reasoning: p.ReasoningModel,
		},
	})
}

// headless builds a workspace with an orchestrator for commands without a window.
func (e *env) headless(notify func(orchestrator.Notice)) (*workspace.Store, *orchestrator.Orchestrator) {
	st := workspace.New(workspace.Options{Viewport: vector.Size{W: 1280, H: 800}})
	o := orchestrator.Options{
		Provider:        e.provider(),
		Store:           st,
		Notify:          notify,
		Recorder:        e.tele,
		PollInterval:    e.cfg.Provider.PollInterval(),
		MaxPollAttempts: e.cfg.Provider.PollMaxAttempts,
	}
	if e.media != nil {
		o.Media = e.media
	}
	return st, orchestrator.New(o)
}

func (e *env) crashSession(summary func() string) *crash.Session {
	dir := ""
	if e.cfg.Media.CacheDir != "" {
		dir = filepath.Join(e.cfg.Media.CacheDir, "crash")
	}
	return &crash.Session{Dir: dir, Summary: summary}
}

func main() {
	defer crash.Recover(nil)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
