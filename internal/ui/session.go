/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"canvasstudio/internal/canvas"
	"canvasstudio/internal/config"
	"canvasstudio/internal/domain"
	"canvasstudio/internal/genai"
	"canvasstudio/internal/lessons"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/orchestrator"
	"canvasstudio/internal/storage"
	"canvasstudio/internal/undo"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

// Options configures a desktop session.
type Options struct {
	Config   config.AppConfig
	Provider genai.Provider
	// Media caches generated files and records history; optional.
	Media   *storage.Cache
	Catalog *lessons.Catalog
	// Recorder receives generation telemetry; optional.
	Recorder orchestrator.Recorder
	// OpenURL opens links and hands speech files to the system player.
	OpenURL func(u *url.URL) error
	// Notify and Changed are forwarded to the orchestrator.
	Notify  func(orchestrator.Notice)
	Changed func()
}

// Session wires the workspace and its collaborators for one window. It holds
// no toolkit state and is shared by the desktop shell and its tests.
type Session struct {
	Store    *workspace.Store
	Viewport *canvas.Viewport
	Renderer *canvas.Renderer
	Overlay  *canvas.Overlay
	Orch     *orchestrator.Orchestrator
	Catalog  *lessons.Catalog
	History  *undo.Manager

	log *slog.Logger
}

// NewSession creates an empty workspace with undo history and a running orchestrator.
func NewSession(opts Options) *Session {
	hist := undo.NewManager(undo.Config{
		MaxBytes:    32 * 1024 * 1024,
		MaxDepth:    100,
		MinInterval: 300 * time.Millisecond,
	})
	st := workspace.New(workspace.Options{History: hist})
	vp := canvas.NewViewport(st)

	o := orchestrator.Options{
		Provider:        opts.Provider,
		Store:           st,
		Audio:           PlayerSink{Open: opts.OpenURL},
		Recorder:        opts.Recorder,
		Notify:          opts.Notify,
		Changed:         opts.Changed,
		PollInterval:    opts.Config.Provider.PollInterval(),
		MaxPollAttempts: opts.Config.Provider.PollMaxAttempts,
	}
	if opts.Media != nil {
		o.Media = opts.Media
	}
	orch := orchestrator.New(o)

	var open canvas.URLOpener
	if opts.OpenURL != nil {
		open = func(raw string) error {
			u, err := url.Parse(raw)
			if err != nil {
				return fmt.Errorf("open link: %w", err)
			}
			return opts.OpenURL(u)
		}
	}
	cat := opts.Catalog
	if cat == nil {
		cat = lessons.NewCatalog()
	}
	return &Session{
		Store:    st,
		Viewport: vp,
		Renderer: canvas.NewRenderer(st, vp, orch, open),
		Overlay:  canvas.NewOverlay(st, vp),
		Orch:     orch,
		Catalog:  cat,
		History:  hist,
		log:      applog.WithComponent("ui"),
	}
}

// Close stops every background task.
func (s *Session) Close() { s.Orch.Close() }

// defaultData is the payload of a node created from the toolbar.
func defaultData(t domain.NodeType) (domain.Payload, bool) {
	switch t {
	case domain.TypeText:
		return domain.TextData{Text: "New note"}, true
	case domain.TypeTask:
		return domain.TaskData{Text: "New task"}, true
	case domain.TypeLink:
		return domain.LinkData{URL: "https://", Title: "New link"}, true
	case domain.TypeDraw:
		return domain.DrawData{Color: "#1f2937", StrokeWidth: 3}, true
	}
	return nil, false
}

// AddNode creates a toolbar node centred on the placement point. Image and
// video nodes are not created directly; they come from generation modals.
func (s *Session) AddNode(t domain.NodeType) (domain.Node, error) {
	data, ok := defaultData(t)
	if !ok {
		return domain.Node{}, fmt.Errorf("%w: %q cannot be added from the toolbar", domain.ErrUnknownNodeType, t)
	}
	size := domain.DefaultSize(t)
	p := s.Viewport.PlacementPoint()
	n, err := s.Store.AddNode(domain.NodeSpec{
		Type:     t,
		Position: vector.Pt{X: p.X - size.W/2, Y: p.Y - size.H/2},
		Size:     size,
		Data:     data,
	})
	if err != nil {
		return domain.Node{}, err
	}
	s.Store.SelectNode(n.ID, false)
	s.log.Debug("node added", slog.String("id", n.ID), slog.String("type", string(t)))
	return n, nil
}

// OpenGenerate opens an image or video generation modal placing its result
// at the placement point.
func (s *Session) OpenGenerate(t workspace.ModalType) workspace.Modal {
	size := domain.DefaultSize(domain.TypeImage)
	if t == workspace.ModalGenerateVideo {
		size = domain.DefaultSize(domain.TypeVideo)
	}
	p := s.Viewport.PlacementPoint()
	at := vector.Pt{X: p.X - size.W/2, Y: p.Y - size.H/2}
	return s.Store.OpenModal(t, workspace.ModalPayload{Position: &at})
}

// OpenAssistant opens the conversational assistant.
func (s *Session) OpenAssistant() workspace.Modal {
	return s.Store.OpenModal(workspace.ModalAssistant, workspace.ModalPayload{})
}

// SelectLesson assigns the catalog lesson named by key.
func (s *Session) SelectLesson(key string) error {
	l, ok := s.Catalog.Get(key)
	if !ok {
		return fmt.Errorf("lesson %q not found", key)
	}
	s.Store.SelectLesson(l)
	return nil
}

// Summary is a content-free description of the session for crash reports.
func (s *Session) Summary() string {
	modal := "none"
	if m, ok := s.Store.ActiveModal(); ok {
		modal = string(m.Type)
	}
	return fmt.Sprintf("nodes=%d selected=%d editing=%t modal=%s", s.Store.Len(), len(s.Store.Selection()), s.Store.IsEditing(), modal)
}
