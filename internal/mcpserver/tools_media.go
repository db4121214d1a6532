/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/export"
	"canvasstudio/internal/genai"
	"canvasstudio/internal/orchestrator"
	"canvasstudio/internal/vector"
)

// errNoProvider is returned by generation tools when the server runs without a provider.
var errNoProvider = errors.New("no generation provider configured (set an API key)")

func (s *Server) registerLessonTools() {
	// ── list_lessons ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_lessons",
		mcp.WithDescription("List the lessons of the catalog"),
	), s.handleListLessons)

	// ── select_lesson ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_lesson",
		mcp.WithDescription("Assign a lesson as the current plan; every task starts open"),
		mcp.WithString("lessonId",
			mcp.Description("Lesson ID or title"),
			mcp.Required(),
		),
	), s.handleSelectLesson)

	// ── toggle_task ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Toggle the completed flag of a task of the current lesson plan"),
		mcp.WithNumber("index",
			mcp.Description("Zero-based task index"),
			mcp.Required(),
		),
	), s.handleToggleTask)
}

func (s *Server) registerMediaTools() {
	// ── generate_image ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("generate_image",
		mcp.WithDescription("Generate an image from a prompt and add it to the canvas"),
		mcp.WithString("prompt", mcp.Description("What to draw"), mcp.Required()),
		mcp.WithString("aspect", mcp.Description("Aspect ratio: 1:1, 16:9, 9:16, 4:3 or 3:4")),
		mcp.WithNumber("x", mcp.Description("World X of the top-left corner")),
		mcp.WithNumber("y", mcp.Description("World Y of the top-left corner")),
	), s.handleGenerateImage)

	// ── export_png ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("export_png",
		mcp.WithDescription("Render the canvas to a PNG file"),
		mcp.WithString("path", mcp.Description("Output file path ending in .png"), mcp.Required()),
		mcp.WithNumber("scale", mcp.Description("Output pixels per world unit (default 1)")),
	), s.handleExportPNG)
}

type lessonSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tasks int    `json:"tasks"`
}

type planView struct {
	Title    string        `json:"title"`
	Tasks    []domain.Task `json:"tasks"`
	Progress float64       `json:"progress"`
}

func (s *Server) handleListLessons(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.catalog.List()
	out := make([]lessonSummary, len(list))
	for i, l := range list {
		out[i] = lessonSummary{ID: l.ID, Title: l.Title, Tasks: len(l.Tasks)}
	}
	return jsonResult(out)
}

func (s *Server) handleSelectLesson(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := stringArg(req.GetArguments(), "lessonId")
	if err != nil {
		return nil, err
	}
	l, ok := s.catalog.Get(key)
	if !ok {
		return nil, fmt.Errorf("lesson %q not found", key)
	}
	p := s.store.SelectLesson(l)
	return jsonResult(planView{Title: p.Title, Tasks: p.Tasks, Progress: p.Progress()})
}

func (s *Server) handleToggleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := numberArg(req.GetArguments(), "index")
	if err != nil {
		return nil, err
	}
	if err := s.store.ToggleTask(int(idx)); err != nil {
		return nil, err
	}
	p, _ := s.store.LessonPlan()
	return textResult(fmt.Sprintf("%d/%d done (%.1f%%)", p.CompletedCount(), p.Total(), p.Progress())), nil
}

func (s *Server) handleGenerateImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.orch == nil {
		return nil, errNoProvider
	}
	args := req.GetArguments()
	prompt, err := stringArg(args, "prompt")
	if err != nil {
		return nil, err
	}
	aspect, _ := args["aspect"].(string)
	r := orchestrator.ImageRequest{Prompt: prompt, Aspect: genai.AspectRatio(aspect)}
	x, okX := optNumber(args, "x")
	y, okY := optNumber(args, "y")
	if okX && okY {
		r.At = &vector.Pt{X: x, Y: y}
	}
	n, err := s.orch.GenerateImage(ctx, r)
	if err != nil {
		return nil, err
	}
	return jsonResult(s.summarize(n))
}

func (s *Server) handleExportPNG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, err := stringArg(args, "path")
	if err != nil {
		return nil, err
	}
	if f, err := export.FormatFor(path); err != nil || f != export.FormatPNG {
		return nil, fmt.Errorf("path %q must end in .png", path)
	}
	opts := export.Options{}
	if sc, ok := optNumber(args, "scale"); ok {
		opts.Scale = sc
	}
	if err := export.ToFile(path, s.store.Nodes(), opts); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return textResult("Canvas written to " + path), nil
}
