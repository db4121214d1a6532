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
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"canvasstudio/internal/canvas"
)

const (
	uriCanvas = "canvas://graph"
	uriLesson = "canvas://lesson"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(
		uriCanvas,
		"Canvas description",
		mcp.WithMIMEType("text/plain"),
	), s.handleCanvasResource)

	s.mcp.AddResource(mcp.NewResource(
		uriLesson,
		"Current lesson plan",
		mcp.WithMIMEType("application/json"),
	), s.handleLessonResource)
}

func (s *Server) handleCanvasResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uriCanvas,
			MIMEType: "text/plain",
			Text:     canvas.Describe(s.store.Nodes(), s.store.Selection()),
		},
	}, nil
}

func (s *Server) handleLessonResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	v := planView{}
	if p, ok := s.store.LessonPlan(); ok {
		v = planView{Title: p.Title, Tasks: p.Tasks, Progress: p.Progress()}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uriLesson,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
