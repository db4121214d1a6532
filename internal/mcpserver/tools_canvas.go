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
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"canvasstudio/internal/canvas"
	"canvasstudio/internal/domain"
	"canvasstudio/internal/vector"
)

func (s *Server) registerCanvasTools() {
	// ── list_nodes ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List the nodes on the canvas in paint order"),
		mcp.WithString("type",
			mcp.Description("Only list nodes of this type (text, image, video, voice, link, task, draw)"),
		),
	), s.handleListNodes)

	// ── describe_canvas ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("describe_canvas",
		mcp.WithDescription("Describe the whole canvas in plain text, one line per node"),
	), s.handleDescribeCanvas)

	// ── add_text_node ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_text_node",
		mcp.WithDescription("Add a text note. Without x/y it is centred in the current view."),
		mcp.WithString("text",
			mcp.Description("Note text"),
			mcp.Required(),
		),
		mcp.WithNumber("x", mcp.Description("World X of the top-left corner")),
		mcp.WithNumber("y", mcp.Description("World Y of the top-left corner")),
	), s.handleAddTextNode)

	// ── move_node ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Move a node so its top-left corner is at (x, y) in world coordinates"),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("World X"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("World Y"), mcp.Required()),
	), s.handleMoveNode)

	// ── resize_node ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_node",
		mcp.WithDescription(fmt.Sprintf("Resize a node; each side is at least %.0f", canvas.MinNodeSize)),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
	), s.handleResizeNode)

	// ── delete_nodes ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_nodes",
		mcp.WithDescription("Delete nodes by ID"),
		mcp.WithString("nodeIds",
			mcp.Description("Comma-separated node IDs"),
			mcp.Required(),
		),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteNodes)

	// ── zoom_to_fit ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("zoom_to_fit",
		mcp.WithDescription("Frame every node in the view"),
	), s.handleZoomToFit)
}

type nodeSummary struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`
	Summary  string  `json:"summary"`
	Selected bool    `json:"selected,omitempty"`
}

func (s *Server) summarize(n domain.Node) nodeSummary {
	return nodeSummary{
		ID:       n.ID,
		Type:     string(n.Type),
		X:        n.Position.X,
		Y:        n.Position.Y,
		Width:    n.Size.W,
		Height:   n.Size.H,
		Rotation: n.Rotation,
		Summary:  canvas.Summary(n),
		Selected: s.store.IsSelected(n.ID),
	}
}

func (s *Server) handleListNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	filter, _ := args["type"].(string)
	out := []nodeSummary{}
	for _, n := range s.store.Nodes() {
		if filter != "" && string(n.Type) != filter {
			continue
		}
		out = append(out, s.summarize(n))
	}
	return jsonResult(out)
}

func (s *Server) handleDescribeCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult(canvas.Describe(s.store.Nodes(), s.store.Selection())), nil
}

func (s *Server) handleAddTextNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	text, err := stringArg(args, "text")
	if err != nil {
		return nil, err
	}
	size := domain.DefaultSize(domain.TypeText)
	c := s.store.ScreenToWorld(s.store.ViewportCenter())
	pos := vector.Pt{X: c.X - size.W/2, Y: c.Y - size.H/2}
	if x, ok := optNumber(args, "x"); ok {
		pos.X = x
	}
	if y, ok := optNumber(args, "y"); ok {
		pos.Y = y
	}
	n, err := s.store.AddNode(domain.NodeSpec{
		Type:     domain.TypeText,
		Position: pos,
		Size:     size,
		Data:     domain.TextData{Text: text},
	})
	if err != nil {
		return nil, fmt.Errorf("add text node: %w", err)
	}
	return jsonResult(s.summarize(n))
}

func (s *Server) handleMoveNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := stringArg(args, "nodeId")
	if err != nil {
		return nil, err
	}
	x, err := numberArg(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := numberArg(args, "y")
	if err != nil {
		return nil, err
	}
	if !s.store.HandleDragEnd(id, vector.Pt{X: x, Y: y}) {
		return nil, fmt.Errorf("node %s not found", id)
	}
	return textResult(fmt.Sprintf("Node %s moved to (%.0f, %.0f)", id, x, y)), nil
}

func (s *Server) handleResizeNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := stringArg(args, "nodeId")
	if err != nil {
		return nil, err
	}
	w, err := numberArg(args, "width")
	if err != nil {
		return nil, err
	}
	h, err := numberArg(args, "height")
	if err != nil {
		return nil, err
	}
	size := vector.Size{W: max(w, canvas.MinNodeSize), H: max(h, canvas.MinNodeSize)}
	if !s.store.UpdateNode(id, domain.NodePatch{Size: &size}) {
		return nil, fmt.Errorf("node %s not found", id)
	}
	return textResult(fmt.Sprintf("Node %s resized to %.0fx%.0f", id, size.W, size.H)), nil
}

func (s *Server) handleDeleteNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	raw, err := stringArg(args, "nodeIds")
	if err != nil {
		return nil, err
	}
	if s.store.IsEditing() {
		return nil, fmt.Errorf("a node is being edited; finish editing first")
	}
	s.store.ClearSelection()
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" && !s.store.IsSelected(id) {
			s.store.SelectNode(id, true)
		}
	}
	removed := s.store.DeleteSelectedNodes()
	if removed == nil {
		removed = []string{}
	}
	return jsonResult(map[string]any{"deleted": removed})
}

func (s *Server) handleZoomToFit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.store.ZoomToFit() {
		return textResult("Nothing to fit"), nil
	}
	v := s.store.View()
	return textResult(fmt.Sprintf("View scale %.3f, offset (%.0f, %.0f)", v.Scale, v.Offset.X, v.Offset.Y)), nil
}
