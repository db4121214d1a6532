/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package mcpserver exposes a headless workspace to MCP clients. Every tool
// goes through the same workspace.Store and orchestrator operations as the
// desktop UI.
package mcpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"canvasstudio/internal/lessons"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/orchestrator"
	"canvasstudio/internal/version"
	"canvasstudio/internal/workspace"
)

// Server is the MCP server for one workspace.
type Server struct {
	mcp     *server.MCPServer
	store   *workspace.Store
	orch    *orchestrator.Orchestrator
	catalog *lessons.Catalog
	log     *slog.Logger
}

// Deps holds the collaborators of the server. Orchestrator may be nil when no
// provider is configured; generation tools then report an error.
type Deps struct {
	Store        *workspace.Store
	Orchestrator *orchestrator.Orchestrator
	Catalog      *lessons.Catalog
}

// New creates a server with all tools and resources registered.
func New(deps Deps) *Server {
	s := &Server{
		store:   deps.Store,
		orch:    deps.Orchestrator,
		catalog: deps.Catalog,
		log:     applog.WithComponent("mcp"),
	}
	if s.catalog == nil {
		s.catalog = lessons.NewCatalog()
	}
	s.mcp = server.NewMCPServer(
		"canvasstudio",
		version.String(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)
	s.registerCanvasTools()
	s.registerLessonTools()
	s.registerMediaTools()
	s.registerResources()
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// MCP returns the underlying server, e.g. for an in-process client.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(b bool) *bool { return &b }

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// numberArg reads a JSON number; clients send every number as float64.
func numberArg(args map[string]any, key string) (float64, error) {
	switch v := args[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	}
	return 0, fmt.Errorf("%s must be a number", key)
}

func optNumber(args map[string]any, key string) (float64, bool) {
	v, err := numberArg(args, key)
	return v, err == nil
}
