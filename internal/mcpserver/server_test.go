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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/genai"
	"canvasstudio/internal/lessons"
	"canvasstudio/internal/orchestrator"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

// imageOnly answers GenerateImage; every other provider call panics.
type imageOnly struct {
	genai.Provider
	prompts []string
}

func (p *imageOnly) GenerateImage(_ context.Context, prompt string, _ genai.AspectRatio) (genai.Image, error) {
	p.prompts = append(p.prompts, prompt)
	return genai.Image{Bytes: []byte("png"), MIMEType: "image/png"}, nil
}

type nopRecorder struct{}

func (nopRecorder) Event(string, map[string]any) {}

func newTestServer(t *testing.T, prov genai.Provider) (*Server, *workspace.Store) {
	t.Helper()
	n := 0
	st := workspace.New(workspace.Options{
		NewID:    func() string { n++; return fmt.Sprintf("n%d", n) },
		Viewport: vector.Size{W: 800, H: 600},
	})
	var orch *orchestrator.Orchestrator
	if prov != nil {
		orch = orchestrator.New(orchestrator.Options{Provider: prov, Store: st, Recorder: nopRecorder{}})
		t.Cleanup(orch.Close)
	}
	return New(Deps{Store: st, Orchestrator: orch, Catalog: lessons.NewCatalog()}), st
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestAddTextNodeCentresInView(t *testing.T) {
	s, st := newTestServer(t, nil)
	res, err := s.handleAddTextNode(context.Background(), call(map[string]any{"text": "hello"}))
	require.NoError(t, err)

	var got nodeSummary
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, 300.0, got.X)
	assert.Equal(t, 250.0, got.Y)
	assert.Equal(t, 1, st.Len())

	_, err = s.handleAddTextNode(context.Background(), call(map[string]any{"text": "  "}))
	assert.Error(t, err)
}

func TestMoveResizeAndDelete(t *testing.T) {
	s, st := newTestServer(t, nil)
	ctx := context.Background()
	for _, x := range []float64{0, 400} {
		_, err := s.handleAddTextNode(ctx, call(map[string]any{"text": "note", "x": x, "y": 0.0}))
		require.NoError(t, err)
	}

	_, err := s.handleMoveNode(ctx, call(map[string]any{"nodeId": "n1", "x": 10.0, "y": 20.0}))
	require.NoError(t, err)
	n, _ := st.Node("n1")
	assert.Equal(t, vector.Pt{X: 10, Y: 20}, n.Position)

	_, err = s.handleResizeNode(ctx, call(map[string]any{"nodeId": "n1", "width": 10.0, "height": 300.0}))
	require.NoError(t, err)
	n, _ = st.Node("n1")
	assert.Equal(t, vector.Size{W: 50, H: 300}, n.Size)

	_, err = s.handleMoveNode(ctx, call(map[string]any{"nodeId": "nope", "x": 1.0, "y": 1.0}))
	assert.ErrorContains(t, err, "not found")

	res, err := s.handleDeleteNodes(ctx, call(map[string]any{"nodeIds": "n2, n1, n2"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted":["n1","n2"]}`, text(t, res))
	assert.Zero(t, st.Len())
}

func TestDescribeAndListNodes(t *testing.T) {
	s, st := newTestServer(t, nil)
	ctx := context.Background()
	res, err := s.handleDescribeCanvas(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, "The canvas is empty.", text(t, res))

	_, err = st.AddNode(domain.NodeSpec{Type: domain.TypeTask, Size: vector.Size{W: 100, H: 40}, Data: domain.TaskData{Text: "water plants"}})
	require.NoError(t, err)
	_, err = s.handleAddTextNode(ctx, call(map[string]any{"text": "hi", "x": 0.0, "y": 0.0}))
	require.NoError(t, err)

	res, err = s.handleListNodes(ctx, call(map[string]any{"type": "task"}))
	require.NoError(t, err)
	var got []nodeSummary
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].ID)

	res, err = s.handleDescribeCanvas(ctx, call(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "water plants")
	assert.Equal(t, 2, strings.Count(text(t, res), "\n"))
}

func TestZoomToFitTool(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx := context.Background()
	res, err := s.handleZoomToFit(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, "Nothing to fit", text(t, res))

	_, err = s.handleAddTextNode(ctx, call(map[string]any{"text": "a", "x": 0.0, "y": 0.0}))
	require.NoError(t, err)
	res, err = s.handleZoomToFit(ctx, call(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "View scale 1.500")
}

func TestLessonTools(t *testing.T) {
	s, st := newTestServer(t, nil)
	ctx := context.Background()

	res, err := s.handleListLessons(ctx, call(nil))
	require.NoError(t, err)
	var list []lessonSummary
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &list))
	require.NotEmpty(t, list)

	_, err = s.handleToggleTask(ctx, call(map[string]any{"index": 0.0}))
	assert.ErrorIs(t, err, workspace.ErrNoLessonPlan)

	_, err = s.handleSelectLesson(ctx, call(map[string]any{"lessonId": "explore-the-solar-system"}))
	require.NoError(t, err)
	res, err = s.handleToggleTask(ctx, call(map[string]any{"index": 0.0}))
	require.NoError(t, err)
	assert.Equal(t, "1/8 done (12.5%)", text(t, res))
	assert.Equal(t, 12.5, st.Progress())

	_, err = s.handleToggleTask(ctx, call(map[string]any{"index": 8.0}))
	assert.Error(t, err)
	_, err = s.handleSelectLesson(ctx, call(map[string]any{"lessonId": "no-such-lesson"}))
	assert.Error(t, err)
}

func TestGenerateImageTool(t *testing.T) {
	s, _ := newTestServer(t, nil)
	_, err := s.handleGenerateImage(context.Background(), call(map[string]any{"prompt": "a red ball"}))
	assert.ErrorIs(t, err, errNoProvider)

	prov := &imageOnly{}
	s, st := newTestServer(t, prov)
	res, err := s.handleGenerateImage(context.Background(), call(map[string]any{
		"prompt": "a red ball", "aspect": "16:9", "x": 5.0, "y": 6.0,
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a red ball"}, prov.prompts)
	var got nodeSummary
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	n, ok := st.Node(got.ID)
	require.True(t, ok)
	assert.Equal(t, domain.TypeImage, n.Type)
	assert.Equal(t, vector.Pt{X: 5, Y: 6}, n.Position)
	assert.Greater(t, n.Size.W, n.Size.H)
}

func TestExportPNGTool(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "canvas.png")

	_, err := s.handleExportPNG(ctx, call(map[string]any{"path": out}))
	assert.Error(t, err, "empty canvas")

	_, err = s.handleAddTextNode(ctx, call(map[string]any{"text": "a", "x": 0.0, "y": 0.0}))
	require.NoError(t, err)
	_, err = s.handleExportPNG(ctx, call(map[string]any{"path": filepath.Join(t.TempDir(), "canvas.pdf")}))
	assert.ErrorContains(t, err, ".png")

	_, err = s.handleExportPNG(ctx, call(map[string]any{"path": out}))
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestResources(t *testing.T) {
	s, st := newTestServer(t, nil)
	ctx := context.Background()
	l, ok := lessons.NewCatalog().Get("parts-of-a-plant")
	require.True(t, ok)
	st.SelectLesson(l)

	contents, err := s.handleLessonResource(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc := contents[0].(mcp.TextResourceContents)
	assert.Contains(t, tc.Text, "Parts of a Plant")

	contents, err = s.handleCanvasResource(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	assert.Equal(t, "The canvas is empty.", contents[0].(mcp.TextResourceContents).Text)
}
