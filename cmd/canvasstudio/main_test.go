/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/export"
	"canvasstudio/internal/workspace"
)

func TestBuildDemo(t *testing.T) {
	st := workspace.New(workspace.Options{})
	nodes := buildDemo(st)
	require.Len(t, nodes, 6)
	assert.Equal(t, 6, st.Len())
	assert.Len(t, st.Connections(), 3)

	var tasks, done int
	for _, n := range st.Nodes() {
		if d, ok := n.Data.(domain.TaskData); ok {
			tasks++
			if d.Done {
				done++
			}
		}
	}
	assert.Equal(t, 2, tasks)
	assert.Equal(t, 1, done)
}

func TestDemoExportsToPNGAndPDF(t *testing.T) {
	st := workspace.New(workspace.Options{})
	buildDemo(st)
	dir := t.TempDir()

	png := filepath.Join(dir, "demo.png")
	require.NoError(t, export.ToFile(png, st.Nodes(), export.Options{Scale: 1}))
	raw, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("\x89PNG")))

	pdf := filepath.Join(dir, "demo.pdf")
	require.NoError(t, export.ToFile(pdf, st.Nodes(), export.Options{Scale: 1}))
	raw, err = os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"ui"}, {"version"}, {"lessons", "list"}, {"lessons", "run"}, {"imagine"},
		{"ask"}, {"export"}, {"mcp"}, {"history"}, {"config", "show"}, {"config", "set-key"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	f := exportCmd.Flags().Lookup("out")
	require.NotNil(t, f)
	assert.Equal(t, "canvas.png", f.DefValue)
}

func TestExtFor(t *testing.T) {
	assert.Equal(t, ".jpg", extFor("image/jpeg"))
	assert.Equal(t, ".webp", extFor("image/webp"))
	assert.Equal(t, ".png", extFor("image/png"))
	assert.Equal(t, ".png", extFor(""))
}
