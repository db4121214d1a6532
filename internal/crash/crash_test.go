/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvasstudio/internal/telemetry"
)

func init() {
	telemetry.SetDefault(telemetry.New(telemetry.Config{}))
}

func TestWriteReportInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, "Canvas Studio Crash Report")
	assert.Contains(t, s, "Panic: boom")
	assert.NotContains(t, s, "State:")
}

func TestWriteReportInSessionDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "crashes")
	sess := &Session{Dir: dir, Summary: func() string { return "nodes=3 modal=generate-video tasks=1" }}
	path, err := writeReport(sess, "kaboom", []byte("stack"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "State: nodes=3 modal=generate-video tasks=1")
}

func TestSummaryPanicIsContained(t *testing.T) {
	out := safeSummary(func() string { panic("nested") })
	assert.Contains(t, out, "nested")
}

func TestRecoverWritesReportAndExits(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	code := 0
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	func() {
		defer Recover(&Session{Dir: dir})
		panic("boom")
	}()

	files, err := filepath.Glob(filepath.Join(dir, "crash-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	b, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), "Panic: boom")
	assert.Equal(t, 2, code)
}
