/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns an unrecovered panic into a logged error, a crash report
// file and an optional opt-in upload.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "canvasstudio/internal/log"
	"canvasstudio/internal/telemetry"
	"canvasstudio/internal/version"
)

// exitFn is swapped in tests so Recover does not terminate the process.
var exitFn = os.Exit

// Session describes where reports go and what the running app was doing.
// A nil Session writes to the temp dir with no extra context.
type Session struct {
	// Dir receives crash-*.log files; created if missing.
	Dir string
	// Summary returns a short, content-free description of the app state
	// (node count, open modal, running tasks). It must not panic.
	Summary func() string
}

// Recover captures a panic, logs it with its stack, writes a crash report and
// exits with status 2.
//
// Usage: defer crash.Recover(sess)
func Recover(s *Session) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	path, err := writeReport(s, r, stack)
	if err != nil {
		l.Error("write crash report", slog.Any("err", err), slog.String("path", path))
	}
	fmt.Fprintf(os.Stderr, "Canvas Studio stopped unexpectedly. A crash report was saved to: %s\n", path)
	fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func reportDir(s *Session) string {
	if s != nil && s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o755); err == nil {
			return s.Dir
		}
	}
	return os.TempDir()
}

func writeReport(s *Session, panicVal any, stack []byte) (string, error) {
	now := time.Now()
	path := filepath.Join(reportDir(s), fmt.Sprintf("crash-%s.log", now.Format("20060102-150405")))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Canvas Studio Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if s != nil && s.Summary != nil {
		fmt.Fprintf(&buf, "State: %s\n", safeSummary(s.Summary))
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}

func safeSummary(fn func() string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("<summary failed: %v>", r)
		}
	}()
	return fn()
}
