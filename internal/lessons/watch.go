/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package lessons

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "canvasstudio/internal/log"
)

// reloadDebounce collapses the burst of events editors produce on save.
const reloadDebounce = 150 * time.Millisecond

// Watch reloads the catalog file into c whenever it changes until ctx ends.
// The parent directory is watched so that atomic replace-on-save is seen.
// onReload, if set, is called after every attempt with its error (nil on success);
// an invalid file keeps the previous catalog.
func Watch(ctx context.Context, c *Catalog, path string, onReload func(error)) error {
	l := applog.WithComponent("lessons").With(slog.String("file", path))
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	go func() {
		defer w.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
					if timer == nil {
						timer = time.NewTimer(reloadDebounce)
					} else {
						timer.Reset(reloadDebounce)
					}
					fire = timer.C
				}
			case <-fire:
				fire = nil
				err := LoadInto(c, path)
				if err != nil {
					l.Warn("lesson catalog reload failed", slog.Any("err", err))
				} else {
					l.Info("lesson catalog reloaded", slog.Int("lessons", len(c.List())))
				}
				if onReload != nil {
					onReload(err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.Warn("watch error", slog.Any("err", err))
			}
		}
	}()
	return nil
}
