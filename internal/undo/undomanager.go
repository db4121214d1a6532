/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot is a reversible state blob. Blob content is opaque to the manager;
// its size is accounted as len(Blob). Label names the edit that produced it
// ("move", "add", ...) and is shown in menus as "Undo <label>".
type Snapshot struct {
	Label string
	Blob  []byte
	TS    time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap over both stacks; the oldest undo entries go first.
	MaxBytes int
	// MaxDepth limits the undo stack length (0 means unlimited).
	MaxDepth int
	// MinInterval coalesces consecutive records with the same label: the older
	// snapshot is kept so a burst of edits reverts in one step.
	MinInterval time.Duration
}

// Manager is an in-memory undo/redo history. Snapshots hold the state
// before an edit. It is safe for concurrent use.
type Manager struct {
	cfg        Config
	mu         sync.Mutex
	undo       []Snapshot
	redo       []Snapshot
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 64 * 1024 * 1024
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg}
}

// Record stores the state captured before an edit and clears the redo stack.
func (m *Manager) Record(s Snapshot) {
	if s.TS.IsZero() {
		s.TS = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked()
	if n := len(m.undo); n > 0 && m.cfg.MinInterval > 0 {
		last := m.undo[n-1]
		if last.Label == s.Label && s.TS.Sub(last.TS) < m.cfg.MinInterval {
			// keep the older state, extend the burst window
			m.undo[n-1].TS = s.TS
			return
		}
	}
	m.undo = append(m.undo, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked()
}

// Undo swaps current for the most recent recorded state. current goes to the redo stack.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.undo)
	if n == 0 {
		return Snapshot{}, false
	}
	s := m.undo[n-1]
	m.undo = m.undo[:n-1]
	m.totalBytes -= len(s.Blob)
	current.Label = s.Label
	m.redo = append(m.redo, current)
	m.totalBytes += len(current.Blob)
	return s, true
}

// Redo swaps current for the most recently undone state.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.redo)
	if n == 0 {
		return Snapshot{}, false
	}
	s := m.redo[n-1]
	m.redo = m.redo[:n-1]
	m.totalBytes -= len(s.Blob)
	current.Label = s.Label
	m.undo = append(m.undo, current)
	m.totalBytes += len(current.Blob)
	m.enforceCapsLocked()
	return s, true
}

// CanUndo reports the label of the next undo step.
func (m *Manager) CanUndo() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return "", false
	}
	return m.undo[len(m.undo)-1].Label, true
}

// CanRedo reports the label of the next redo step.
func (m *Manager) CanRedo() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redo) == 0 {
		return "", false
	}
	return m.redo[len(m.redo)-1].Label, true
}

// Clear drops all history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo, m.redo, m.totalBytes = nil, nil, 0
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes, undoDepth, redoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes, len(m.undo), len(m.redo)
}

func (m *Manager) dropRedoLocked() {
	for _, s := range m.redo {
		m.totalBytes -= len(s.Blob)
	}
	m.redo = nil
}

func (m *Manager) enforceCapsLocked() {
	if m.cfg.MaxDepth > 0 && len(m.undo) > m.cfg.MaxDepth {
		drop := len(m.undo) - m.cfg.MaxDepth
		for i := 0; i < drop; i++ {
			m.totalBytes -= len(m.undo[i].Blob)
		}
		m.undo = append([]Snapshot(nil), m.undo[drop:]...)
	}
	// Global memory cap: prune oldest undo entries, keep at least the newest.
	for m.totalBytes > m.cfg.MaxBytes && len(m.undo) > 1 {
		m.totalBytes -= len(m.undo[0].Blob)
		m.undo = m.undo[1:]
	}
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}
