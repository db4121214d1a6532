/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package workspace owns the canvas state: the node graph, selection,
// viewport transform, editing and modal state, and the assigned lesson plan.
//
// A Store is an explicit object handed to the canvas, the orchestrator and
// the UI. UI callbacks and background generation tasks both mutate it, so
// every method takes the store lock; subscribers are notified after the
// lock is released.
package workspace

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"canvasstudio/internal/domain"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/undo"
	"canvasstudio/internal/vector"
)

// Toolbar zoom step, fit padding and the largest scale zoom-to-fit will pick.
const (
	ZoomStep    = 1.2
	FitPadding  = 100.0
	FitMaxScale = 1.5
)

// Options configures a Store. Zero values are usable.
type Options struct {
	// NewID returns a fresh node/connection id; defaults to random UUIDs.
	NewID func() string
	// History, when set, records graph edits for undo/redo.
	History *undo.Manager
	// Viewport is the initial pixel size of the canvas.
	Viewport vector.Size
}

// Store is the workspace state. The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex

	nodes map[string]domain.Node
	order []string // creation order, used as paint order
	conns []domain.Connection

	selection map[string]struct{}
	editingID string

	view     vector.ViewTransform
	viewport vector.Size

	modal    *Modal
	modalSeq int64

	plan      *domain.LessonPlan
	panelOpen bool

	history *undo.Manager
	newID   func() string

	subs    map[int]func(Event)
	nextSub int

	log *slog.Logger
}

// New creates an empty workspace.
func New(opts Options) *Store {
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Store{
		nodes:     make(map[string]domain.Node),
		selection: make(map[string]struct{}),
		view:      vector.IdentityView,
		viewport:  opts.Viewport,
		history:   opts.History,
		newID:     newID,
		subs:      make(map[int]func(Event)),
		log:       applog.WithComponent("workspace"),
	}
}

// AddNode assigns a fresh id, inserts the node and returns it. Only a spec whose
// payload does not match its type is rejected.
func (s *Store) AddNode(spec domain.NodeSpec) (domain.Node, error) {
	s.mu.Lock()
	id := s.uniqueIDLocked()
	n, err := domain.NewNode(id, spec)
	if err != nil {
		s.mu.Unlock()
		return domain.Node{}, err
	}
	s.recordLocked("add")
	s.nodes[id] = n
	s.order = append(s.order, id)
	s.mu.Unlock()
	s.emit(Event{Kind: NodesChanged, IDs: []string{id}})
	return n, nil
}

func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if _, taken := s.nodes[id]; !taken && id != "" {
			return id
		}
	}
}

// UpdateNode merges the non-nil fields of p into node id. A missing id is a
// silent no-op; the result reports whether a node was found.
func (s *Store) UpdateNode(id string, p domain.NodePatch) bool {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if p.Empty() {
		s.mu.Unlock()
		return true
	}
	s.recordLocked("change")
	s.nodes[id] = p.Apply(n)
	s.mu.Unlock()
	s.emit(Event{Kind: NodesChanged, IDs: []string{id}})
	return true
}

// UpdateNodeData merges a payload patch into node id. A missing id is a silent
// no-op (false, nil); a patch for another variant fails without touching the node.
func (s *Store) UpdateNodeData(id string, p domain.DataPatch) (bool, error) {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	next, err := domain.ApplyData(n, p)
	if err != nil {
		s.mu.Unlock()
		return true, err
	}
	if p == nil || p.Empty() {
		s.mu.Unlock()
		return true, nil
	}
	s.recordLocked("edit")
	s.nodes[id] = next
	s.mu.Unlock()
	s.emit(Event{Kind: NodesChanged, IDs: []string{id}})
	return true, nil
}

// HandleDragEnd commits the final world position of a dragged node.
func (s *Store) HandleDragEnd(id string, pos vector.Pt) bool {
	return s.UpdateNode(id, domain.NodePatch{Position: &pos})
}

// Has reports whether id is a node in the graph.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[id]
	return ok
}

// Node returns a copy of node id.
func (s *Store) Node(id string) (domain.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns all nodes in paint order.
func (s *Store) Nodes() []domain.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// DeleteSelectedNodes removes every selected node, prunes connections that
// touch them and clears the selection. It returns the removed ids.
func (s *Store) DeleteSelectedNodes() []string {
	s.mu.Lock()
	if len(s.selection) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.recordLocked("delete")
	removed := make([]string, 0, len(s.selection))
	for id := range s.selection {
		if _, ok := s.nodes[id]; !ok {
			continue
		}
		delete(s.nodes, id)
		removed = append(removed, id)
	}
	sort.Strings(removed)
	s.selection = make(map[string]struct{})
	s.pruneLocked()
	s.mu.Unlock()
	s.log.Debug("nodes deleted", slog.Int("count", len(removed)))
	s.emit(Event{Kind: NodesChanged, IDs: removed})
	s.emit(Event{Kind: SelectionChanged})
	return removed
}

// pruneLocked drops order entries, connections, selection and editing state
// that reference nodes no longer in the graph.
func (s *Store) pruneLocked() {
	order := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.nodes[id]; ok {
			order = append(order, id)
		}
	}
	s.order = order
	conns := s.conns[:0]
	for _, c := range s.conns {
		_, a := s.nodes[c.From]
		_, b := s.nodes[c.To]
		if a && b {
			conns = append(conns, c)
		}
	}
	s.conns = conns
	for id := range s.selection {
		if _, ok := s.nodes[id]; !ok {
			delete(s.selection, id)
		}
	}
	if _, ok := s.nodes[s.editingID]; !ok {
		s.editingID = ""
	}
}

// AddConnection links two existing nodes. It returns false if either endpoint is missing.
func (s *Store) AddConnection(from, to, label string) (domain.Connection, bool) {
	s.mu.Lock()
	_, a := s.nodes[from]
	_, b := s.nodes[to]
	if !a || !b || from == to {
		s.mu.Unlock()
		return domain.Connection{}, false
	}
	s.recordLocked("connect")
	c := domain.Connection{ID: s.newID(), From: from, To: to, Label: label}
	s.conns = append(s.conns, c)
	s.mu.Unlock()
	s.emit(Event{Kind: NodesChanged})
	return c, true
}

// Connections returns a copy of all edges.
func (s *Store) Connections() []domain.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Connection(nil), s.conns...)
}

// graph is the undoable part of the workspace.
type graph struct {
	Nodes       []domain.Node       `json:"nodes"`
	Connections []domain.Connection `json:"connections,omitempty"`
}

func (s *Store) snapshotLocked() []byte {
	g := graph{Nodes: make([]domain.Node, 0, len(s.order)), Connections: s.conns}
	for _, id := range s.order {
		g.Nodes = append(g.Nodes, s.nodes[id])
	}
	b, err := json.Marshal(g)
	if err != nil {
		s.log.Error("snapshot graph", slog.Any("err", err))
		return nil
	}
	return b
}

func (s *Store) restoreLocked(blob []byte) bool {
	var g graph
	if err := json.Unmarshal(blob, &g); err != nil {
		s.log.Error("restore graph", slog.Any("err", err))
		return false
	}
	s.nodes = make(map[string]domain.Node, len(g.Nodes))
	s.order = s.order[:0]
	for _, n := range g.Nodes {
		s.nodes[n.ID] = n
		s.order = append(s.order, n.ID)
	}
	s.conns = g.Connections
	s.pruneLocked()
	return true
}

func (s *Store) recordLocked(label string) {
	if s.history == nil {
		return
	}
	if blob := s.snapshotLocked(); blob != nil {
		s.history.Record(undo.Snapshot{Label: label, Blob: blob, TS: time.Now()})
	}
}

// Undo reverts the last graph edit. Selection entries for vanished nodes are pruned.
func (s *Store) Undo() bool {
	return s.travel(func(cur undo.Snapshot) (undo.Snapshot, bool) { return s.history.Undo(cur) })
}

// Redo re-applies the last undone graph edit.
func (s *Store) Redo() bool {
	return s.travel(func(cur undo.Snapshot) (undo.Snapshot, bool) { return s.history.Redo(cur) })
}

func (s *Store) travel(step func(undo.Snapshot) (undo.Snapshot, bool)) bool {
	if s.history == nil {
		return false
	}
	s.mu.Lock()
	cur := s.snapshotLocked()
	if cur == nil {
		s.mu.Unlock()
		return false
	}
	prev, ok := step(undo.Snapshot{Blob: cur, TS: time.Now()})
	if !ok || !s.restoreLocked(prev.Blob) {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	s.emit(Event{Kind: NodesChanged})
	s.emit(Event{Kind: SelectionChanged})
	return true
}
