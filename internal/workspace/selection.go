/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import (
	"sort"

	"canvasstudio/internal/domain"
)

// SelectNode toggles id in the selection when multi is set, otherwise makes it
// the only selected node. Ignored while a node is being edited or if id is unknown.
func (s *Store) SelectNode(id string, multi bool) {
	s.mu.Lock()
	if s.editingID != "" {
		s.mu.Unlock()
		return
	}
	if _, ok := s.nodes[id]; !ok {
		s.mu.Unlock()
		return
	}
	if multi {
		if _, on := s.selection[id]; on {
			delete(s.selection, id)
		} else {
			s.selection[id] = struct{}{}
		}
	} else {
		s.selection = map[string]struct{}{id: {}}
	}
	s.mu.Unlock()
	s.emit(Event{Kind: SelectionChanged, IDs: []string{id}})
}

// ClearSelection empties the selection unless a node is being edited.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	if s.editingID != "" || len(s.selection) == 0 {
		s.mu.Unlock()
		return
	}
	s.selection = make(map[string]struct{})
	s.mu.Unlock()
	s.emit(Event{Kind: SelectionChanged})
}

// Selection returns the selected ids, sorted.
func (s *Store) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selection))
	for id := range s.selection {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Store) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selection[id]
	return ok
}

// SetEditingNodeID starts an inline edit on a text node and collapses the
// selection to it. An empty id ends editing and leaves the selection alone.
// Ids that are not text nodes are ignored; the result reports whether the
// editing state changed.
func (s *Store) SetEditingNodeID(id string) bool {
	s.mu.Lock()
	if id == "" {
		if s.editingID == "" {
			s.mu.Unlock()
			return false
		}
		s.editingID = ""
		s.mu.Unlock()
		s.emit(Event{Kind: EditingChanged})
		return true
	}
	n, ok := s.nodes[id]
	if !ok || n.Type != domain.TypeText {
		s.mu.Unlock()
		return false
	}
	s.editingID = id
	s.selection = map[string]struct{}{id: {}}
	s.mu.Unlock()
	s.emit(Event{Kind: EditingChanged, IDs: []string{id}})
	s.emit(Event{Kind: SelectionChanged, IDs: []string{id}})
	return true
}

// EditingNodeID returns the id of the node being edited, or "".
func (s *Store) EditingNodeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingID
}

// IsEditing reports whether any node is being edited.
func (s *Store) IsEditing() bool { return s.EditingNodeID() != "" }
