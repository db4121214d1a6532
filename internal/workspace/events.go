/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import "errors"

// ErrNoLessonPlan is returned by lesson operations before a lesson was selected.
var ErrNoLessonPlan = errors.New("no lesson plan assigned")

// EventKind classifies a change notification.
type EventKind int

const (
	NodesChanged EventKind = iota
	SelectionChanged
	EditingChanged
	ViewChanged
	ModalChanged
	LessonChanged
)

func (k EventKind) String() string {
	switch k {
	case NodesChanged:
		return "nodes"
	case SelectionChanged:
		return "selection"
	case EditingChanged:
		return "editing"
	case ViewChanged:
		return "view"
	case ModalChanged:
		return "modal"
	case LessonChanged:
		return "lesson"
	}
	return "unknown"
}

// Event tells subscribers what changed. IDs lists affected nodes when known.
type Event struct {
	Kind EventKind
	IDs  []string
}

// Subscribe registers fn for change events and returns a function that removes it.
// fn runs on the goroutine that made the change, after the store lock is released.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) emit(e Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}
