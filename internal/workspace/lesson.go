/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import "canvasstudio/internal/domain"

// SelectLesson replaces the current plan with a fresh one built from l and opens the panel.
func (s *Store) SelectLesson(l domain.Lesson) domain.LessonPlan {
	p := domain.NewLessonPlan(l)
	s.mu.Lock()
	s.plan = &p
	s.panelOpen = true
	out := p.Clone()
	s.mu.Unlock()
	s.emit(Event{Kind: LessonChanged})
	return out
}

// ToggleTask flips task i of the current plan.
func (s *Store) ToggleTask(i int) error {
	s.mu.Lock()
	if s.plan == nil {
		s.mu.Unlock()
		return ErrNoLessonPlan
	}
	if err := s.plan.Toggle(i); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	s.emit(Event{Kind: LessonChanged})
	return nil
}

// LessonPlan returns a copy of the current plan.
func (s *Store) LessonPlan() (domain.LessonPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return domain.LessonPlan{}, false
	}
	return s.plan.Clone(), true
}

// Progress is the completed percentage of the current plan, 0 without one.
func (s *Store) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return 0
	}
	return s.plan.Progress()
}

// SetPanelOpen shows or hides the lesson panel. The plan is kept either way.
func (s *Store) SetPanelOpen(open bool) {
	s.mu.Lock()
	if s.panelOpen == open {
		s.mu.Unlock()
		return
	}
	s.panelOpen = open
	s.mu.Unlock()
	s.emit(Event{Kind: LessonChanged})
}

func (s *Store) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}
