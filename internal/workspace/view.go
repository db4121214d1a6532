/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import (
	"canvasstudio/internal/vector"
)

// View returns the current world-to-screen transform.
func (s *Store) View() vector.ViewTransform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetView replaces the transform; the scale is clamped to a positive range.
func (s *Store) SetView(v vector.ViewTransform) {
	v.Scale = vector.ClampScale(v.Scale)
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	s.emit(Event{Kind: ViewChanged})
}

// SetOffset commits a pan.
func (s *Store) SetOffset(off vector.Pt) {
	s.mu.Lock()
	s.view.Offset = off
	s.mu.Unlock()
	s.emit(Event{Kind: ViewChanged})
}

// SetViewportSize records the canvas size in pixels.
func (s *Store) SetViewportSize(sz vector.Size) {
	s.mu.Lock()
	if s.viewport == sz {
		s.mu.Unlock()
		return
	}
	s.viewport = sz
	s.mu.Unlock()
	s.emit(Event{Kind: ViewChanged})
}

func (s *Store) ViewportSize() vector.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// ViewportCenter is the canvas centre in screen pixels.
func (s *Store) ViewportCenter() vector.Pt {
	return s.ViewportSize().Center()
}

// ZoomAt scales the view by factor keeping the world point under anchor fixed.
func (s *Store) ZoomAt(anchor vector.Pt, factor float64) {
	s.mu.Lock()
	s.view = s.view.ZoomAt(anchor, factor)
	s.mu.Unlock()
	s.emit(Event{Kind: ViewChanged})
}

// ZoomIn zooms by ZoomStep around the viewport centre.
func (s *Store) ZoomIn() { s.ZoomAt(s.ViewportCenter(), ZoomStep) }

// ZoomOut zooms by 1/ZoomStep around the viewport centre.
func (s *Store) ZoomOut() { s.ZoomAt(s.ViewportCenter(), 1/ZoomStep) }

// ZoomToFit frames every node with FitPadding pixels of margin, never zooming
// past FitMaxScale. Nothing happens when the graph is empty, its bounds have no
// area, or the viewport size is unknown.
func (s *Store) ZoomToFit() bool {
	s.mu.Lock()
	rects := make([]vector.Rect, 0, len(s.nodes))
	for _, n := range s.nodes {
		rects = append(rects, n.Rect())
	}
	bbox, ok := vector.BoundsOf(rects)
	if !ok {
		s.mu.Unlock()
		return false
	}
	v, ok := vector.Fit(bbox, s.viewport, FitPadding, FitMaxScale)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.view = v
	s.mu.Unlock()
	s.emit(Event{Kind: ViewChanged})
	return true
}

// ScreenToWorld converts a pixel position using the current view.
func (s *Store) ScreenToWorld(p vector.Pt) vector.Pt { return s.View().ToWorld(p) }

// WorldToScreen converts a world position using the current view.
func (s *Store) WorldToScreen(p vector.Pt) vector.Pt { return s.View().ToScreen(p) }
