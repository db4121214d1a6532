/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas holds the toolkit-independent interaction logic of the
// workspace surface: viewport pan/zoom, per-node rendering decisions and
// actions, and the inline text editor. A UI toolkit feeds it pointer and key
// events and draws what it returns.
package canvas

import (
	"math"

	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

// WheelStep is the zoom factor applied per wheel notch.
const WheelStep = 1.1

// Key names the keys the canvas reacts to.
type Key string

const (
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "BackSpace"
	KeyEnter     Key = "Return"
	KeyEscape    Key = "Escape"
)

// Viewport maps between world and screen space and turns background input
// into store mutations.
type Viewport struct {
	store *workspace.Store

	pointer    vector.Pt
	hasPointer bool

	panning   bool
	panStart  vector.Pt
	panOrigin vector.Pt
	panOffset vector.Pt
}

func NewViewport(s *workspace.Store) *Viewport { return &Viewport{store: s} }

// View is the transform to draw with, including an uncommitted pan.
func (v *Viewport) View() vector.ViewTransform {
	view := v.store.View()
	if v.panning {
		view.Offset = v.panOffset
	}
	return view
}

func (v *Viewport) ScreenToWorld(p vector.Pt) vector.Pt { return v.View().ToWorld(p) }
func (v *Viewport) WorldToScreen(p vector.Pt) vector.Pt { return v.View().ToScreen(p) }

// PointerMoved records the last pointer position over the canvas.
func (v *Viewport) PointerMoved(p vector.Pt) {
	v.pointer, v.hasPointer = p, true
	if v.panning {
		v.panOffset = v.panOrigin.Add(p.Sub(v.panStart))
	}
}

// PointerLeft forgets the pointer position.
func (v *Viewport) PointerLeft() { v.hasPointer = false }

// PlacementPoint is the world point where a new node should go: under the
// pointer when known, else the viewport centre.
func (v *Viewport) PlacementPoint() vector.Pt {
	if v.hasPointer {
		return v.ScreenToWorld(v.pointer)
	}
	return v.ScreenToWorld(v.store.ViewportCenter())
}

// WheelFactor returns the zoom factor for a wheel delta: 1.1 per notch
// towards negative deltaY, 1/1.1 otherwise, 1 for no movement.
func WheelFactor(deltaY float64) float64 {
	if deltaY == 0 || math.IsNaN(deltaY) {
		return 1
	}
	dir := -math.Copysign(1, deltaY)
	return math.Pow(WheelStep, dir)
}

// Wheel zooms around the pointer so the world point under it stays put.
func (v *Viewport) Wheel(pointer vector.Pt, deltaY float64) {
	f := WheelFactor(deltaY)
	v.PointerMoved(pointer)
	if f == 1 {
		return
	}
	v.store.ZoomAt(pointer, f)
}

// BeginPan starts a background drag. Panning is disabled while a node is edited.
func (v *Viewport) BeginPan(p vector.Pt) bool {
	if v.store.IsEditing() {
		return false
	}
	v.panning = true
	v.panStart = p
	v.panOrigin = v.store.View().Offset
	v.panOffset = v.panOrigin
	return true
}

// Panning reports whether a background drag is in progress.
func (v *Viewport) Panning() bool { return v.panning }

// EndPan commits the dragged offset.
func (v *Viewport) EndPan(p vector.Pt) {
	if !v.panning {
		return
	}
	v.PointerMoved(p)
	v.panning = false
	v.store.SetOffset(v.panOffset)
}

// BackgroundClick handles a click that hit no node.
func (v *Viewport) BackgroundClick() { v.store.ClearSelection() }

// KeyDown handles canvas-level keys and reports whether the key was consumed.
func (v *Viewport) KeyDown(k Key) bool {
	switch k {
	case KeyDelete, KeyBackspace:
		if v.store.IsEditing() || len(v.store.Selection()) == 0 {
			return false
		}
		v.store.DeleteSelectedNodes()
		return true
	}
	return false
}

// Resize records the container's new pixel size.
func (v *Viewport) Resize(sz vector.Size) { v.store.SetViewportSize(sz) }
