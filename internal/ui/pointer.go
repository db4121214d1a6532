/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

// Pointer handling for the board: taps, handle grabs and drags, expressed in
// screen coordinates so the desktop widget only forwards events.

import (
	"math"

	"canvasstudio/internal/canvas"
	"canvasstudio/internal/domain"
	"canvasstudio/internal/vector"
)

// Handle and action button metrics in screen pixels.
const (
	HandleSize   = 10.0
	RotateOffset = 24.0
	ActionWidth  = 84.0
	ActionHeight = 22.0
	actionGap    = 4.0
	actionMargin = 6.0
)

type dragKind int

const (
	dragNone dragKind = iota
	dragPan
	dragMove
	dragResize
	dragRotate
)

var actionLabels = map[canvas.Action]string{
	canvas.ActionReadAloud:  "Read aloud",
	canvas.ActionAnalyze:    "Analyze",
	canvas.ActionEdit:       "Edit",
	canvas.ActionAnimate:    "Animate",
	canvas.ActionPlay:       "Play",
	canvas.ActionToggleDone: "Done",
	canvas.ActionOpenLink:   "Open",
}

// ActionLabel is the button caption of a node action.
func ActionLabel(a canvas.Action) string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

// ActionButton is one clickable action under a selected node.
type ActionButton struct {
	Action canvas.Action
	Rect   vector.Rect
}

// ActionButtons lays out the action row below a node's screen rectangle.
func ActionButtons(v canvas.Visual) []ActionButton {
	out := make([]ActionButton, len(v.Actions))
	for i, a := range v.Actions {
		out[i] = ActionButton{Action: a, Rect: vector.R(
			v.Screen.X+float64(i)*(ActionWidth+actionGap),
			v.Screen.Y+v.Screen.H+actionMargin,
			ActionWidth, ActionHeight,
		)}
	}
	return out
}

func screenBox(v canvas.Visual) vector.Box {
	return vector.NewBox(v.Screen.Min(), vector.Size{W: v.Screen.W, H: v.Screen.H}, v.Rotation)
}

// ResizeHandle is the screen centre of the bottom-right resize handle.
func ResizeHandle(v canvas.Visual) vector.Pt { return screenBox(v).Corners()[2] }

// RotateHandle is the screen centre of the rotation handle above the top edge.
func RotateHandle(v canvas.Visual) vector.Pt {
	return screenBox(v).Transform().Apply(vector.Pt{X: v.Screen.W / 2, Y: -RotateOffset})
}

func near(a, b vector.Pt) bool {
	return math.Abs(a.X-b.X) <= HandleSize/2+2 && math.Abs(a.Y-b.Y) <= HandleSize/2+2
}

// Tap handles a single click at screen point p: an action button, a node
// (shift extends the selection) or the background.
func (s *Session) Tap(p vector.Pt, shift bool) error {
	s.Viewport.PointerMoved(p)
	for _, v := range s.Renderer.Scene() {
		for _, b := range ActionButtons(v) {
			if b.Rect.Contains(p) {
				return s.Renderer.Invoke(v.NodeID, b.Action)
			}
		}
	}
	if id, ok := s.Renderer.HitTest(p); ok {
		s.Renderer.Click(id, shift)
		return nil
	}
	s.Viewport.BackgroundClick()
	return nil
}

// DoubleTap starts inline editing of a text node under p.
func (s *Session) DoubleTap(p vector.Pt) bool {
	id, ok := s.Renderer.HitTest(p)
	if !ok {
		return false
	}
	return s.Renderer.DoubleClick(id)
}

// Gesture is one pointer drag on the board.
type Gesture struct {
	sess  *Session
	kind  dragKind
	node  domain.Node
	start vector.Pt
	cur   vector.Pt
}

// BeginDrag decides what a drag starting at p does: grab a handle of a
// selected node, move a node, or pan the background.
func (s *Session) BeginDrag(p vector.Pt) *Gesture {
	g := &Gesture{sess: s, start: p, cur: p}
	for _, v := range s.Renderer.Scene() {
		if !v.Handles {
			continue
		}
		switch {
		case near(p, ResizeHandle(v)):
			g.kind = dragResize
		case near(p, RotateHandle(v)):
			g.kind = dragRotate
		default:
			continue
		}
		g.node, _ = s.Store.Node(v.NodeID)
		return g
	}
	if id, ok := s.Renderer.HitTest(p); ok {
		if s.Store.EditingNodeID() == id {
			return g
		}
		if !s.Store.IsSelected(id) {
			s.Renderer.Click(id, false)
		}
		g.kind = dragMove
		g.node, _ = s.Store.Node(id)
		return g
	}
	if s.Viewport.BeginPan(p) {
		g.kind = dragPan
	}
	return g
}

// Active reports whether the drag does anything.
func (g *Gesture) Active() bool { return g != nil && g.kind != dragNone }

// NodeID is the node being moved or transformed, or "".
func (g *Gesture) NodeID() string {
	if g == nil || g.kind == dragNone || g.kind == dragPan {
		return ""
	}
	return g.node.ID
}

// Move follows the pointer.
func (g *Gesture) Move(p vector.Pt) {
	g.cur = p
	g.sess.Viewport.PointerMoved(p)
}

func (g *Gesture) transform() canvas.Transform {
	n := g.node
	t := canvas.Transform{Position: n.Position, ScaleX: 1, ScaleY: 1, Rotation: n.Rotation}
	scale := g.sess.Store.View().Scale
	switch g.kind {
	case dragResize:
		d := vector.RotateDeg(-n.Rotation).Apply(g.cur.Sub(g.start))
		if w := n.Size.W * scale; w > 0 {
			t.ScaleX = (w + d.X) / w
		}
		if h := n.Size.H * scale; h > 0 {
			t.ScaleY = (h + d.Y) / h
		}
	case dragRotate:
		pivot := g.sess.Store.WorldToScreen(n.Position)
		a0 := math.Atan2(g.start.Y-pivot.Y, g.start.X-pivot.X)
		a1 := math.Atan2(g.cur.Y-pivot.Y, g.cur.X-pivot.X)
		t.Rotation = n.Rotation + (a1-a0)*180/math.Pi
	}
	return t
}

// Preview returns nodes with the live drag applied, for drawing.
func (g *Gesture) Preview(nodes []domain.Node) []domain.Node {
	id := g.NodeID()
	if id == "" {
		return nodes
	}
	out := make([]domain.Node, len(nodes))
	copy(out, nodes)
	for i, n := range out {
		if n.ID != id {
			continue
		}
		switch g.kind {
		case dragMove:
			out[i].Position = n.Position.Add(g.cur.Sub(g.start).Mul(1 / g.sess.Store.View().Scale))
		case dragResize, dragRotate:
			t := g.transform()
			out[i].Size = canvas.BakeScale(n.Size, t.ScaleX, t.ScaleY)
			out[i].Rotation = t.Rotation
		}
	}
	return out
}

// End commits the drag to the store.
func (g *Gesture) End() {
	switch g.kind {
	case dragPan:
		g.sess.Viewport.EndPan(g.cur)
	case dragMove:
		tl := g.sess.Store.WorldToScreen(g.node.Position).Add(g.cur.Sub(g.start))
		g.sess.Renderer.DragEnd(g.node.ID, tl)
	case dragResize, dragRotate:
		g.sess.Renderer.TransformEnd(g.node.ID, g.transform())
	}
	g.kind = dragNone
}
