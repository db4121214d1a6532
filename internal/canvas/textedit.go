/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"canvasstudio/internal/domain"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

// Base metrics of the edit box at scale 1.
const (
	BaseFontSize     = 16.0
	BasePadding      = 8.0
	BaseCornerRadius = 6.0
)

// Geometry places the edit box exactly over the node on screen.
type Geometry struct {
	Rect         vector.Rect
	Rotation     float64
	FontSize     float64
	Padding      float64
	CornerRadius float64
}

// OverlayGeometry computes the edit box for node n under view.
func OverlayGeometry(n domain.Node, view vector.ViewTransform) Geometry {
	return Geometry{
		Rect:         view.RectToScreen(n.Rect()),
		Rotation:     n.Rotation,
		FontSize:     BaseFontSize * view.Scale,
		Padding:      BasePadding * view.Scale,
		CornerRadius: BaseCornerRadius * view.Scale,
	}
}

// Overlay is the single inline editor for text nodes. It buffers keystrokes
// and writes the text back to the store only on commit.
type Overlay struct {
	store *workspace.Store
	vp    *Viewport

	nodeID  string
	buffer  string
	mounted bool
}

func NewOverlay(s *workspace.Store, vp *Viewport) *Overlay {
	return &Overlay{store: s, vp: vp}
}

// Sync follows the store's editing id. When the id moves away from the node
// under edit, that node's buffer is committed first. It returns true when the
// overlay was just mounted on a node, in which case the toolkit focuses the
// field and selects all of its text.
func (o *Overlay) Sync() (mounted bool) {
	id := o.store.EditingNodeID()
	if id == o.nodeID {
		return false
	}
	if o.mounted {
		o.flush(o.nodeID, o.buffer)
	}
	o.nodeID, o.buffer, o.mounted = "", "", false
	if id == "" {
		return false
	}
	n, ok := o.store.Node(id)
	if !ok {
		return false
	}
	t, ok := n.Text()
	if !ok {
		return false
	}
	o.nodeID, o.buffer, o.mounted = id, t.Text, true
	return true
}

// Visible reports whether the overlay is shown.
func (o *Overlay) Visible() bool {
	o.Sync()
	return o.mounted
}

// NodeID is the node under edit, or "".
func (o *Overlay) NodeID() string { return o.nodeID }

// Text is the current buffer.
func (o *Overlay) Text() string { return o.buffer }

// Geometry is recomputed from the live node and view on every call.
func (o *Overlay) Geometry() (Geometry, bool) {
	if !o.Visible() {
		return Geometry{}, false
	}
	n, ok := o.store.Node(o.nodeID)
	if !ok {
		return Geometry{}, false
	}
	return OverlayGeometry(n, o.vp.View()), true
}

// SetText replaces the buffer, as a text field reports its whole content.
func (o *Overlay) SetText(s string) {
	if o.Visible() {
		o.buffer = s
	}
}

// Type appends typed characters at the caret, which sits at the end.
func (o *Overlay) Type(s string) {
	if o.Visible() {
		o.buffer += s
	}
}

// Key handles Enter and Escape. Plain Enter and Escape commit; Shift+Enter
// inserts a newline. It reports whether the key was consumed.
func (o *Overlay) Key(k Key, shift bool) bool {
	if !o.Visible() {
		return false
	}
	switch k {
	case KeyEnter:
		if shift {
			o.buffer += "\n"
			return true
		}
		o.Commit()
		return true
	case KeyEscape:
		o.Commit()
		return true
	}
	return false
}

// Blur commits when the field loses focus.
func (o *Overlay) Blur() {
	if o.Visible() {
		o.Commit()
	}
}

// Commit writes the buffer to the node and ends editing.
func (o *Overlay) Commit() {
	if !o.mounted {
		return
	}
	id, text := o.nodeID, o.buffer
	o.nodeID, o.buffer, o.mounted = "", "", false
	o.flush(id, text)
	o.store.SetEditingNodeID("")
}

// flush writes text to node id when it differs from the stored text. A node
// deleted mid-edit is skipped.
func (o *Overlay) flush(id, text string) {
	n, ok := o.store.Node(id)
	if !ok {
		return
	}
	if t, ok := n.Text(); !ok || t.Text == text {
		return
	}
	_, _ = o.store.UpdateNodeData(id, domain.TextPatch{Text: &text})
}
