/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

// MinNodeSize is the smallest width or height a transform can leave a node with.
const MinNodeSize = 50.0

// ErrImageNotLoaded refuses image actions until the image bytes are available.
var ErrImageNotLoaded = errors.New("the image is still loading, try again in a moment")

// ErrUnsupportedAction is returned for an action the node type does not offer.
var ErrUnsupportedAction = errors.New("action not available for this node")

// Kind is how a node is drawn.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindVideo
	KindVoice
	KindLink
	KindTask
	KindDraw
	KindUnsupported
)

// Action is a per-type contextual action shown on a selected node.
type Action string

const (
	ActionReadAloud  Action = "read-aloud"
	ActionAnalyze    Action = "analyze"
	ActionEdit       Action = "edit"
	ActionAnimate    Action = "animate"
	ActionPlay       Action = "play"
	ActionToggleDone Action = "toggle-done"
	ActionOpenLink   Action = "open-link"
)

// Visual is everything a toolkit needs to draw one node.
type Visual struct {
	NodeID   string
	Kind     Kind
	Screen   vector.Rect // unrotated, rotation is about the top-left corner
	Rotation float64
	// Label is the visible text: the note body, caption, title, or the
	// placeholder message for unsupported nodes.
	Label      string
	Background vector.Color
	Image      []byte // decoded-ready image bytes, image nodes only
	Points     []vector.Pt
	Done       bool

	Selected  bool
	Editing   bool
	Draggable bool
	Handles   bool
	Busy      bool
	Actions   []Action
}

// Generator runs the asynchronous node actions.
type Generator interface {
	ReadAloud(nodeID string) error
	AnalyzeImage(nodeID string) error
	Speaking(nodeID string) bool
}

// URLOpener opens a link outside the app.
type URLOpener func(url string) error

// Renderer produces Visuals for nodes and applies node-level interactions.
type Renderer struct {
	store *workspace.Store
	vp    *Viewport
	gen   Generator
	open  URLOpener
}

// NewRenderer wires a renderer. gen and open may be nil; the corresponding actions then fail.
func NewRenderer(s *workspace.Store, vp *Viewport, gen Generator, open URLOpener) *Renderer {
	return &Renderer{store: s, vp: vp, gen: gen, open: open}
}

// Scene renders every node in paint order.
func (r *Renderer) Scene() []Visual {
	nodes := r.store.Nodes()
	out := make([]Visual, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, r.Render(n))
	}
	return out
}

// Render builds the Visual for one node under the current view.
func (r *Renderer) Render(n domain.Node) Visual {
	view := r.vp.View()
	editing := r.store.EditingNodeID() == n.ID
	selected := r.store.IsSelected(n.ID)
	v := Visual{
		NodeID:    n.ID,
		Screen:    view.RectToScreen(n.Rect()),
		Rotation:  n.Rotation,
		Selected:  selected,
		Editing:   editing,
		Draggable: !editing,
		Handles:   selected && !editing,
	}
	switch d := n.Data.(type) {
	case domain.TextData:
		v.Kind = KindText
		v.Label = d.Text
		v.Background = vector.NoteYellow
		if c, err := vector.ParseHex(d.BackgroundColor); err == nil && d.BackgroundColor != "" {
			v.Background = c
		}
		if strings.TrimSpace(d.Text) != "" {
			v.Actions = []Action{ActionReadAloud}
		}
		v.Busy = r.gen != nil && r.gen.Speaking(n.ID)
	case domain.ImageData:
		v.Kind = KindImage
		v.Label = d.Alt
		v.Image = d.Raw
		v.Actions = []Action{ActionAnalyze, ActionEdit, ActionAnimate}
	case domain.VideoData:
		v.Kind = KindVideo
		v.Label = d.Caption
		v.Actions = []Action{ActionPlay}
	case domain.VoiceData:
		v.Kind = KindVoice
		v.Label = d.Transcript
	case domain.LinkData:
		v.Kind = KindLink
		v.Label = d.Title
		if v.Label == "" {
			v.Label = d.URL
		}
		v.Actions = []Action{ActionOpenLink}
	case domain.TaskData:
		v.Kind = KindTask
		v.Label = d.Text
		v.Done = d.Done
		v.Actions = []Action{ActionToggleDone}
	case domain.DrawData:
		v.Kind = KindDraw
		v.Points = make([]vector.Pt, len(d.Points))
		for i, p := range d.Points {
			v.Points[i] = view.ToScreen(n.Position.Add(p))
		}
	default:
		v.Kind = KindUnsupported
		v.Label = fmt.Sprintf("Unsupported node type %q", n.Type)
		v.Actions = nil
	}
	if !selected || editing {
		v.Actions = nil
	}
	return v
}

// Click selects a node; multi toggles it in the selection.
func (r *Renderer) Click(id string, multi bool) { r.store.SelectNode(id, multi) }

// DoubleClick starts inline editing on text nodes.
func (r *Renderer) DoubleClick(id string) bool {
	n, ok := r.store.Node(id)
	if !ok || n.Type != domain.TypeText {
		return false
	}
	return r.store.SetEditingNodeID(id)
}

// DragEnd commits the node's final top-left corner, given in screen space.
func (r *Renderer) DragEnd(id string, screenTopLeft vector.Pt) bool {
	if r.store.EditingNodeID() == id {
		return false
	}
	return r.store.HandleDragEnd(id, r.vp.ScreenToWorld(screenTopLeft))
}

// Transform is the state of a node's interactive transform when the user
// releases a handle: the live scale factors and the new corner and rotation.
type Transform struct {
	Position vector.Pt // world
	ScaleX   float64
	ScaleY   float64
	Rotation float64
}

// TransformEnd bakes the scale factors into the stored size (each side at least
// MinNodeSize) and writes position, size and rotation in a single update. The
// caller resets its live scale to 1.
func (r *Renderer) TransformEnd(id string, t Transform) bool {
	n, ok := r.store.Node(id)
	if !ok || r.store.EditingNodeID() == id {
		return false
	}
	size := BakeScale(n.Size, t.ScaleX, t.ScaleY)
	rot := math.Mod(t.Rotation, 360)
	return r.store.UpdateNode(id, domain.NodePatch{Position: &t.Position, Size: &size, Rotation: &rot})
}

// BakeScale multiplies size by the scale factors, clamping each side to MinNodeSize.
func BakeScale(s vector.Size, sx, sy float64) vector.Size {
	if sx == 0 || math.IsNaN(sx) {
		sx = 1
	}
	if sy == 0 || math.IsNaN(sy) {
		sy = 1
	}
	return vector.Size{
		W: math.Max(MinNodeSize, s.W*math.Abs(sx)),
		H: math.Max(MinNodeSize, s.H*math.Abs(sy)),
	}
}

// Invoke runs a contextual action on a node.
func (r *Renderer) Invoke(id string, a Action) error {
	n, ok := r.store.Node(id)
	if !ok {
		return nil
	}
	switch d := n.Data.(type) {
	case domain.TextData:
		if a != ActionReadAloud || r.gen == nil {
			return ErrUnsupportedAction
		}
		if strings.TrimSpace(d.Text) == "" {
			return nil
		}
		return r.gen.ReadAloud(id)
	case domain.ImageData:
		return r.invokeImage(n, d, a)
	case domain.VideoData:
		if a != ActionPlay {
			return ErrUnsupportedAction
		}
		r.store.OpenModal(workspace.ModalVideoPlayer, workspace.ModalPayload{NodeID: id, VideoSrc: d.Src})
		return nil
	case domain.TaskData:
		if a != ActionToggleDone {
			return ErrUnsupportedAction
		}
		_, err := r.store.UpdateNodeData(id, domain.TaskPatch{Done: domain.Ptr(!d.Done)})
		return err
	case domain.LinkData:
		if a != ActionOpenLink || r.open == nil || strings.TrimSpace(d.URL) == "" {
			return ErrUnsupportedAction
		}
		return r.open(d.URL)
	}
	return ErrUnsupportedAction
}

func (r *Renderer) invokeImage(n domain.Node, d domain.ImageData, a Action) error {
	switch a {
	case ActionAnalyze, ActionEdit, ActionAnimate:
	default:
		return ErrUnsupportedAction
	}
	if !d.Loaded() {
		return ErrImageNotLoaded
	}
	switch a {
	case ActionAnalyze:
		if r.gen == nil {
			return ErrUnsupportedAction
		}
		return r.gen.AnalyzeImage(n.ID)
	case ActionEdit:
		r.store.OpenModal(workspace.ModalEditImage, workspace.ModalPayload{NodeID: n.ID})
	case ActionAnimate:
		r.store.OpenModal(workspace.ModalGenerateVideo, workspace.ModalPayload{
			NodeID:      n.ID,
			SourceImage: d.Raw,
			SourceMIME:  d.MIMEType,
		})
	}
	return nil
}

// HitTest returns the topmost node under a screen point, honouring rotation.
func (r *Renderer) HitTest(screen vector.Pt) (string, bool) {
	world := r.vp.ScreenToWorld(screen)
	nodes := r.store.Nodes()
	shapes := make([]vector.Shape, len(nodes))
	for i, n := range nodes {
		shapes[i] = n.Box()
	}
	i := vector.HitTop(shapes, world)
	if i < 0 {
		return "", false
	}
	return nodes[i].ID, true
}
