//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	fcanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"canvasstudio/internal/canvas"
	"canvasstudio/internal/export"
	"canvasstudio/internal/vector"
)

var (
	boardBackground = vector.Color{R: 246, G: 245, B: 242, A: 255}
	selectionColor  = color.NRGBA{R: 0, G: 170, B: 255, A: 255}
	rotateColor     = color.NRGBA{R: 255, G: 170, B: 0, A: 255}
	actionFill      = color.NRGBA{R: 31, G: 41, B: 55, A: 230}
)

// Board is the desktop canvas surface. It forwards pointer and key events to
// the session and draws the scene it returns.
type Board struct {
	widget.BaseWidget

	sess    *Session
	editor  *noteEntry
	gesture *Gesture
	shift   bool

	// OnError reports failed node actions to the user.
	OnError func(error)

	log *slog.Logger
}

func NewBoard(s *Session) *Board {
	b := &Board{sess: s, log: s.log.With(slog.String("widget", "board"))}
	b.editor = newNoteEntry(s.Overlay, b.Refresh)
	b.editor.Hide()
	b.ExtendBaseWidget(b)
	return b
}

func pt(p fyne.Position) vector.Pt { return vector.Pt{X: float64(p.X), Y: float64(p.Y)} }

func pos(p vector.Pt) fyne.Position { return fyne.NewPos(float32(p.X), float32(p.Y)) }

func (b *Board) report(err error) {
	if err == nil {
		return
	}
	b.log.Warn("node action failed", slog.Any("err", err))
	if b.OnError != nil {
		b.OnError(err)
	}
}

func (b *Board) focus() {
	if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
		c.Focus(b)
	}
}

func (b *Board) Resize(s fyne.Size) {
	b.sess.Viewport.Resize(vector.Size{W: float64(s.Width), H: float64(s.Height)})
	b.BaseWidget.Resize(s)
}

func (b *Board) MinSize() fyne.Size { return fyne.NewSize(400, 300) }

func (b *Board) Tapped(e *fyne.PointEvent) {
	b.focus()
	b.report(b.sess.Tap(pt(e.Position), b.shift))
	b.Refresh()
}

func (b *Board) DoubleTapped(e *fyne.PointEvent) {
	if b.sess.DoubleTap(pt(e.Position)) {
		b.Refresh()
	}
}

func (b *Board) Dragged(e *fyne.DragEvent) {
	p := pt(e.Position)
	if b.gesture == nil {
		start := p.Sub(vector.Pt{X: float64(e.Dragged.DX), Y: float64(e.Dragged.DY)})
		b.gesture = b.sess.BeginDrag(start)
	}
	b.gesture.Move(p)
	b.Refresh()
}

func (b *Board) DragEnd() {
	if b.gesture != nil {
		b.gesture.End()
		b.gesture = nil
	}
	b.Refresh()
}

func (b *Board) Scrolled(e *fyne.ScrollEvent) {
	// fyne reports wheel-up as positive DY; the viewport expects browser deltas.
	b.sess.Viewport.Wheel(pt(e.Position), -float64(e.Scrolled.DY))
	b.Refresh()
}

func (b *Board) MouseIn(e *desktop.MouseEvent)    { b.sess.Viewport.PointerMoved(pt(e.Position)) }
func (b *Board) MouseMoved(e *desktop.MouseEvent) { b.sess.Viewport.PointerMoved(pt(e.Position)) }
func (b *Board) MouseOut()                        { b.sess.Viewport.PointerLeft() }

func (b *Board) MouseDown(e *desktop.MouseEvent) { b.shift = e.Modifier&fyne.KeyModifierShift != 0 }
func (b *Board) MouseUp(*desktop.MouseEvent)     {}

func (b *Board) FocusGained() {}
func (b *Board) FocusLost()   {}
func (b *Board) TypedRune(rune) {}

func (b *Board) TypedKey(e *fyne.KeyEvent) {
	var k canvas.Key
	switch e.Name {
	case fyne.KeyDelete:
		k = canvas.KeyDelete
	case fyne.KeyBackspace:
		k = canvas.KeyBackspace
	default:
		return
	}
	if b.sess.Viewport.KeyDown(k) {
		b.Refresh()
	}
}

// syncEditor positions the inline editor over the node under edit.
func (b *Board) syncEditor() {
	mounted := b.sess.Overlay.Sync()
	g, ok := b.sess.Overlay.Geometry()
	if !ok {
		b.editor.Hide()
		return
	}
	b.editor.Move(pos(g.Rect.Min()))
	b.editor.Resize(fyne.NewSize(float32(g.Rect.W), float32(g.Rect.H)))
	b.editor.Show()
	if mounted {
		b.editor.SetText(b.sess.Overlay.Text())
		if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
			c.Focus(b.editor)
		}
		b.editor.TypedShortcut(&fyne.ShortcutSelectAll{})
	}
}

func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{b: b, raster: fcanvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))}
	r.raster.FillMode = fcanvas.ImageFillStretch
	r.raster.ScaleMode = fcanvas.ImageScaleFastest
	return r
}

type boardRenderer struct {
	b        *Board
	raster   *fcanvas.Image
	overlays []fyne.CanvasObject
}

func (r *boardRenderer) Destroy() {}
func (r *boardRenderer) MinSize() fyne.Size { return r.b.MinSize() }

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, len(r.overlays)+2)
	objs = append(objs, r.raster)
	objs = append(objs, r.overlays...)
	return append(objs, r.b.editor)
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
	r.raster.Move(fyne.NewPos(0, 0))
}

func (r *boardRenderer) Refresh() {
	b := r.b
	size := b.Size()
	vsz := vector.Size{W: float64(size.Width), H: float64(size.Height)}
	nodes := b.sess.Store.Nodes()
	if b.gesture != nil {
		nodes = b.gesture.Preview(nodes)
	}
	if vsz.W >= 1 && vsz.H >= 1 {
		img, err := export.Rasterize(export.ViewScene(nodes, b.sess.Viewport.View(), vsz, boardBackground))
		if err != nil {
			b.log.Warn("rasterize board", slog.Any("err", err))
		} else {
			r.raster.Image = img
		}
	}
	r.Layout(size)

	r.overlays = r.overlays[:0]
	var moving string
	if b.gesture != nil {
		moving = b.gesture.NodeID()
	}
	for _, v := range b.sess.Renderer.Scene() {
		if v.NodeID == moving {
			continue
		}
		r.overlays = append(r.overlays, decorations(v)...)
	}
	b.syncEditor()
	fcanvas.Refresh(b)
}

// decorations draws selection, handles, busy state and action buttons for one node.
func decorations(v canvas.Visual) []fyne.CanvasObject {
	var out []fyne.CanvasObject
	if v.Selected || v.Editing {
		cs := screenBox(v).Corners()
		for i := range cs {
			l := fcanvas.NewLine(selectionColor)
			l.StrokeWidth = 1.5
			l.Position1, l.Position2 = pos(cs[i]), pos(cs[(i+1)%4])
			out = append(out, l)
		}
	}
	if v.Handles {
		rh := ResizeHandle(v)
		h := fcanvas.NewRectangle(selectionColor)
		h.Resize(fyne.NewSize(HandleSize, HandleSize))
		h.Move(pos(rh.Sub(vector.Pt{X: HandleSize / 2, Y: HandleSize / 2})))
		rot := fcanvas.NewCircle(rotateColor)
		rot.Resize(fyne.NewSize(HandleSize, HandleSize))
		rot.Move(pos(RotateHandle(v).Sub(vector.Pt{X: HandleSize / 2, Y: HandleSize / 2})))
		out = append(out, h, rot)
	}
	if v.Busy {
		t := fcanvas.NewText("Speaking…", selectionColor)
		t.TextStyle = fyne.TextStyle{Italic: true}
		t.Move(pos(vector.Pt{X: v.Screen.X, Y: v.Screen.Y - 18}))
		out = append(out, t)
	}
	for _, a := range ActionButtons(v) {
		bg := fcanvas.NewRectangle(actionFill)
		bg.CornerRadius = 4
		bg.Resize(fyne.NewSize(float32(a.Rect.W), float32(a.Rect.H)))
		bg.Move(pos(a.Rect.Min()))
		t := fcanvas.NewText(ActionLabel(a.Action), color.White)
		t.TextSize = 12
		t.Move(pos(a.Rect.Min().Add(vector.Pt{X: 8, Y: 3})))
		out = append(out, bg, t)
	}
	return out
}

// noteEntry is the inline text editor. Enter and Escape commit; Shift+Enter
// inserts a newline; losing focus commits.
type noteEntry struct {
	widget.Entry
	ov     *canvas.Overlay
	shift  bool
	onDone func()
}

func newNoteEntry(ov *canvas.Overlay, onDone func()) *noteEntry {
	e := &noteEntry{ov: ov, onDone: onDone}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapWord
	e.OnChanged = ov.SetText
	e.ExtendBaseWidget(e)
	return e
}

func isShift(n fyne.KeyName) bool { return n == desktop.KeyShiftLeft || n == desktop.KeyShiftRight }

func (e *noteEntry) KeyDown(ev *fyne.KeyEvent) {
	if isShift(ev.Name) {
		e.shift = true
	}
	e.Entry.KeyDown(ev)
}

func (e *noteEntry) KeyUp(ev *fyne.KeyEvent) {
	if isShift(ev.Name) {
		e.shift = false
	}
	e.Entry.KeyUp(ev)
}

func (e *noteEntry) TypedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyEnter:
		if !e.shift {
			e.ov.Key(canvas.KeyEnter, false)
			e.onDone()
			return
		}
	case fyne.KeyEscape:
		e.ov.Key(canvas.KeyEscape, false)
		e.onDone()
		return
	}
	e.Entry.TypedKey(ev)
}

func (e *noteEntry) FocusLost() {
	e.Entry.FocusLost()
	if e.ov.Visible() {
		e.ov.Blur()
		e.onDone()
	}
}
