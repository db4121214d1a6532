/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a snapshot of the node graph to PNG or PDF. It is a
// picture of the canvas, not a save format.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/vector"
)

// Format is an output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("nothing to export")

// Options controls the snapshot. Zero values pick defaults.
type Options struct {
	// Scale is output pixels (PNG) or points (PDF) per world unit.
	Scale float64
	// Padding is the world-space margin around the content.
	Padding    float64
	Background vector.Color
	Title      string
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Padding <= 0 {
		o.Padding = 40
	}
	if o.Background == (vector.Color{}) {
		o.Background = vector.White
	}
	if o.Title == "" {
		o.Title = "Canvas snapshot"
	}
	return o
}

// Scene is the node graph framed for output.
type Scene struct {
	Nodes  []domain.Node
	Bounds vector.Rect // world bounds including padding
	Opts   Options
}

// NewScene frames nodes, honouring rotation, with the configured padding.
func NewScene(nodes []domain.Node, opts Options) (Scene, error) {
	if len(nodes) == 0 {
		return Scene{}, ErrEmpty
	}
	opts = opts.withDefaults()
	rects := make([]vector.Rect, len(nodes))
	for i, n := range nodes {
		rects[i] = n.Box().Bounds()
	}
	b, _ := vector.BoundsOf(rects)
	b = b.Inset(-opts.Padding, -opts.Padding)
	return Scene{Nodes: nodes, Bounds: b, Opts: opts}, nil
}

// ViewScene frames exactly what a viewport of the given pixel size shows
// under view, for drawing the live canvas.
func ViewScene(nodes []domain.Node, view vector.ViewTransform, viewport vector.Size, bg vector.Color) Scene {
	sc := view.Scale
	if sc <= 0 {
		sc = 1
	}
	opts := Options{Scale: sc, Background: bg}.withDefaults()
	return Scene{
		Nodes:  nodes,
		Bounds: vector.R(-view.Offset.X/sc, -view.Offset.Y/sc, viewport.W/sc, viewport.H/sc),
		Opts:   opts,
	}
}

// Size is the output size in pixels or points.
func (s Scene) Size() (w, h float64) {
	return s.Bounds.W * s.Opts.Scale, s.Bounds.H * s.Opts.Scale
}

// ToOut maps a world point to output coordinates.
func (s Scene) ToOut(p vector.Pt) vector.Pt {
	return p.Sub(s.Bounds.Min()).Mul(s.Opts.Scale)
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return FormatPNG, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q (use .png or .pdf)", filepath.Ext(path))
}

// Write renders nodes in format f to w.
func Write(w io.Writer, f Format, nodes []domain.Node, opts Options) error {
	s, err := NewScene(nodes, opts)
	if err != nil {
		return err
	}
	switch f {
	case FormatPNG:
		return WritePNG(w, s)
	case FormatPDF:
		return WritePDF(w, s)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// ToFile renders nodes to path, choosing the format from its extension.
func ToFile(path string, nodes []domain.Node, opts Options) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := Write(tmp, f, nodes, opts); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// style is how a node type is painted.
type style struct {
	fill   vector.Color
	stroke vector.Color
	ink    vector.Color
}

var (
	placeholderFill = vector.Color{R: 226, G: 232, B: 240, A: 255}
	strokeGray      = vector.Color{R: 100, G: 116, B: 139, A: 255}
	ink             = vector.Color{R: 15, G: 23, B: 42, A: 255}
)

func styleOf(n domain.Node) style {
	s := style{fill: placeholderFill, stroke: strokeGray, ink: ink}
	switch d := n.Data.(type) {
	case domain.TextData:
		s.fill = vector.NoteYellow
		if c, err := vector.ParseHex(d.BackgroundColor); d.BackgroundColor != "" && err == nil {
			s.fill = c
		}
	case domain.VideoData:
		s.fill = vector.Color{R: 30, G: 41, B: 59, A: 255}
		s.ink = vector.White
	case domain.VoiceData:
		s.fill = vector.Color{R: 237, G: 233, B: 254, A: 255}
	case domain.LinkData:
		s.fill = vector.Color{R: 219, G: 234, B: 254, A: 255}
	case domain.TaskData:
		s.fill = vector.White
	case domain.DrawData:
		s.fill = vector.Transparent
		s.stroke = vector.Transparent
		s.ink = vector.Black
		if c, err := vector.ParseHex(d.Color); d.Color != "" && err == nil {
			s.ink = c
		}
	case domain.UnknownData:
		s.fill = vector.Color{R: 254, G: 226, B: 226, A: 255}
		s.stroke = vector.Color{R: 220, G: 38, B: 38, A: 255}
	}
	return s
}

// caption is the text painted inside a node.
func caption(n domain.Node) string {
	switch d := n.Data.(type) {
	case domain.TextData:
		return d.Text
	case domain.ImageData:
		if d.Alt != "" {
			return "Image: " + d.Alt
		}
		return "Image"
	case domain.VideoData:
		return "Video: " + d.Caption
	case domain.VoiceData:
		if d.Transcript != "" {
			return fmt.Sprintf("Voice note (%.0fs): %s", d.Seconds, d.Transcript)
		}
		return fmt.Sprintf("Voice note (%.0fs)", d.Seconds)
	case domain.LinkData:
		if d.Title != "" {
			return d.Title + "\n" + d.URL
		}
		return d.URL
	case domain.TaskData:
		if d.Done {
			return "[x] " + d.Text
		}
		return "[ ] " + d.Text
	case domain.DrawData:
		return ""
	}
	return fmt.Sprintf("Unsupported node type %q", n.Type)
}
