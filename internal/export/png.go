/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	// decoders for node image payloads
	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/textlayout"
	"canvasstudio/internal/vector"
)

const textPadding = 8

// WritePNG rasterizes the scene.
func WritePNG(w io.Writer, s Scene) error {
	img, err := Rasterize(s)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Rasterize paints the scene into an RGBA image.
func Rasterize(s Scene) (*image.RGBA, error) {
	fw, fh := s.Size()
	pw, ph := int(math.Ceil(fw)), int(math.Ceil(fh))
	if pw <= 0 || ph <= 0 || pw*ph > 64<<20 {
		return nil, fmt.Errorf("export size %dx%d out of range", pw, ph)
	}
	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(toRGBA(s.Opts.Background)), image.Point{}, xdraw.Src)

	for _, n := range s.Nodes {
		if !onCanvas(s, n, pw, ph) {
			continue
		}
		tile := renderNode(n, s.Opts.Scale)
		if tile == nil {
			continue
		}
		at := s.ToOut(n.Position)
		if n.Rotation == 0 {
			r := tile.Bounds().Add(image.Pt(int(math.Round(at.X)), int(math.Round(at.Y))))
			xdraw.Draw(dst, r, tile, image.Point{}, xdraw.Over)
			continue
		}
		rad := n.Rotation * math.Pi / 180
		sin, cos := math.Sincos(rad)
		m := f64.Aff3{cos, -sin, at.X, sin, cos, at.Y}
		xdraw.BiLinear.Transform(dst, m, tile, tile.Bounds(), xdraw.Over, nil)
	}
	return dst, nil
}

// onCanvas reports whether any part of n lands inside the pw x ph output.
func onCanvas(s Scene, n domain.Node, pw, ph int) bool {
	b := n.Box().Bounds()
	at := s.ToOut(b.Min())
	w, h := b.W*s.Opts.Scale, b.H*s.Opts.Scale
	return at.X < float64(pw) && at.Y < float64(ph) && at.X+w > 0 && at.Y+h > 0
}

// renderNode paints one node, unrotated, in its own output-space tile.
func renderNode(n domain.Node, scale float64) *image.RGBA {
	w := int(math.Ceil(n.Size.W * scale))
	h := int(math.Ceil(n.Size.H * scale))
	if w <= 0 || h <= 0 {
		return nil
	}
	tile := image.NewRGBA(image.Rect(0, 0, w, h))
	st := styleOf(n)
	fillRect(tile, tile.Bounds(), toRGBA(st.fill))

	switch d := n.Data.(type) {
	case domain.ImageData:
		if src, ok := decodeImage(d.Raw); ok {
			xdraw.CatmullRom.Scale(tile, tile.Bounds(), src, src.Bounds(), xdraw.Over, nil)
			return tile
		}
	case domain.DrawData:
		width := max(1, int(math.Round(d.StrokeWidth*scale)))
		for i := 1; i < len(d.Points); i++ {
			strokeLine(tile, d.Points[i-1].Mul(scale), d.Points[i].Mul(scale), width, toRGBA(st.ink))
		}
		return tile
	}
	strokeRect(tile, tile.Bounds(), toRGBA(st.stroke))
	drawText(tile, caption(n), toRGBA(st.ink))
	return tile
}

func decodeImage(raw []byte) (image.Image, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	return img, true
}

func drawText(dst *image.RGBA, text string, col color.RGBA) {
	b := dst.Bounds()
	face := textlayout.Face
	box := textlayout.Wrap(face, text, b.Dx()-2*textPadding, b.Dy()-2*textPadding)
	met := textlayout.MetricsOf(face)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	y := textPadding + met.Ascent
	for _, line := range box.Lines {
		d.Dot = fixed.P(textPadding, y)
		d.DrawString(line)
		y += met.LineHeight
	}
}

func toRGBA(c vector.Color) color.RGBA {
	// color.RGBA is premultiplied.
	a := uint32(c.A)
	return color.RGBA{R: uint8(uint32(c.R) * a / 255), G: uint8(uint32(c.G) * a / 255), B: uint8(uint32(c.B) * a / 255), A: c.A}
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	xdraw.Draw(img, r, image.NewUniform(col), image.Point{}, xdraw.Src)
}

// strokeRect draws a 1px border inside r.
func strokeRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	if col.A == 0 {
		return
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

// strokeLine stamps width-sized squares along the segment.
func strokeLine(img *image.RGBA, a, b vector.Pt, width int, col color.RGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	half := width / 2
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		x := int(math.Round(a.X + (b.X-a.X)*t))
		y := int(math.Round(a.Y + (b.Y-a.Y)*t))
		fillRect(img, image.Rect(x-half, y-half, x-half+width, y-half+width).Intersect(img.Bounds()), col)
	}
}
