/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Scale limits keep the view transform invertible.
const (
	MinScale = 0.05
	MaxScale = 20.0
)

// ViewTransform maps world to screen coordinates: screen = world*Scale + Offset.
type ViewTransform struct {
	Scale  float64
	Offset Pt
}

// IdentityView is the unzoomed, unpanned transform.
var IdentityView = ViewTransform{Scale: 1}

func (v ViewTransform) ToScreen(p Pt) Pt {
	return Pt{p.X*v.Scale + v.Offset.X, p.Y*v.Scale + v.Offset.Y}
}

func (v ViewTransform) ToWorld(p Pt) Pt {
	s := v.Scale
	if s == 0 {
		s = 1
	}
	return Pt{(p.X - v.Offset.X) / s, (p.Y - v.Offset.Y) / s}
}

// RectToScreen maps an axis-aligned world rect to screen space.
func (v ViewTransform) RectToScreen(r Rect) Rect {
	p := v.ToScreen(r.Min())
	return Rect{X: p.X, Y: p.Y, W: r.W * v.Scale, H: r.H * v.Scale}
}

// Matrix returns the transform as an affine matrix.
func (v ViewTransform) Matrix() Affine2D {
	return Translate(v.Offset.X, v.Offset.Y).Mul(Scale(v.Scale, v.Scale))
}

// ClampScale bounds s to [MinScale, MaxScale]. NaN and non-positive values map to MinScale.
func ClampScale(s float64) float64 {
	if math.IsNaN(s) || s <= 0 {
		return MinScale
	}
	return math.Max(MinScale, math.Min(MaxScale, s))
}

// ZoomAt multiplies the scale by factor while keeping the world point under
// the screen-space anchor fixed.
func (v ViewTransform) ZoomAt(anchor Pt, factor float64) ViewTransform {
	world := v.ToWorld(anchor)
	ns := ClampScale(v.Scale * factor)
	return ViewTransform{
		Scale:  ns,
		Offset: Pt{anchor.X - world.X*ns, anchor.Y - world.Y*ns},
	}
}

// Fit computes a transform that places bbox (grown by padding on each side)
// inside a viewport of the given pixel size, centred, never exceeding maxScale.
// ok is false when bbox or the viewport has no area.
func Fit(bbox Rect, viewport Size, padding, maxScale float64) (ViewTransform, bool) {
	if bbox.Empty() || viewport.W <= 0 || viewport.H <= 0 {
		return ViewTransform{}, false
	}
	sx := viewport.W / (bbox.W + 2*padding)
	sy := viewport.H / (bbox.H + 2*padding)
	s := math.Min(sx, sy)
	if maxScale > 0 {
		s = math.Min(s, maxScale)
	}
	s = ClampScale(s)
	c := bbox.Center()
	return ViewTransform{
		Scale:  s,
		Offset: Pt{viewport.W/2 - c.X*s, viewport.H/2 - c.Y*s},
	}, true
}
