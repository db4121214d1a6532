/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Shape is a hit-testable scene item placed in world coordinates.
type Shape interface {
	Bounds() Rect
	Transform() Affine2D
	Hit(p Pt) bool
}

// Box is a rectangle of the given size whose local origin (top-left corner)
// sits at Origin and which is rotated by Rotation degrees about that origin.
// Canvas nodes are boxes: position is the top-left corner, rotation pivots there.
type Box struct {
	Origin   Pt
	Size     Size
	Rotation float64
}

func NewBox(origin Pt, size Size, rotationDeg float64) Box {
	return Box{Origin: origin, Size: size, Rotation: rotationDeg}
}

func (b Box) Transform() Affine2D {
	return Translate(b.Origin.X, b.Origin.Y).Mul(RotateDeg(b.Rotation))
}

// Corners returns the four world-space corners in NW, NE, SE, SW order.
func (b Box) Corners() [4]Pt {
	m := b.Transform()
	return [4]Pt{
		m.Apply(Pt{0, 0}),
		m.Apply(Pt{b.Size.W, 0}),
		m.Apply(Pt{b.Size.W, b.Size.H}),
		m.Apply(Pt{0, b.Size.H}),
	}
}

// Bounds is the axis-aligned bounding box of the rotated rectangle.
func (b Box) Bounds() Rect {
	cs := b.Corners()
	minX, minY := cs[0].X, cs[0].Y
	maxX, maxY := minX, minY
	for _, p := range cs[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

func (b Box) Hit(p Pt) bool {
	q := b.Transform().Invert().Apply(p)
	return Rect{W: b.Size.W, H: b.Size.H}.Contains(q)
}

// HitTop returns the index of the top-most shape containing p, or -1.
// Later shapes are drawn on top.
func HitTop(shapes []Shape, p Pt) int {
	for i := len(shapes) - 1; i >= 0; i-- {
		if shapes[i].Hit(p) {
			return i
		}
	}
	return -1
}
