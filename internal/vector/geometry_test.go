/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in != R(15, 25, 90, 40) {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestAffineBasicAndInvert(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p != (Pt{12, 8}) {
		t.Fatalf("unexpected transform result: %+v", p)
	}
	back := m.Invert().Apply(p)
	if !back.Near(Pt{1, 1}, 1e-9) {
		t.Fatalf("invert round trip failed: %+v", back)
	}
	if (Affine2D{}).Invert() != Identity {
		t.Fatalf("singular matrix should invert to identity")
	}
}

func TestUnionAndBoundsOf(t *testing.T) {
	u := R(0, 0, 10, 10).Union(R(5, -5, 5, 10))
	if u != R(0, -5, 10, 15) {
		t.Fatalf("unexpected union: %+v", u)
	}
	if _, ok := BoundsOf(nil); ok {
		t.Fatalf("empty input should not be ok")
	}
	b, ok := BoundsOf([]Rect{R(0, 0, 1, 1), R(10, 10, 5, 5)})
	if !ok || b != R(0, 0, 15, 15) {
		t.Fatalf("unexpected bounds: %+v ok=%v", b, ok)
	}
}

func TestRotateAndFloatRound(t *testing.T) {
	p := Rotate(math.Pi).Apply(Pt{1, 0})
	if !p.Near(Pt{-1, 0}, 1e-9) {
		t.Fatalf("unexpected rotate result: %+v", p)
	}
	q := RotateDeg(90).Apply(Pt{1, 0})
	if !q.Near(Pt{0, 1}, 1e-9) {
		t.Fatalf("unexpected 90deg rotate result: %+v", q)
	}
	if FloatRound(1.23456, 2) != 1.23 {
		t.Fatalf("float round fail")
	}
	if FloatRound(1.23456, -1) != 1.23456 {
		t.Fatalf("negative places should be no-op")
	}
}

func TestBoxHitAndBoundsWithRotation(t *testing.T) {
	b := NewBox(Pt{100, 100}, Size{100, 50}, 0)
	if !b.Hit(Pt{150, 120}) || b.Hit(Pt{99, 99}) {
		t.Fatalf("unexpected hit result for unrotated box")
	}
	if b.Bounds() != R(100, 100, 100, 50) {
		t.Fatalf("unexpected bounds: %+v", b.Bounds())
	}

	r := NewBox(Pt{0, 0}, Size{100, 10}, 90)
	// rotated 90deg about the origin the box now spans x in [-10,0], y in [0,100]
	if !r.Hit(Pt{-5, 50}) {
		t.Fatalf("expected hit inside rotated box")
	}
	if r.Hit(Pt{50, 5}) {
		t.Fatalf("did not expect hit in unrotated footprint")
	}
	bb := r.Bounds()
	if math.Abs(bb.X+10) > 1e-9 || math.Abs(bb.W-10) > 1e-9 || math.Abs(bb.H-100) > 1e-9 {
		t.Fatalf("unexpected rotated bounds: %+v", bb)
	}
}

func TestHitTopPrefersLastShape(t *testing.T) {
	shapes := []Shape{NewBox(Pt{0, 0}, Size{100, 100}, 0), NewBox(Pt{50, 50}, Size{100, 100}, 0)}
	if got := HitTop(shapes, Pt{75, 75}); got != 1 {
		t.Fatalf("expected top-most shape 1, got %d", got)
	}
	if got := HitTop(shapes, Pt{10, 10}); got != 0 {
		t.Fatalf("expected shape 0, got %d", got)
	}
	if got := HitTop(shapes, Pt{500, 500}); got != -1 {
		t.Fatalf("expected miss, got %d", got)
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#fef08a")
	if err != nil || c != NoteYellow {
		t.Fatalf("ParseHex = %+v, %v", c, err)
	}
	if c.Hex() != "#fef08a" {
		t.Fatalf("Hex = %s", c.Hex())
	}
	if c, err := ParseHex("#0f08"); err == nil {
		t.Fatalf("expected error for 4-digit hex, got %+v", c)
	}
	if c, _ := ParseHex("abc"); c != (Color{0xaa, 0xbb, 0xcc, 0xff}) {
		t.Fatalf("short hex mismatch: %+v", c)
	}
}
