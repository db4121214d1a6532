/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/vector"
)

func TestWheelFactor(t *testing.T) {
	assert.InDelta(t, 1.1, WheelFactor(-120), 1e-12)
	assert.InDelta(t, 1/1.1, WheelFactor(3), 1e-12)
	assert.Equal(t, 1.0, WheelFactor(0))
}

func TestWheelKeepsWorldPointUnderPointer(t *testing.T) {
	s := newStore(t)
	vp := NewViewport(s)
	s.SetOffset(vector.Pt{X: 40, Y: -25})
	pointer := vector.Pt{X: 310, Y: 177}
	before := vp.ScreenToWorld(pointer)
	for i := 0; i < 5; i++ {
		vp.Wheel(pointer, -100)
	}
	vp.Wheel(pointer, 100)
	after := vp.ScreenToWorld(pointer)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
	assert.InDelta(t, 1.1*1.1*1.1*1.1, s.View().Scale, 1e-9)
}

func TestScaleStaysPositive(t *testing.T) {
	s := newStore(t)
	vp := NewViewport(s)
	for i := 0; i < 500; i++ {
		vp.Wheel(vector.Pt{X: 1, Y: 1}, 1)
		s.ZoomOut()
	}
	assert.Greater(t, s.View().Scale, 0.0)
}

func TestScreenWorldRoundTrip(t *testing.T) {
	s := newStore(t)
	vp := NewViewport(s)
	s.SetView(vector.ViewTransform{Scale: 2.5, Offset: vector.Pt{X: -13, Y: 71}})
	p := vector.Pt{X: 123.456, Y: -78.9}
	q := vp.ScreenToWorld(vp.WorldToScreen(p))
	assert.True(t, p.Near(q, 1e-9))
}

func TestPanCommitsOnRelease(t *testing.T) {
	s := newStore(t)
	vp := NewViewport(s)
	require.True(t, vp.BeginPan(vector.Pt{X: 100, Y: 100}))
	vp.PointerMoved(vector.Pt{X: 130, Y: 90})
	assert.Equal(t, vector.Pt{X: 30, Y: -10}, vp.View().Offset)
	assert.Equal(t, vector.Pt{}, s.View().Offset, "store untouched until release")
	vp.EndPan(vector.Pt{X: 150, Y: 80})
	assert.False(t, vp.Panning())
	assert.Equal(t, vector.Pt{X: 50, Y: -20}, s.View().Offset)
}

func TestPanDisabledWhileEditing(t *testing.T) {
	s := newStore(t)
	vp := NewViewport(s)
	n := add(t, s, domain.TypeText, vector.Pt{}, domain.TextData{Text: "x"})
	require.True(t, s.SetEditingNodeID(n.ID))
	assert.False(t, vp.BeginPan(vector.Pt{}))
	vp.EndPan(vector.Pt{X: 90, Y: 90})
	assert.Equal(t, vector.Pt{}, s.View().Offset)
}

func TestPlacementPoint(t *testing.T) {
	s := newStore(t)
	vp := NewViewport(s)
	s.SetView(vector.ViewTransform{Scale: 2, Offset: vector.Pt{X: 100, Y: 0}})
	assert.Equal(t, vector.Pt{X: 150, Y: 150}, vp.PlacementPoint())

	vp.PointerMoved(vector.Pt{X: 300, Y: 40})
	assert.Equal(t, vector.Pt{X: 100, Y: 20}, vp.PlacementPoint())

	vp.PointerLeft()
	assert.Equal(t, vector.Pt{X: 150, Y: 150}, vp.PlacementPoint())
}

func TestBackgroundClickClearsSelection(t *testing.T) {
	s := newStore(t)
	vp := NewViewport(s)
	n := add(t, s, domain.TypeText, vector.Pt{}, domain.TextData{})
	s.SelectNode(n.ID, false)
	vp.BackgroundClick()
	assert.Empty(t, s.Selection())
}

func TestDeleteKey(t *testing.T) {
	s := newStore(t)
	vp := NewViewport(s)
	a := add(t, s, domain.TypeText, vector.Pt{}, domain.TextData{Text: "a"})
	b := add(t, s, domain.TypeText, vector.Pt{X: 300}, domain.TextData{Text: "b"})
	assert.False(t, vp.KeyDown(KeyDelete), "nothing selected")

	require.True(t, s.SetEditingNodeID(a.ID))
	assert.False(t, vp.KeyDown(KeyBackspace), "editing blocks delete")
	assert.True(t, s.Has(a.ID))
	s.SetEditingNodeID("")

	s.SelectNode(b.ID, false)
	assert.True(t, vp.KeyDown(KeyBackspace))
	assert.False(t, s.Has(b.ID))
	assert.True(t, s.Has(a.ID))
	assert.False(t, vp.KeyDown(KeyEscape))
}

func TestResizeTracksViewport(t *testing.T) {
	s := newStore(t)
	NewViewport(s).Resize(vector.Size{W: 1024, H: 768})
	assert.Equal(t, vector.Size{W: 1024, H: 768}, s.ViewportSize())
}
