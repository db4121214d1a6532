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
	"canvasstudio/internal/workspace"
)

func editing(t *testing.T, text string) (*workspace.Store, *Overlay, domain.Node) {
	t.Helper()
	s := newStore(t)
	o := NewOverlay(s, NewViewport(s))
	n := add(t, s, domain.TypeText, vector.Pt{X: 10, Y: 20}, domain.TextData{Text: text})
	require.True(t, s.SetEditingNodeID(n.ID))
	require.True(t, o.Sync(), "mount requests focus and select-all")
	return s, o, n
}

func textOf(t *testing.T, s *workspace.Store, id string) string {
	t.Helper()
	n, ok := s.Node(id)
	require.True(t, ok)
	d, ok := n.Text()
	require.True(t, ok)
	return d.Text
}

func TestEnterCommits(t *testing.T) {
	s, o, n := editing(t, "A")
	o.Type("B")
	assert.Equal(t, "A", textOf(t, s, n.ID), "buffered until commit")
	require.True(t, o.Key(KeyEnter, false))
	assert.Equal(t, "AB", textOf(t, s, n.ID))
	assert.Empty(t, s.EditingNodeID())
	assert.Equal(t, []string{n.ID}, s.Selection())
	assert.False(t, o.Visible())
}

func TestShiftEnterInsertsNewline(t *testing.T) {
	s, o, n := editing(t, "A")
	o.Type("B")
	require.True(t, o.Key(KeyEnter, true))
	o.Type("C")
	assert.Equal(t, "AB\nC", o.Text())
	assert.Equal(t, n.ID, s.EditingNodeID())
	assert.Equal(t, "A", textOf(t, s, n.ID))
}

func TestEscapeAndBlurCommit(t *testing.T) {
	s, o, n := editing(t, "one")
	o.SetText("two")
	o.Key(KeyEscape, false)
	assert.Equal(t, "two", textOf(t, s, n.ID))
	assert.Empty(t, s.EditingNodeID())

	require.True(t, s.SetEditingNodeID(n.ID))
	o.SetText("three")
	o.Blur()
	assert.Equal(t, "three", textOf(t, s, n.ID))
	assert.Empty(t, s.EditingNodeID())
}

func TestSwitchingEditCommitsPreviousNode(t *testing.T) {
	s, o, a := editing(t, "A")
	b := add(t, s, domain.TypeText, vector.Pt{X: 300, Y: 20}, domain.TextData{Text: "other"})
	r := NewRenderer(s, NewViewport(s), nil, nil)
	o.Type("B")

	require.True(t, r.DoubleClick(b.ID))
	require.True(t, o.Sync())
	assert.Equal(t, "AB", textOf(t, s, a.ID))
	assert.Equal(t, b.ID, o.NodeID())
	assert.Equal(t, "other", o.Text())
	assert.Equal(t, b.ID, s.EditingNodeID())
}

func TestEditOfDeletedNodeIsDropped(t *testing.T) {
	s, o, n := editing(t, "A")
	o.Type("B")
	require.True(t, s.SetEditingNodeID(""))
	s.SelectNode(n.ID, false)
	s.DeleteSelectedNodes()
	o.Sync()
	assert.False(t, s.Has(n.ID))
	assert.False(t, o.Visible())
}

func TestOverlayGeometryTracksView(t *testing.T) {
	s, o, _ := editing(t, "x")
	s.SetView(vector.ViewTransform{Scale: 2, Offset: vector.Pt{X: 5, Y: -5}})
	g, ok := o.Geometry()
	require.True(t, ok)
	assert.Equal(t, vector.Rect{X: 25, Y: 35, W: 400, H: 200}, g.Rect)
	assert.Equal(t, 32.0, g.FontSize)
	assert.Equal(t, 2*BasePadding, g.Padding)
	assert.Equal(t, 2*BaseCornerRadius, g.CornerRadius)
}

func TestOverlayHiddenWithoutEditing(t *testing.T) {
	s := newStore(t)
	o := NewOverlay(s, NewViewport(s))
	assert.False(t, o.Visible())
	assert.False(t, o.Key(KeyEnter, false))
	o.Type("ignored")
	assert.Empty(t, o.Text())
	_, ok := o.Geometry()
	assert.False(t, ok)
}

func TestOverlayDropsDeletedNode(t *testing.T) {
	s, o, n := editing(t, "x")
	s.SelectNode(n.ID, false)
	s.SetEditingNodeID("")
	s.DeleteSelectedNodes()
	assert.False(t, o.Visible())
}
