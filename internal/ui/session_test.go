/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvasstudio/internal/canvas"
	"canvasstudio/internal/config"
	"canvasstudio/internal/domain"
	"canvasstudio/internal/genai"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

func newTestSession(t *testing.T, open func(*url.URL) error) *Session {
	t.Helper()
	s := NewSession(Options{Config: config.Defaults(), OpenURL: open})
	t.Cleanup(s.Close)
	s.Viewport.Resize(vector.Size{W: 800, H: 600})
	return s
}

func TestAddNodeCentresOnPlacementPoint(t *testing.T) {
	s := newTestSession(t, nil)

	n, err := s.AddNode(domain.TypeText)
	require.NoError(t, err)
	assert.Equal(t, vector.Pt{X: 300, Y: 250}, n.Position)
	assert.Equal(t, []string{n.ID}, s.Store.Selection())

	s.Viewport.PointerMoved(vector.Pt{X: 100, Y: 100})
	task, err := s.AddNode(domain.TypeTask)
	require.NoError(t, err)
	assert.Equal(t, vector.Pt{X: 100 - 110, Y: 100 - 24}, task.Position)

	_, err = s.AddNode(domain.TypeImage)
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
	assert.Equal(t, 2, s.Store.Len())
}

func TestAddNodeIsUndoable(t *testing.T) {
	s := newTestSession(t, nil)
	_, err := s.AddNode(domain.TypeLink)
	require.NoError(t, err)
	require.True(t, s.Store.Undo())
	assert.Zero(t, s.Store.Len())
	require.True(t, s.Store.Redo())
	assert.Equal(t, 1, s.Store.Len())
}

func TestOpenGeneratePlacesResultAtCentre(t *testing.T) {
	s := newTestSession(t, nil)
	m := s.OpenGenerate(workspace.ModalGenerateVideo)
	require.NotNil(t, m.Payload.Position)
	assert.Equal(t, vector.Pt{X: 200, Y: 187.5}, *m.Payload.Position)

	a := s.OpenAssistant()
	active, ok := s.Store.ActiveModal()
	require.True(t, ok)
	assert.Equal(t, a.Seq, active.Seq)
	assert.Equal(t, workspace.ModalAssistant, active.Type)
}

func TestSelectLessonAndSummary(t *testing.T) {
	s := newTestSession(t, nil)
	require.Error(t, s.SelectLesson("missing"))
	require.NoError(t, s.SelectLesson("parts-of-a-plant"))
	assert.True(t, s.Store.PanelOpen())
	p, ok := s.Store.LessonPlan()
	require.True(t, ok)
	assert.Equal(t, "Parts of a Plant", p.Title)

	_, err := s.AddNode(domain.TypeText)
	require.NoError(t, err)
	assert.Equal(t, "nodes=1 selected=1 editing=false modal=none", s.Summary())
}

func TestLinkActionOpensURL(t *testing.T) {
	var opened []string
	s := newTestSession(t, func(u *url.URL) error {
		opened = append(opened, u.String())
		return nil
	})
	n, err := s.Store.AddNode(domain.NodeSpec{
		Type: domain.TypeLink,
		Size: vector.Size{W: 200, H: 80},
		Data: domain.LinkData{URL: "https://example.org/solar"},
	})
	require.NoError(t, err)
	require.NoError(t, s.Renderer.Invoke(n.ID, canvas.ActionOpenLink))
	assert.Equal(t, []string{"https://example.org/solar"}, opened)
}

func TestPlayerSinkWritesWAVAndWaits(t *testing.T) {
	dir := t.TempDir()
	var opened *url.URL
	var waited time.Duration
	sink := PlayerSink{
		Dir:  dir,
		Open: func(u *url.URL) error { opened = u; return nil },
		Sleep: func(_ context.Context, d time.Duration) error {
			waited = d
			return nil
		},
	}
	clip, err := genai.DecodePCM16(make([]byte, 2*genai.SpeechSampleRate/2))
	require.NoError(t, err)
	require.NoError(t, sink.Play(context.Background(), clip))

	require.NotNil(t, opened)
	assert.Equal(t, "file", opened.Scheme)
	assert.True(t, strings.HasSuffix(opened.Path, ".wav"))
	assert.Equal(t, 500*time.Millisecond, waited)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, int64(44+genai.SpeechSampleRate), info.Size())
}

func TestPlayerSinkWithoutPlayer(t *testing.T) {
	err := PlayerSink{}.Play(context.Background(), genai.Clip{})
	assert.ErrorIs(t, err, ErrNoPlayer)
}

func TestPCM16RoundTrip(t *testing.T) {
	pcm := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0xC0, 0xFF, 0x7F}
	clip, err := genai.DecodePCM16(pcm)
	require.NoError(t, err)
	assert.Equal(t, pcm, PCM16(clip.Samples))
	assert.Equal(t, []byte{0xFF, 0x7F, 0x00, 0x80}, PCM16([]float32{2, -2}))
}
