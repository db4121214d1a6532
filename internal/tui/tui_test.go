/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/lessons"
	"canvasstudio/internal/storage"
	"canvasstudio/internal/workspace"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func send(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func solarStore(t *testing.T) *workspace.Store {
	t.Helper()
	l, ok := lessons.NewCatalog().Get("Explore the Solar System")
	require.True(t, ok)
	s := workspace.New(workspace.Options{})
	s.SelectLesson(l)
	return s
}

func TestLessonModelTogglesUnderCursor(t *testing.T) {
	s := solarStore(t)
	m := send(NewLessonModel(s),
		tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown},
		runes("x"))
	assert.Equal(t, 3, m.(LessonModel).Cursor())
	assert.Equal(t, 12.5, s.Progress())
	assert.Contains(t, m.View(), "1/8 done")

	m = send(m, tea.KeyMsg{Type: tea.KeyUp}, runes("x"))
	plan, _ := s.LessonPlan()
	assert.True(t, plan.Tasks[2].Completed)
	assert.Equal(t, 2, plan.CompletedCount())
}

func TestLessonModelCursorStaysInRange(t *testing.T) {
	s := solarStore(t)
	var m tea.Model = NewLessonModel(s)
	m = send(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.(LessonModel).Cursor())
	for i := 0; i < 20; i++ {
		m = send(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 7, m.(LessonModel).Cursor())
}

func TestLessonModelPanelToggleKeepsPlan(t *testing.T) {
	s := solarStore(t)
	m := send(NewLessonModel(s), runes("x"), runes("p"))
	assert.False(t, s.PanelOpen())
	assert.Contains(t, m.View(), "Press p to show")

	m = send(m, runes("x"))
	assert.Equal(t, 12.5, s.Progress(), "toggling is disabled while hidden")

	send(m, runes("p"))
	assert.True(t, s.PanelOpen())
}

func TestLessonModelQuit(t *testing.T) {
	_, cmd := NewLessonModel(solarStore(t)).Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestLessonModelWithoutPlan(t *testing.T) {
	m := NewLessonModel(workspace.New(workspace.Options{}))
	assert.Contains(t, m.View(), "No lesson selected.")
	m2 := send(m, runes("x"))
	assert.NotContains(t, m2.View(), "out of range")
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "12.5%", FormatProgress(12.5))
	assert.Equal(t, "0%", FormatProgress(0))
	assert.Equal(t, "100%", FormatProgress(100))
	assert.Equal(t, "33.3%", FormatProgress(100.0/3))
}

func TestLessonListAndHistory(t *testing.T) {
	out := LessonList([]domain.Lesson{{ID: "water", Title: "Water Cycle", Tasks: []string{"a", "b"}}})
	assert.Contains(t, out, "water")
	assert.Contains(t, out, "Water Cycle")
	assert.Contains(t, out, "(2 tasks)")
	assert.Contains(t, LessonList(nil), "No lessons")

	h := History([]storage.Generation{{Op: "generate_image", Prompt: "a red ball", Status: storage.StatusSucceeded, Created: time.Now()}})
	assert.Contains(t, h, "generate_image")
	assert.Contains(t, h, "a red ball")
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown("# Planets\n\nTry **Mars** next.", 60, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "Planets")
	assert.Contains(t, out, "Mars")
	assert.NotEmpty(t, strings.TrimSpace(out))
}
