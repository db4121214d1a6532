/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tui is the terminal front end: an interactive lesson checklist and
// styled output for the CLI.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"canvasstudio/internal/workspace"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Panel  key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Panel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys(" ", "enter", "x"), key.WithHelp("space", "toggle")),
	Panel:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "panel")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).MarginBottom(1)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Strikethrough(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
)

// LessonModel is a bubbletea model over the workspace lesson plan. All state
// lives in the store; the model only keeps the cursor.
type LessonModel struct {
	store  *workspace.Store
	cursor int
	bar    progress.Model
	help   help.Model
	err    error
	width  int
}

// NewLessonModel opens the lesson panel of s in a terminal.
func NewLessonModel(s *workspace.Store) LessonModel {
	return LessonModel{
		store: s,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:  help.New(),
	}
}

func (m LessonModel) Init() tea.Cmd { return nil }

// Cursor is the highlighted task index.
func (m LessonModel) Cursor() int { return m.cursor }

func (m LessonModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, min(60, msg.Width-20))
	case tea.KeyMsg:
		plan, ok := m.store.LessonPlan()
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Panel):
			m.store.SetPanelOpen(!m.store.PanelOpen())
		case !ok || !m.store.PanelOpen():
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < plan.Total()-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			m.err = m.store.ToggleTask(m.cursor)
		}
	}
	return m, nil
}

func (m LessonModel) View() string {
	var b strings.Builder
	plan, ok := m.store.LessonPlan()
	switch {
	case !ok:
		b.WriteString(mutedStyle.Render("No lesson selected."))
		b.WriteString("\n")
	case !m.store.PanelOpen():
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Lesson panel hidden (%s). Press p to show.", FormatProgress(m.store.Progress()))))
		b.WriteString("\n")
	default:
		b.WriteString(titleStyle.Render(plan.Title))
		b.WriteString("\n")
		for i, t := range plan.Tasks {
			pointer := "  "
			if i == m.cursor {
				pointer = cursorStyle.Render("> ")
			}
			box, text := "[ ]", t.Text
			if t.Completed {
				box, text = "[x]", doneStyle.Render(t.Text)
			}
			fmt.Fprintf(&b, "%s%s %s\n", pointer, box, text)
		}
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(m.store.Progress() / 100))
		fmt.Fprintf(&b, "  %d/%d done\n", plan.CompletedCount(), plan.Total())
	}
	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")
	return b.String()
}

// FormatProgress renders a percentage with at most one decimal, e.g. "12.5%".
func FormatProgress(p float64) string {
	s := strings.TrimSuffix(fmt.Sprintf("%.1f", p), ".0")
	return s + "%"
}

// RunLesson runs the checklist until the user quits.
func RunLesson(s *workspace.Store, in io.Reader, out io.Writer) error {
	opts := []tea.ProgramOption{tea.WithOutput(out)}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	_, err := tea.NewProgram(NewLessonModel(s), opts...).Run()
	return err
}
