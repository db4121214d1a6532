/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/storage"
)

var (
	idStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563EB")).Bold(true)
	cardStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#A78BFA")).Padding(0, 1)
)

// LessonList renders the catalog for `lessons list`.
func LessonList(ls []domain.Lesson) string {
	if len(ls) == 0 {
		return mutedStyle.Render("No lessons in the catalog.") + "\n"
	}
	var b strings.Builder
	for _, l := range ls {
		fmt.Fprintf(&b, "%s  %s %s\n", idStyle.Render(l.ID), l.Title, mutedStyle.Render(fmt.Sprintf("(%d tasks)", len(l.Tasks))))
	}
	return b.String()
}

// History renders recent generations.
func History(gs []storage.Generation) string {
	if len(gs) == 0 {
		return mutedStyle.Render("No generations yet.") + "\n"
	}
	var b strings.Builder
	for _, g := range gs {
		status := g.Status
		if g.Status == storage.StatusFailed {
			status = errStyle.Render(g.Status)
		}
		fmt.Fprintf(&b, "%s  %-15s %s  %s\n", g.Created.Local().Format("2006-01-02 15:04"), g.Op, status, g.Prompt)
	}
	return b.String()
}

// Card frames a short block of text.
func Card(title, body string) string {
	return cardStyle.Render(titleStyle.UnsetMarginBottom().Render(title) + "\n" + body)
}

// Markdown renders an assistant reply for the terminal. style is a glamour
// standard style name ("dark", "light", "notty"); empty picks one from the terminal.
func Markdown(md string, width int, style string) (string, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
