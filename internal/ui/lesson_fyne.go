//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// lessonPanel shows the assigned lesson plan as a checklist with progress.
type lessonPanel struct {
	sess     *Session
	title    *widget.Label
	progress *widget.ProgressBar
	tasks    *fyne.Container
	picker   *widget.Select
	root     *fyne.Container
}

func newLessonPanel(s *Session) *lessonPanel {
	p := &lessonPanel{
		sess:     s,
		title:    widget.NewLabelWithStyle("No lesson", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		progress: widget.NewProgressBar(),
		tasks:    container.NewVBox(),
	}
	p.progress.Max = 100
	p.progress.TextFormatter = func() string { return fmt.Sprintf("%.0f%% complete", p.progress.Value) }

	var keys []string
	names := map[string]string{}
	for _, l := range s.Catalog.List() {
		keys = append(keys, l.Title)
		names[l.Title] = l.ID
	}
	p.picker = widget.NewSelect(keys, func(title string) {
		if err := s.SelectLesson(names[title]); err != nil {
			s.log.Warn("select lesson", slog.String("lesson", title), slog.Any("err", err))
		}
	})
	p.picker.PlaceHolder = "Choose a lesson…"
	hide := widget.NewButton("Hide", func() { s.Store.SetPanelOpen(false) })

	header := container.NewVBox(container.NewBorder(nil, nil, nil, hide, p.title), p.picker, p.progress)
	p.root = container.NewBorder(header, nil, nil, nil, container.NewVScroll(p.tasks))
	p.Refresh()
	return p
}

// Refresh rebuilds the checklist from the store and shows or hides the panel.
func (p *lessonPanel) Refresh() {
	st := p.sess.Store
	if !st.PanelOpen() {
		p.root.Hide()
		return
	}
	p.root.Show()
	p.tasks.RemoveAll()
	plan, ok := st.LessonPlan()
	if !ok {
		p.title.SetText("No lesson")
		p.progress.SetValue(0)
		return
	}
	p.title.SetText(plan.Title)
	p.progress.SetValue(st.Progress())
	for i, t := range plan.Tasks {
		c := widget.NewCheck(t.Text, nil)
		c.SetChecked(t.Completed)
		c.OnChanged = func(bool) {
			if err := st.ToggleTask(i); err != nil {
				p.sess.log.Warn("toggle task", slog.Int("index", i), slog.Any("err", err))
			}
		}
		p.tasks.Add(c)
	}
}
