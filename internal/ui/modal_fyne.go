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
	"net/url"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"canvasstudio/internal/genai"
	"canvasstudio/internal/orchestrator"
	"canvasstudio/internal/workspace"
)

var modalTitles = map[workspace.ModalType]string{
	workspace.ModalGenerateImage: "Generate image",
	workspace.ModalEditImage:     "Edit image",
	workspace.ModalGenerateVideo: "Generate video",
	workspace.ModalVideoPlayer:   "Video",
	workspace.ModalAssistant:     "Assistant",
}

// modals mirrors the store's active modal as a fyne dialog.
type modals struct {
	w    fyne.Window
	sess *Session

	seq     int64
	dlg     dialog.Dialog
	refresh func()
}

// Sync opens, replaces or hides the dialog to match the store.
func (m *modals) Sync() {
	active, ok := m.sess.Store.ActiveModal()
	if !ok {
		m.hide()
		return
	}
	if m.dlg != nil && active.Seq == m.seq {
		if m.refresh != nil {
			m.refresh()
		}
		return
	}
	m.hide()
	m.seq = active.Seq
	m.dlg, m.refresh = m.build(active)
	m.dlg.SetOnClosed(func() {
		m.sess.Store.CloseModalIf(active.Seq)
	})
	m.dlg.Resize(fyne.NewSize(520, 360))
	m.dlg.Show()
}

func (m *modals) hide() {
	if m.dlg == nil {
		return
	}
	d := m.dlg
	m.dlg, m.refresh, m.seq = nil, nil, 0
	d.Hide()
}

func (m *modals) build(active workspace.Modal) (dialog.Dialog, func()) {
	title := modalTitles[active.Type]
	switch active.Type {
	case workspace.ModalVideoPlayer:
		return m.player(title, active), nil
	case workspace.ModalAssistant:
		return m.assistant(title, active)
	default:
		return m.generate(title, active)
	}
}

func aspectOptions(t workspace.ModalType) []string {
	var as []genai.AspectRatio
	switch t {
	case workspace.ModalGenerateImage:
		as = genai.ImageAspects
	case workspace.ModalGenerateVideo:
		as = genai.VideoAspects
	}
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = string(a)
	}
	return out
}

func (m *modals) generate(title string, active workspace.Modal) (dialog.Dialog, func()) {
	orch := m.sess.Orch
	prompt := widget.NewMultiLineEntry()
	prompt.SetPlaceHolder("Describe what you want…")
	prompt.Wrapping = fyne.TextWrapWord

	items := []*widget.FormItem{widget.NewFormItem("Prompt", prompt)}
	var aspect *widget.Select
	if opts := aspectOptions(active.Type); len(opts) > 0 {
		aspect = widget.NewSelect(opts, nil)
		aspect.SetSelectedIndex(0)
		items = append(items, widget.NewFormItem("Aspect", aspect))
	}
	if len(active.Payload.SourceImage) > 0 {
		items = append(items, widget.NewFormItem("", widget.NewLabel("Animating the selected image")))
	}

	input := func() orchestrator.ModalInput {
		in := orchestrator.ModalInput{Prompt: prompt.Text}
		if aspect != nil {
			in.Aspect = genai.AspectRatio(aspect.Selected)
		}
		return in
	}
	busy := widget.NewProgressBarInfinite()
	busy.Hide()
	var submit *widget.Button
	refresh := func() {
		if orch.Pending(orchestrator.ModalKey(active.Seq)) {
			busy.Show()
		} else {
			busy.Hide()
		}
		if orch.CanSubmit(active, input()) {
			submit.Enable()
		} else {
			submit.Disable()
		}
	}
	submit = widget.NewButton("Generate", func() {
		if err := orch.Submit(active, input()); err != nil {
			m.sess.log.Warn("submit modal", slog.String("modal", string(active.Type)), slog.Any("err", err))
		}
		refresh()
	})
	submit.Importance = widget.HighImportance
	prompt.OnChanged = func(string) { refresh() }
	if aspect != nil {
		aspect.OnChanged = func(string) { refresh() }
	}
	refresh()

	form := widget.NewForm(items...)
	content := container.NewBorder(nil, container.NewVBox(busy, submit), nil, nil, form)
	d := dialog.NewCustom(title, "Close", content, m.w)
	return d, refresh
}

func (m *modals) player(title string, active workspace.Modal) dialog.Dialog {
	src := active.Payload.VideoSrc
	info := widget.NewLabel(src)
	info.Wrapping = fyne.TextWrapBreak
	open := widget.NewButton("Play in system player", func() {
		u, err := url.Parse(src)
		if err == nil {
			err = fyne.CurrentApp().OpenURL(u)
		}
		if err != nil {
			dialog.ShowError(fmt.Errorf("open video: %w", err), m.w)
		}
	})
	return dialog.NewCustom(title, "Close", container.NewVBox(info, open), m.w)
}

func transcriptText(msgs []orchestrator.Message) string {
	var b strings.Builder
	for _, msg := range msgs {
		who := "You"
		if msg.Role != orchestrator.RoleUser {
			who = "Assistant"
		}
		if msg.Failed {
			who += " (failed)"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", who, msg.Text)
	}
	return strings.TrimSpace(b.String())
}

func (m *modals) assistant(title string, active workspace.Modal) (dialog.Dialog, func()) {
	orch := m.sess.Orch
	transcript := widget.NewLabel("")
	transcript.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(transcript)
	scroll.SetMinSize(fyne.NewSize(480, 220))

	query := widget.NewEntry()
	query.SetPlaceHolder("Ask about the canvas…")
	deep := widget.NewCheck("Think deeply", nil)
	thinking := widget.NewProgressBarInfinite()
	thinking.Hide()

	submit := func() {
		in := orchestrator.ModalInput{Prompt: query.Text, Deep: deep.Checked}
		if err := orch.Submit(active, in); err != nil {
			m.sess.log.Warn("ask assistant", slog.Any("err", err))
			return
		}
		query.SetText("")
	}
	send := widget.NewButton("Send", submit)
	query.OnSubmitted = func(string) { submit() }

	refresh := func() {
		transcript.SetText(transcriptText(orch.Transcript()))
		scroll.ScrollToBottom()
		if orch.Thinking() {
			thinking.Show()
		} else {
			thinking.Hide()
		}
		if orch.CanSubmit(active, orchestrator.ModalInput{Prompt: query.Text}) {
			send.Enable()
		} else {
			send.Disable()
		}
	}
	query.OnChanged = func(string) { refresh() }
	clearBtn := widget.NewButton("Clear", func() {
		orch.ClearTranscript()
		refresh()
	})
	refresh()

	bottom := container.NewBorder(nil, nil, nil, container.NewHBox(deep, send, clearBtn), query)
	content := container.NewBorder(nil, container.NewVBox(thinking, bottom), nil, nil, scroll)
	return dialog.NewCustom(title, "Close", content, m.w), refresh
}
