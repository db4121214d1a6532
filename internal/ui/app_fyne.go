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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"canvasstudio/internal/crash"
	"canvasstudio/internal/domain"
	"canvasstudio/internal/export"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/orchestrator"
	"canvasstudio/internal/version"
	"canvasstudio/internal/workspace"
)

// Run starts the Fyne desktop shell and blocks until the window closes.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	fyneApp := app.NewWithID("canvasstudio")
	w := fyneApp.NewWindow("Canvas Studio")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")

	var board *Board
	var panel *lessonPanel
	var dlgs *modals
	redraw := func() {
		if board == nil {
			return
		}
		board.Refresh()
		panel.Refresh()
		dlgs.Sync()
	}

	notify := opts.Notify
	opts.Notify = func(n orchestrator.Notice) {
		fyne.Do(func() {
			status.SetText(n.Message)
			if n.Level == orchestrator.LevelError {
				dialog.ShowError(errors.New(n.Message), w)
			}
		})
		if notify != nil {
			notify(n)
		}
	}
	opts.Changed = func() { fyne.Do(redraw) }
	opts.OpenURL = fyneApp.OpenURL

	sess := NewSession(opts)
	defer sess.Close()
	crashDir := ""
	if opts.Config.Media.CacheDir != "" {
		crashDir = filepath.Join(opts.Config.Media.CacheDir, "crash")
	}
	defer crash.Recover(&crash.Session{Dir: crashDir, Summary: sess.Summary})

	board = NewBoard(sess)
	board.OnError = func(err error) { status.SetText(err.Error()) }
	panel = newLessonPanel(sess)
	dlgs = &modals{w: w, sess: sess}
	unsubscribe := sess.Store.Subscribe(func(e workspace.Event) {
		fyne.Do(redraw)
	})
	defer unsubscribe()

	add := func(t domain.NodeType) func() {
		return func() {
			if _, err := sess.AddNode(t); err != nil {
				l.Error("add node", slog.String("type", string(t)), slog.Any("err", err))
				dialog.ShowError(err, w)
			}
		}
	}
	generate := func(t workspace.ModalType) func() {
		return func() { sess.OpenGenerate(t) }
	}
	undo := func() {
		if !sess.Store.Undo() {
			status.SetText("Nothing to undo")
		}
	}
	redo := func() {
		if !sess.Store.Redo() {
			status.SetText("Nothing to redo")
		}
	}
	fit := func() {
		if !sess.Store.ZoomToFit() {
			status.SetText("Nothing to fit")
		}
	}
	exportSnapshot := func() {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			defer uc.Close()
			f, ferr := export.FormatFor(uc.URI().Path())
			if ferr == nil {
				ferr = export.Write(uc, f, sess.Store.Nodes(), export.Options{Scale: 2, Title: "Canvas Studio"})
			}
			if ferr != nil {
				l.Error("export failed", slog.Any("err", ferr))
				dialog.ShowError(ferr, w)
				return
			}
			status.SetText("Exported " + uc.URI().Name())
		}, w)
		save.SetFileName("canvas.png")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".pdf"}))
		save.Show()
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), add(domain.TypeText)),
		widget.NewToolbarAction(theme.ConfirmIcon(), add(domain.TypeTask)),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), add(domain.TypeDraw)),
		widget.NewToolbarAction(theme.MediaPhotoIcon(), generate(workspace.ModalGenerateImage)),
		widget.NewToolbarAction(theme.MediaVideoIcon(), generate(workspace.ModalGenerateVideo)),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), sess.Store.ZoomOut),
		widget.NewToolbarAction(theme.ZoomInIcon(), sess.Store.ZoomIn),
		widget.NewToolbarAction(theme.ZoomFitIcon(), fit),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), redo),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.ListIcon(), func() { sess.Store.SetPanelOpen(!sess.Store.PanelOpen()) }),
		widget.NewToolbarAction(theme.HelpIcon(), func() { sess.OpenAssistant() }),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), exportSnapshot),
	)

	undoItem := fyne.NewMenuItem("Undo", undo)
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	redoItem := fyne.NewMenuItem("Redo", redo)
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}
	deleteItem := fyne.NewMenuItem("Delete selection", func() {
		if ids := sess.Store.DeleteSelectedNodes(); len(ids) > 0 {
			status.SetText(fmt.Sprintf("Deleted %d node(s)", len(ids)))
		}
	})
	for _, it := range []*fyne.MenuItem{undoItem, redoItem} {
		sc, fn := it.Shortcut, it.Action
		w.Canvas().AddShortcut(sc, func(fyne.Shortcut) { fn() })
	}
	editMenu := fyne.NewMenu("Edit", undoItem, redoItem, fyne.NewMenuItemSeparator(), deleteItem)

	insertMenu := fyne.NewMenu("Insert",
		fyne.NewMenuItem("Note", add(domain.TypeText)),
		fyne.NewMenuItem("Task", add(domain.TypeTask)),
		fyne.NewMenuItem("Link", add(domain.TypeLink)),
		fyne.NewMenuItem("Drawing", add(domain.TypeDraw)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Generate image…", generate(workspace.ModalGenerateImage)),
		fyne.NewMenuItem("Generate video…", generate(workspace.ModalGenerateVideo)),
	)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom in", sess.Store.ZoomIn),
		fyne.NewMenuItem("Zoom out", sess.Store.ZoomOut),
		fyne.NewMenuItem("Zoom to fit", fit),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Lesson panel", func() { sess.Store.SetPanelOpen(!sess.Store.PanelOpen()) }),
		fyne.NewMenuItem("Assistant…", func() { sess.OpenAssistant() }),
	)
	fileMenu := fyne.NewMenu("File", fyne.NewMenuItem("Export snapshot…", exportSnapshot))

	aboutItem := fyne.NewMenuItem("About Canvas Studio", func() {
		l.Info("menu: about")
		exe, _ := os.Executable()
		info := fmt.Sprintf("Canvas Studio\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("Installation Environment", info, w)
	})
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, insertMenu, viewMenu, fyne.NewMenu("About", aboutItem)))

	w.SetContent(container.NewBorder(toolbar, status, nil, panel.root, board))
	w.Canvas().Focus(board)

	// Persist preferences on close
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	w.ShowAndRun()
	l.Info("UI closed", slog.String("state", sess.Summary()))
	return nil
}
