//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"pysketch/internal/config"
	"pysketch/internal/crash"
	"pysketch/internal/domain"
	"pysketch/internal/export"
	applog "pysketch/internal/log"
	"pysketch/internal/storage"
	"pysketch/internal/version"
)

// Run opens the preview window for the project in projectDir ("." when
// empty): layer toggles, the replayed drawing, the generated code and the
// tolerance control.
func Run(projectDir string) error {
	cfg, _, err := config.Load()
	if err != nil {
		cfg = config.Defaults()
	}
	applog.Init(applog.Resolve(cfg.LogOptions()))
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	var pv *Preview
	defer crash.RecoverWith(func() *storage.ProjectHandle { return pv.Handle() })

	if projectDir == "" {
		projectDir = "."
	}
	abs, _ := filepath.Abs(projectDir)
	ph, err := storage.Open(abs)
	if err != nil {
		return fmt.Errorf("open project %s: %w", abs, err)
	}
	pv = NewPreview(ph, cfg.CompileOptions())

	fyneApp := app.NewWithID("pysketch")
	prefs := fyneApp.Preferences()
	addRecentProject(prefs, abs)

	w := fyneApp.NewWindow("PySketch")
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 760)
	if winW < 900 {
		winW = 900
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	code := widget.NewTextGridFromString("")
	drawing := canvas.NewImageFromImage(nil)
	drawing.FillMode = canvas.ImageFillContain
	drawing.SetMinSize(fyne.NewSize(400, 300))
	drawingBG := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})

	render := func() {
		f, err := pv.Render()
		if err != nil {
			l.Error("render failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		drawing.Image = f.Image
		drawing.Refresh()
		code.SetText(f.Code)
		s := f.Summary
		status.SetText(fmt.Sprintf("%d lines, %d layers, %d strokes, %d segments (tolerance %g)",
			s.Lines, s.Layers, s.Strokes, s.Segments, pv.Tolerance()))
	}

	// Layers, top first.
	layersBox := container.NewVBox()
	refreshLayers := func() {
		layers := pv.Layers()
		objs := make([]fyne.CanvasObject, 0, len(layers))
		for i := len(layers) - 1; i >= 0; i-- {
			ly := layers[i]
			n := len(domain.StrokesForLayer(pv.Handle().Project.Strokes, ly.ID))
			chk := widget.NewCheck(fmt.Sprintf("%s (%d)", ly.Name, n), nil)
			chk.SetChecked(ly.Visible)
			chk.OnChanged = func(v bool) {
				l.Info("toggle layer", slog.String("layer", ly.ID), slog.Bool("visible", v))
				if err := pv.SetLayerVisible(ly.ID, v); err != nil {
					dialog.ShowError(err, w)
					return
				}
				render()
			}
			objs = append(objs, chk)
		}
		layersBox.Objects = objs
		layersBox.Refresh()
	}

	reload := func() {
		if err := pv.Reload(); err != nil {
			l.Error("reload failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		w.SetTitle(fmt.Sprintf("PySketch — %s", pv.Handle().Project.Name))
		refreshLayers()
		render()
	}

	tolLabel := widget.NewLabel("")
	tol := widget.NewSlider(0, 20)
	tol.Step = 0.5
	tol.Value = pv.Tolerance()
	tolLabel.SetText(fmt.Sprintf("Tolerance: %g", pv.Tolerance()))
	tol.OnChanged = func(v float64) {
		tolLabel.SetText(fmt.Sprintf("Tolerance: %g", v))
	}
	tol.OnChangeEnded = func(v float64) {
		pv.SetTolerance(v)
		render()
	}

	copyCode := func() {
		w.Clipboard().SetContent(pv.Code())
		status.SetText("Code copied to clipboard.")
		l.Info("copied program", slog.Int("bytes", len(pv.Code())))
	}
	saveCode := func() {
		name := widget.NewEntry()
		name.SetText(cfg.Compile.OutputName)
		dialog.ShowForm("Save Python program", "Save", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("File name", name)},
			func(ok bool) {
				if !ok {
					return
				}
				out, err := pv.SaveProgram(context.Background(), name.Text)
				if err != nil {
					l.Error("save program failed", slog.Any("err", err))
					dialog.ShowError(err, w)
					return
				}
				status.SetText("Saved " + out)
			}, w)
	}
	exportAs := func(format string) func() {
		return func() {
			opt := export.DefaultPreviewOptions()
			opt.Options = cfg.CompileOptions().WithTolerance(pv.Tolerance())
			out, err := export.Export(pv.Handle(), format, "", opt)
			if err != nil {
				l.Error("export failed", slog.String("format", format), slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Exported " + out)
		}
	}

	copyBtn := widget.NewButtonWithIcon("Copy", theme.ContentCopyIcon(), copyCode)
	saveBtn := widget.NewButtonWithIcon("Save .py", theme.DocumentSaveIcon(), saveCode)
	reloadBtn := widget.NewButtonWithIcon("Reload", theme.ViewRefreshIcon(), reload)

	left := container.NewBorder(
		container.NewVBox(widget.NewLabelWithStyle("Layers", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), widget.NewSeparator()),
		nil, nil, nil, container.NewVScroll(layersBox))
	center := container.NewStack(drawingBG, drawing)
	right := container.NewBorder(
		container.NewHBox(widget.NewLabelWithStyle("Python", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), copyBtn, saveBtn),
		nil, nil, nil, container.NewScroll(code))
	split := container.NewHSplit(center, right)
	split.Offset = 0.6
	toolbar := container.NewBorder(nil, nil, tolLabel, reloadBtn, tol)
	w.SetContent(container.NewBorder(toolbar, status, left, nil, split))

	openItem := fyne.NewMenuItem("Open Project…", func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			h, err := storage.Open(uri.Path())
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			pv = NewPreview(h, cfg.CompileOptions())
			pv.SetTolerance(tol.Value)
			addRecentProject(prefs, h.Root)
			reload()
		}, w)
	})
	reloadItem := fyne.NewMenuItem("Reload", reload)
	saveItem := fyne.NewMenuItem("Save Program…", saveCode)
	copyItem := fyne.NewMenuItem("Copy Program", copyCode)
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	reloadItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}

	var recentItems []*fyne.MenuItem
	for _, p := range loadRecentProjects(prefs) {
		p := p
		recentItems = append(recentItems, fyne.NewMenuItem(p, func() {
			h, err := storage.Open(p)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			pv = NewPreview(h, cfg.CompileOptions())
			pv.SetTolerance(tol.Value)
			reload()
		}))
	}
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	recentItem.ChildMenu = fyne.NewMenu("", recentItems...)
	recentItem.Disabled = len(recentItems) == 0

	fileMenu := fyne.NewMenu("File", openItem, recentItem, reloadItem, fyne.NewMenuItemSeparator(), saveItem, copyItem)
	exportMenu := fyne.NewMenu("Export",
		fyne.NewMenuItem("SVG", exportAs("svg")),
		fyne.NewMenuItem("PDF", exportAs("pdf")),
		fyne.NewMenuItem("PNG", exportAs("png")),
	)
	aboutMenu := fyne.NewMenu("About", fyne.NewMenuItem("About PySketch", func() {
		exe, _ := os.Executable()
		info := fmt.Sprintf("PySketch\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("About", info, w)
	}))
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, exportMenu, aboutMenu))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	w.SetTitle(fmt.Sprintf("PySketch — %s", ph.Project.Name))
	refreshLayers()
	render()
	w.ShowAndRun()
	return nil
}

// Recent project persistence helpers
const recentPrefsKey = "recent.projects"
const recentMax = 10

func loadRecentProjects(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		var tmp []string
		if err := json.Unmarshal([]byte(raw), &tmp); err == nil {
			items = tmp
		}
	}
	// Filter out paths that no longer hold a project
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(s, storage.ManifestFileName)); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func saveRecentProjects(p fyne.Preferences, items []string) {
	if len(items) > recentMax {
		items = items[:recentMax]
	}
	b, _ := json.Marshal(items)
	p.SetString(recentPrefsKey, string(b))
}

func addRecentProject(p fyne.Preferences, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	abs, _ := filepath.Abs(path)
	rec := loadRecentProjects(p)
	out := make([]string, 0, 1+len(rec))
	out = append(out, abs)
	for _, s := range rec {
		// de-dup (case-insensitive on Windows)
		if strings.EqualFold(s, abs) {
			continue
		}
		out = append(out, s)
	}
	saveRecentProjects(p, out)
}
