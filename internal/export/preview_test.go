/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pysketch/internal/domain"
	"pysketch/internal/storage"
)

func sampleProject(t *testing.T) domain.Project {
	t.Helper()
	p := storage.NewProject("Preview", time.Unix(1700000000, 0))
	pts := []domain.Point{{X: 100, Y: 100}, {X: 200, Y: 100}, {X: 200, Y: 200}}
	if _, err := storage.AddStroke(&p, p.Layers[0].ID, pts, "#ff0000", 4); err != nil {
		t.Fatalf("add stroke: %v", err)
	}
	return p
}

func sampleHandle(t *testing.T) *storage.ProjectHandle {
	t.Helper()
	root := t.TempDir()
	ph, err := storage.InitProject(root, "Preview")
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	p := sampleProject(t)
	p.ID = ph.Project.ID
	ph.Project = p
	if err := storage.Save(ph); err != nil {
		t.Fatalf("save: %v", err)
	}
	return ph
}

func TestRenderSVG_DrawsStrokeOnBackground(t *testing.T) {
	tr, err := TraceProject(sampleProject(t), DefaultPreviewOptions())
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	data, err := RenderSVG(tr, "A & B")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`viewBox="0 0 800 600"`,
		`<title>A &amp; B</title>`,
		`fill="#0a0a0a"`,
		`d="M100 100 L200 100 L200 200"`,
		`stroke="#ff0000"`,
		`stroke-width="4"`,
		`stroke-linecap="round"`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("svg missing %q:\n%s", want, s)
		}
	}
}

func TestRenderSVG_HiddenLayerOmitted(t *testing.T) {
	p := sampleProject(t)
	p.Layers[0].Visible = false
	tr, err := TraceProject(p, DefaultPreviewOptions())
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	data, err := RenderSVG(tr, "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if bytes.Contains(data, []byte("<path")) {
		t.Fatalf("hidden layer should not be drawn:\n%s", data)
	}
}

func TestTraceProject_RejectsEmptyCanvas(t *testing.T) {
	opt := DefaultPreviewOptions()
	opt.CanvasWidth = 0
	if _, err := TraceProject(sampleProject(t), opt); err == nil {
		t.Fatalf("expected error for zero canvas width")
	}
}

func TestRenderPNG_PixelColors(t *testing.T) {
	tr, err := TraceProject(sampleProject(t), DefaultPreviewOptions())
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	img, err := RenderPNG(tr, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Fatalf("unexpected size %v", b)
	}
	bg := img.RGBAAt(10, 10)
	if bg.R != 0x0a || bg.G != 0x0a || bg.B != 0x0a {
		t.Fatalf("background = %v", bg)
	}
	on := img.RGBAAt(150, 100)
	if on.R < 200 || on.G > 60 {
		t.Fatalf("stroke pixel = %v", on)
	}
	// Round join at the corner.
	corner := img.RGBAAt(200, 100)
	if corner.R < 200 {
		t.Fatalf("corner pixel = %v", corner)
	}
	off := img.RGBAAt(150, 150)
	if off != bg {
		t.Fatalf("pixel off the stroke = %v", off)
	}
}

func TestRenderPNG_Scale(t *testing.T) {
	tr, err := TraceProject(sampleProject(t), DefaultPreviewOptions())
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	img, err := RenderPNG(tr, 0.5)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("unexpected size %v", b)
	}
	if c := img.RGBAAt(75, 50); c.R < 150 {
		t.Fatalf("scaled stroke pixel = %v", c)
	}
}

func TestRenderPNG_RejectsHugeRaster(t *testing.T) {
	tr, err := TraceProject(sampleProject(t), DefaultPreviewOptions())
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if _, err := RenderPNG(tr, 1000); !errors.Is(err, ErrRasterTooLarge) {
		t.Fatalf("scale 1000: err = %v, want ErrRasterTooLarge", err)
	}
	if _, err := RenderPNG(tr, math.Inf(1)); !errors.Is(err, ErrRasterTooLarge) {
		t.Fatalf("infinite scale: err = %v, want ErrRasterTooLarge", err)
	}
	big := tr
	big.Width, big.Height = MaxRasterSide+1, 10
	if _, err := RenderPNG(big, 1); !errors.Is(err, ErrRasterTooLarge) {
		t.Fatalf("wide canvas: err = %v, want ErrRasterTooLarge", err)
	}
	if _, err := ExportPNG(sampleHandle(t), "huge.png", PreviewOptions{Options: DefaultPreviewOptions().Options, Scale: 100}); !errors.Is(err, ErrRasterTooLarge) {
		t.Fatalf("export with scale 100: err = %v, want ErrRasterTooLarge", err)
	}
}

func TestExportFiles_DefaultToExportsDir(t *testing.T) {
	ph := sampleHandle(t)
	for _, format := range []string{"svg", "pdf", "png"} {
		out, err := Export(ph, format, "", DefaultPreviewOptions())
		if err != nil {
			t.Fatalf("export %s: %v", format, err)
		}
		want := filepath.Join(ph.Root, "exports", "drawing."+format)
		if out != want {
			t.Fatalf("export %s wrote %s, want %s", format, out, want)
		}
		st, err := os.Stat(out)
		if err != nil {
			t.Fatalf("missing %s: %v", out, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", out)
		}
	}
}

func TestExportPNG_Decodes(t *testing.T) {
	ph := sampleHandle(t)
	out, err := ExportPNG(ph, filepath.Join("nested", "p.png"), PreviewOptions{Options: DefaultPreviewOptions().Options, Scale: 2})
	if err != nil {
		t.Fatalf("export png: %v", err)
	}
	if out != filepath.Join(ph.Root, "exports", "nested", "p.png") {
		t.Fatalf("unexpected path %s", out)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 1600 || cfg.Height != 1200 {
		t.Fatalf("unexpected size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestExportPDF_Header(t *testing.T) {
	ph := sampleHandle(t)
	abs := filepath.Join(t.TempDir(), "out.pdf")
	out, err := ExportPDF(ph, abs, DefaultPreviewOptions())
	if err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	if out != abs {
		t.Fatalf("absolute path not honored: %s", out)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", b[:8])
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	ph := sampleHandle(t)
	if _, err := Export(ph, "gif", "", DefaultPreviewOptions()); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := ExportSVG(nil, "", DefaultPreviewOptions()); err == nil {
		t.Fatalf("expected error for nil handle")
	}
}
