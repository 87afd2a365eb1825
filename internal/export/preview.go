/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pysketch/internal/domain"
	"pysketch/internal/storage"
	"pysketch/internal/turtle"
)

// PreviewOptions controls how a project is compiled before it is drawn back.
// Scale only affects raster output.
type PreviewOptions struct {
	turtle.Options
	Scale float64
}

// DefaultPreviewOptions returns the compile defaults at scale 1.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{Options: turtle.DefaultOptions(), Scale: 1}
}

func (o PreviewOptions) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// TraceProject compiles p with its own speed and background and replays the
// result, yielding exactly what the generated program would draw.
func TraceProject(p domain.Project, opt PreviewOptions) (turtle.Trace, error) {
	if opt.CanvasWidth <= 0 || opt.CanvasHeight <= 0 {
		return turtle.Trace{}, fmt.Errorf("invalid canvas size %gx%g", opt.CanvasWidth, opt.CanvasHeight)
	}
	prog := turtle.Build(p.Strokes, p.Layers, opt.ForProject(p))
	return turtle.Replay(prog), nil
}

// resolveOut maps a relative output path into <root>/exports and makes sure
// the parent directory exists.
func resolveOut(ph *storage.ProjectHandle, outPath, ext string) (string, error) {
	if ph == nil {
		return "", errors.New("project handle is nil")
	}
	if outPath == "" {
		outPath = "drawing" + ext
	}
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.ExportsDir(), outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	return outPath, nil
}

// Export writes a preview of the project in the named format ("svg", "pdf"
// or "png") and returns the written path.
func Export(ph *storage.ProjectHandle, format, outPath string, opt PreviewOptions) (string, error) {
	switch format {
	case "svg":
		return ExportSVG(ph, outPath, opt)
	case "pdf":
		return ExportPDF(ph, outPath, opt)
	case "png":
		return ExportPNG(ph, outPath, opt)
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}
