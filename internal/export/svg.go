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
	"fmt"

	"pysketch/internal/storage"
	"pysketch/internal/turtle"
	"pysketch/internal/vector"
)

// RenderSVG draws a trace as an SVG document in canvas coordinates. Each
// pen-down run becomes one path with round caps and joins, like the turtle
// window draws it.
func RenderSVG(tr turtle.Trace, title string) ([]byte, error) {
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %g %g\">\n", tr.Width, tr.Height, tr.Width, tr.Height)
	if title != "" {
		wf("  <title>%s</title>\n", escText(title))
	}
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", tr.Width, tr.Height, tr.Background.Hex())

	for _, p := range tr.CanvasPaths() {
		if p.Empty() {
			continue
		}
		wf("  <path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\" stroke-linecap=\"round\" stroke-linejoin=\"round\"/>\n",
			pathData(p), p.Style.Color.Hex(), p.Style.Width)
	}
	wf("</svg>\n")

	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

func pathData(p vector.Path) string {
	var b bytes.Buffer
	for i, c := range p.Cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		op := "L"
		if c.Op == vector.MoveTo {
			op = "M"
		}
		fmt.Fprintf(&b, "%s%s %s", op, turtle.FormatNumber(c.P.X), turtle.FormatNumber(c.P.Y))
	}
	return b.String()
}

// ExportSVG writes the project preview as SVG. Relative paths land in the
// project's exports folder.
func ExportSVG(ph *storage.ProjectHandle, outPath string, opt PreviewOptions) (string, error) {
	out, err := resolveOut(ph, outPath, ".svg")
	if err != nil {
		return "", err
	}
	tr, err := TraceProject(ph.Project, opt)
	if err != nil {
		return "", err
	}
	data, err := RenderSVG(tr, ph.Project.Name)
	if err != nil {
		return "", err
	}
	if err := storage.WriteFileAtomic(out, data); err != nil {
		return "", fmt.Errorf("write svg: %w", err)
	}
	return out, nil
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
