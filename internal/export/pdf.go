/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"pysketch/internal/storage"
	"pysketch/internal/turtle"
	"pysketch/internal/vector"
)

// newPDF lays a trace out on a single page the size of the canvas, one
// point per canvas pixel.
func newPDF(tr turtle.Trace, title string) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: tr.Width, Ht: tr.Height},
	})
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetAuthor("PySketch", false)
	pdf.SetCreator("pysketch", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	setFillColor(pdf, tr.Background)
	pdf.Rect(0, 0, tr.Width, tr.Height, "F")

	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	for _, p := range tr.CanvasPaths() {
		if p.Empty() {
			continue
		}
		setDrawColor(pdf, p.Style.Color)
		pdf.SetLineWidth(p.Style.Width)
		for _, c := range p.Cmds {
			if c.Op == vector.MoveTo {
				pdf.MoveTo(c.P.X, c.P.Y)
			} else {
				pdf.LineTo(c.P.X, c.P.Y)
			}
		}
		pdf.DrawPath("D")
	}
	return pdf
}

// WritePDF renders a trace as a one-page PDF to w.
func WritePDF(w io.Writer, tr turtle.Trace, title string) error {
	pdf := newPDF(tr, title)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes the project preview as a one-page PDF. Relative paths
// land in the project's exports folder.
func ExportPDF(ph *storage.ProjectHandle, outPath string, opt PreviewOptions) (string, error) {
	out, err := resolveOut(ph, outPath, ".pdf")
	if err != nil {
		return "", err
	}
	tr, err := TraceProject(ph.Project, opt)
	if err != nil {
		return "", err
	}
	pdf := newPDF(tr, ph.Project.Name)
	if err := pdf.OutputFileAndClose(out); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return out, nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
