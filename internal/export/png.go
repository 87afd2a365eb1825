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
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	xvector "golang.org/x/image/vector"

	"pysketch/internal/storage"
	"pysketch/internal/turtle"
	"pysketch/internal/vector"
)

// MaxRasterSide bounds each side of a rendered PNG in pixels.
const MaxRasterSide = 8192

// ErrRasterTooLarge is returned when canvas size times scale exceeds
// MaxRasterSide on either side.
var ErrRasterTooLarge = errors.New("raster too large")

// RenderPNG rasterizes a trace with anti-aliasing. Canvas pixels are
// multiplied by scale (values <= 0 mean 1).
//
// The rasterizer sums signed coverage, so every shape for one path (segment
// quads and the round caps at each vertex) is emitted with the same winding
// and overlaps saturate instead of cancelling.
func RenderPNG(tr turtle.Trace, scale float64) (*image.RGBA, error) {
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1
	}
	fw, fh := math.Ceil(tr.Width*scale), math.Ceil(tr.Height*scale)
	if !(fw <= MaxRasterSide && fh <= MaxRasterSide) {
		return nil, fmt.Errorf("%w: %gx%g px exceeds %d px per side", ErrRasterTooLarge, fw, fh, MaxRasterSide)
	}
	w, h := int(fw), int(fh)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(toRGBA(tr.Background)), image.Point{}, draw.Src)

	r := xvector.NewRasterizer(w, h)
	m := vector.Scale(scale, scale)
	for _, p := range tr.CanvasPaths() {
		if p.Empty() {
			continue
		}
		sp := p.Transform(m)
		hw := p.Style.Width * scale / 2
		if hw < 0.5 {
			hw = 0.5
		}
		r.Reset(w, h)
		sp.Segments(func(a, b vector.Pt) {
			strokeQuad(r, a, b, hw)
			disc(r, a, hw)
			disc(r, b, hw)
		})
		r.Draw(img, img.Bounds(), image.NewUniform(toRGBA(p.Style.Color)), image.Point{})
	}
	return img, nil
}

// strokeQuad adds the body of a thick segment. Degenerate segments are left
// to the end caps.
func strokeQuad(r *xvector.Rasterizer, a, b vector.Pt, hw float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw
	r.MoveTo(f32(a.X+nx), f32(a.Y+ny))
	r.LineTo(f32(b.X+nx), f32(b.Y+ny))
	r.LineTo(f32(b.X-nx), f32(b.Y-ny))
	r.LineTo(f32(a.X-nx), f32(a.Y-ny))
	r.ClosePath()
}

// disc adds a filled circle traced with decreasing angle, matching the
// winding of strokeQuad.
func disc(r *xvector.Rasterizer, c vector.Pt, radius float64) {
	n := int(math.Ceil(radius * 4))
	if n < 12 {
		n = 12
	}
	if n > 64 {
		n = 64
	}
	r.MoveTo(f32(c.X+radius), f32(c.Y))
	for i := 1; i < n; i++ {
		a := -2 * math.Pi * float64(i) / float64(n)
		r.LineTo(f32(c.X+radius*math.Cos(a)), f32(c.Y+radius*math.Sin(a)))
	}
	r.ClosePath()
}

func f32(v float64) float32 { return float32(v) }

func toRGBA(c vector.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// EncodePNG renders and encodes a trace as PNG to w.
func EncodePNG(w io.Writer, tr turtle.Trace, scale float64) error {
	img, err := RenderPNG(tr, scale)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportPNG writes the project preview as PNG. Relative paths land in the
// project's exports folder.
func ExportPNG(ph *storage.ProjectHandle, outPath string, opt PreviewOptions) (string, error) {
	out, err := resolveOut(ph, outPath, ".png")
	if err != nil {
		return "", err
	}
	tr, err := TraceProject(ph.Project, opt)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, tr, opt.scale()); err != nil {
		return "", err
	}
	if err := storage.WriteFileAtomic(out, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write png: %w", err)
	}
	return out, nil
}
