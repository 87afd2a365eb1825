/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package turtle compiles layered freehand strokes into a Python turtle
// program.
//
// Compilation is a pure function of its inputs. Layers are visited bottom to
// top, strokes in their original order; each stroke is simplified, moved from
// canvas space (origin top-left, Y down) into turtle space (origin at the
// center, Y up) and drawn as setheading/forward pairs. Pen color and size are
// only emitted when they differ from the last emitted value anywhere in the
// program.
package turtle

import (
	"math"
	"strings"

	"pysketch/internal/domain"
	"pysketch/internal/simplify"
	"pysketch/internal/vector"
)

// MinSegment is the deadband below which a simplified segment is not drawn.
// Skipped segments do not move the turtle, so the drawn path can trail the
// intended one by the accumulated skipped lengths.
const MinSegment = 0.5

// DefaultBackground is used when Options.BackgroundColor is empty.
const DefaultBackground = "#000000"

const fixedComments = 2 // "# Setup" and "# Keep window open"

// Options controls one compilation.
// A nil SimplifyTolerance selects simplify.DefaultTolerance, as do negative
// or NaN values. An explicit 0 keeps every non-collinear point.
type Options struct {
	CanvasWidth       float64
	CanvasHeight      float64
	Speed             int
	BackgroundColor   string
	SimplifyTolerance *float64
}

// DefaultOptions returns the settings the drawing client starts with.
func DefaultOptions() Options {
	return Options{
		CanvasWidth:     800,
		CanvasHeight:    600,
		Speed:           domain.DefaultSpeed,
		BackgroundColor: DefaultBackground,
	}.WithTolerance(simplify.DefaultTolerance)
}

// WithTolerance returns o with the simplification tolerance set to v.
func (o Options) WithTolerance(v float64) Options {
	o.SimplifyTolerance = &v
	return o
}

// Tolerance is the simplification tolerance the compiler will use.
func (o Options) Tolerance() float64 {
	if o.SimplifyTolerance == nil {
		return simplify.DefaultTolerance
	}
	v := *o.SimplifyTolerance
	if math.IsNaN(v) || v < 0 {
		return simplify.DefaultTolerance
	}
	return v
}

func (o Options) background() string {
	if o.BackgroundColor == "" {
		return DefaultBackground
	}
	return o.BackgroundColor
}

// ForProject returns o with speed and background taken from the project settings.
func (o Options) ForProject(p domain.Project) Options {
	o.Speed = p.Settings.Speed
	if p.Settings.BackgroundColor != "" {
		o.BackgroundColor = p.Settings.BackgroundColor
	}
	return o
}

// emitter carries the running pen state across the whole program.
type emitter struct {
	prog  Program
	color string
	width float64
}

// Compile returns the Python turtle program for strokes on the visible layers.
func Compile(strokes []domain.Stroke, layers []domain.Layer, opts Options) string {
	return Build(strokes, layers, opts).String()
}

// CompileProject compiles a whole project, with speed and background taken
// from its settings.
func CompileProject(p domain.Project, opts Options) string {
	return Compile(p.Strokes, p.Layers, opts.ForProject(p))
}

// Build produces the command list that Compile renders.
func Build(strokes []domain.Stroke, layers []domain.Layer, opts Options) Program {
	e := &emitter{prog: Program{Width: opts.CanvasWidth, Height: opts.CanvasHeight}}
	e.preamble(opts)

	toTurtle := vector.CanvasToTurtle(opts.CanvasWidth, opts.CanvasHeight)
	tol := opts.Tolerance()
	for _, layer := range domain.VisibleLayers(layers) {
		layerStrokes := domain.StrokesForLayer(strokes, layer.ID)
		if len(layerStrokes) == 0 {
			continue
		}
		e.prog.add(Cmd{Op: OpComment, Text: commentText(layer.Name)})
		for _, s := range layerStrokes {
			e.stroke(s, simplify.Simplify(s.Points, tol), toTurtle)
		}
	}

	e.prog.add(Cmd{Op: OpComment, Text: "Keep window open"})
	e.prog.add(Cmd{Op: OpDone})
	return e.prog
}

func (e *emitter) preamble(opts Options) {
	e.prog.add(Cmd{Op: OpImport})
	e.prog.add(Cmd{Op: OpBlank})
	e.prog.add(Cmd{Op: OpComment, Text: "Setup"})
	e.prog.add(Cmd{Op: OpScreen})
	e.prog.add(Cmd{Op: OpBgColor, Text: opts.background()})
	e.prog.add(Cmd{Op: OpSetup, A: opts.CanvasWidth, B: opts.CanvasHeight})
	e.prog.add(Cmd{Op: OpBlank})
	e.prog.add(Cmd{Op: OpTurtle})
	e.prog.add(Cmd{Op: OpSpeed, N: opts.Speed})
	e.prog.add(Cmd{Op: OpHide})
	e.prog.add(Cmd{Op: OpBlank})
}

func (e *emitter) stroke(s domain.Stroke, pts []domain.Point, toTurtle vector.Affine2D) {
	if len(pts) < 2 {
		return
	}
	tp := make([]vector.Pt, len(pts))
	for i, p := range pts {
		tp[i] = toTurtle.Apply(p)
	}

	e.prog.add(Cmd{Op: OpPenUp})
	e.prog.add(Cmd{Op: OpGoto, A: tp[0].X, B: tp[0].Y})
	if s.Color != e.color {
		e.prog.add(Cmd{Op: OpPenColor, Text: s.Color})
		e.color = s.Color
	}
	if s.Width != e.width {
		e.prog.add(Cmd{Op: OpPenSize, A: s.Width})
		e.width = s.Width
	}
	e.prog.add(Cmd{Op: OpPenDown})

	for i := 1; i < len(tp); i++ {
		prev, curr := tp[i-1], tp[i]
		if d := vector.Distance(prev, curr); d > MinSegment {
			e.prog.add(Cmd{Op: OpSetHeading, A: vector.Heading(prev, curr)})
			e.prog.add(Cmd{Op: OpForward, A: d})
		}
	}
	e.prog.add(Cmd{Op: OpBlank})
}

// commentText keeps a layer name on a single comment line.
func commentText(name string) string {
	if !strings.ContainsAny(name, "\r\n") {
		return name
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(name)
}
