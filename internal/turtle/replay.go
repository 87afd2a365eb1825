/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package turtle

import (
	"math"

	"pysketch/internal/vector"
)

// Trace is what a program draws when run: one path per pen-down run with
// constant color and size, in turtle space.
type Trace struct {
	Width      float64
	Height     float64
	Background vector.Color
	Paths      []vector.Path
}

// CanvasPaths returns the traced paths mapped back into canvas space.
func (t Trace) CanvasPaths() []vector.Path {
	m := vector.TurtleToCanvas(t.Width, t.Height)
	out := make([]vector.Path, len(t.Paths))
	for i := range t.Paths {
		out[i] = t.Paths[i].Transform(m)
	}
	return out
}

// turtleState mirrors the Python turtle defaults: at the origin, facing east,
// pen down, black, size 1.
type turtleState struct {
	pos     vector.Pt
	heading float64
	down    bool
	style   vector.Style
	cur     *vector.Path
	out     []vector.Path
}

func (s *turtleState) flush() {
	if s.cur != nil && !s.cur.Empty() {
		s.out = append(s.out, *s.cur)
	}
	s.cur = nil
}

func (s *turtleState) moveTo(p vector.Pt) {
	if s.down {
		if s.cur == nil {
			s.cur = &vector.Path{Style: s.style}
			s.cur.MoveTo(s.pos.X, s.pos.Y)
		}
		s.cur.LineTo(p.X, p.Y)
	}
	s.pos = p
}

// Replay interprets p the way the turtle runtime executes the generated text,
// using the rounded operands that appear in the source. Segments the compiler
// skipped are therefore missing from the trace, drift included.
func Replay(p Program) Trace {
	tr := Trace{Width: p.Width, Height: p.Height, Background: vector.White}
	st := &turtleState{down: true, style: vector.Style{Color: vector.Black, Width: 1}}
	for _, c := range p.Cmds {
		switch c.Op {
		case OpBgColor:
			if col, ok := vector.ParseHex(c.Text); ok {
				tr.Background = col
			}
		case OpPenUp:
			st.flush()
			st.down = false
		case OpPenDown:
			st.down = true
		case OpGoto:
			st.moveTo(vector.Pt{X: Emitted(c.A), Y: Emitted(c.B)})
		case OpPenColor:
			st.flush()
			if col, ok := vector.ParseHex(c.Text); ok {
				st.style.Color = col
			}
		case OpPenSize:
			st.flush()
			st.style.Width = c.A
		case OpSetHeading:
			st.heading = Emitted(c.A)
		case OpForward:
			d := Emitted(c.A)
			rad := st.heading * math.Pi / 180
			st.moveTo(vector.Pt{X: st.pos.X + d*math.Cos(rad), Y: st.pos.Y + d*math.Sin(rad)})
		}
	}
	st.flush()
	tr.Paths = st.out
	return tr
}
