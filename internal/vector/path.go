/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Polyline paths. The turtle replay produces one Path per pen-down run.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
)

type PathCmd struct {
	Op PathOp
	P  Pt
}

// Path is a sequence of MoveTo/LineTo commands drawn with one Style.
type Path struct {
	Cmds  []PathCmd
	Style Style
}

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, P: Pt{X: x, Y: y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, P: Pt{X: x, Y: y}})
}

// Empty reports whether the path draws nothing (no LineTo).
func (p *Path) Empty() bool {
	for _, c := range p.Cmds {
		if c.Op == LineTo {
			return false
		}
	}
	return true
}

// Transform returns a copy of p with every point mapped through m.
func (p *Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds)), Style: p.Style}
	for i, c := range p.Cmds {
		out.Cmds[i] = PathCmd{Op: c.Op, P: m.Apply(c.P)}
	}
	return out
}

// Segments calls fn for every drawn segment in order.
func (p *Path) Segments(fn func(a, b Pt)) {
	var cur Pt
	for _, c := range p.Cmds {
		if c.Op == LineTo {
			fn(cur, c.P)
		}
		cur = c.P
	}
}

// Bounds returns the axis-aligned bounding box of all points in the path.
func (p *Path) Bounds() Rect {
	if len(p.Cmds) == 0 {
		return Rect{}
	}
	minX, minY := p.Cmds[0].P.X, p.Cmds[0].P.Y
	maxX, maxY := minX, minY
	for _, c := range p.Cmds[1:] {
		if c.P.X < minX {
			minX = c.P.X
		}
		if c.P.Y < minY {
			minY = c.P.Y
		}
		if c.P.X > maxX {
			maxX = c.P.X
		}
		if c.P.Y > maxY {
			maxY = c.P.Y
		}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
