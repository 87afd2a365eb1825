/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry shared by the simplifier, the compiler and the previews.
// All values are float64 canvas units.

import (
	"math"

	"pysketch/internal/domain"
)

// Pt is a 2D point. It is the same type the data model stores.
type Pt = domain.Point

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

// Affine2D represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
// stored as [a b c d e f].
type Affine2D struct{ A, B, C, D, E, F float64 }

func (m Affine2D) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// Scale maps (x, y) to (sx*x, sy*y).
func Scale(sx, sy float64) Affine2D { return Affine2D{A: sx, D: sy} }

// CanvasToTurtle maps canvas space (origin top-left, Y down) of a w×h canvas
// to turtle space (origin at the center, Y up): x' = x - w/2, y' = h/2 - y.
func CanvasToTurtle(w, h float64) Affine2D {
	return Affine2D{A: 1, D: -1, E: -w / 2, F: h / 2}
}

// TurtleToCanvas is the inverse of CanvasToTurtle.
func TurtleToCanvas(w, h float64) Affine2D {
	return Affine2D{A: 1, D: -1, E: w / 2, F: h / 2}
}

// Distance is the Euclidean distance between p1 and p2.
func Distance(p1, p2 Pt) float64 {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Heading is the direction from p1 to p2 in degrees, 0 along +X and growing
// counter-clockwise in a Y-up frame. Range is (-180, 180].
func Heading(p1, p2 Pt) float64 {
	return math.Atan2(p2.Y-p1.Y, p2.X-p1.X) * (180 / math.Pi)
}

// SegmentDistance returns the distance from p to the nearest point of the
// segment a-b. A zero-length segment degrades to the distance to a.
func SegmentDistance(p, a, b Pt) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return Distance(p, Pt{X: a.X + t*dx, Y: a.Y + t*dy})
}
