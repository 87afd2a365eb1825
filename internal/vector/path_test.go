/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestPathBoundsAndSegments(t *testing.T) {
	var p Path
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(0, 10)

	b := p.Bounds()
	if b.X != 0 || b.Y != 0 || b.W != 10 || b.H != 10 {
		t.Fatalf("unexpected bounds: %+v", b)
	}

	var n int
	p.Segments(func(a, b Pt) { n++ })
	if n != 2 {
		t.Fatalf("segments = %d, want 2", n)
	}
	if p.Empty() {
		t.Fatalf("path with LineTo should not be empty")
	}
}

func TestPathTransformKeepsStyle(t *testing.T) {
	p := Path{Style: Style{Color: White, Width: 4}}
	p.MoveTo(0, 0)
	p.LineTo(-400, 300)
	c := p.Transform(TurtleToCanvas(800, 600))
	if c.Style != p.Style {
		t.Fatalf("style lost in transform")
	}
	if got := c.Cmds[0].P; got != (Pt{X: 400, Y: 300}) {
		t.Fatalf("origin mapped to %+v", got)
	}
	if got := c.Cmds[1].P; got != (Pt{X: 0, Y: 0}) {
		t.Fatalf("corner mapped to %+v", got)
	}
}

func TestEmptyPath(t *testing.T) {
	var p Path
	if !p.Empty() {
		t.Fatalf("zero path should be empty")
	}
	p.MoveTo(1, 1)
	if !p.Empty() {
		t.Fatalf("MoveTo alone draws nothing")
	}
	if b := (&Path{}).Bounds(); b != (Rect{}) {
		t.Fatalf("empty bounds = %+v", b)
	}
}

func TestParseHex(t *testing.T) {
	c, ok := ParseHex("#ff8000")
	if !ok || c != (Color{R: 255, G: 128, B: 0, A: 255}) {
		t.Fatalf("ParseHex = %+v, %v", c, ok)
	}
	c, ok = ParseHex("#abc")
	if !ok || c.Hex() != "#aabbcc" {
		t.Fatalf("short hex = %s, %v", c.Hex(), ok)
	}
	if _, ok := ParseHex("nope"); ok {
		t.Fatalf("expected invalid color")
	}
}
