/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package turtle

// Program model. The compiler first builds a list of typed commands and then
// renders them to Python turtle source, in the same spirit as vector.Path
// keeps drawing commands separate from any particular renderer.

import (
	"fmt"
	"strings"
)

type Op uint8

const (
	OpBlank      Op = iota // empty line
	OpImport               // import turtle
	OpComment              // # Text
	OpScreen               // screen = turtle.Screen()
	OpBgColor              // screen.bgcolor("Text")
	OpSetup                // screen.setup(A, B)
	OpTurtle               // t = turtle.Turtle()
	OpSpeed                // t.speed(N)
	OpHide                 // t.hideturtle()
	OpPenUp                // t.penup()
	OpGoto                 // t.goto(A, B)
	OpPenColor             // t.pencolor("Text")
	OpPenSize              // t.pensize(A)
	OpPenDown              // t.pendown()
	OpSetHeading           // t.setheading(A)
	OpForward              // t.forward(A)
	OpDone                 // turtle.done()
	opCount
)

var opNames = [...]string{
	OpBlank:      "blank",
	OpImport:     "import",
	OpComment:    "comment",
	OpScreen:     "screen",
	OpBgColor:    "bgcolor",
	OpSetup:      "setup",
	OpTurtle:     "turtle",
	OpSpeed:      "speed",
	OpHide:       "hideturtle",
	OpPenUp:      "penup",
	OpGoto:       "goto",
	OpPenColor:   "pencolor",
	OpPenSize:    "pensize",
	OpPenDown:    "pendown",
	OpSetHeading: "setheading",
	OpForward:    "forward",
	OpDone:       "done",
}

func (o Op) String() string {
	if o < opCount {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Cmd is one line of the generated program. A and B carry numeric operands,
// Text carries comments and colors, N carries the speed.
type Cmd struct {
	Op   Op
	A, B float64
	Text string
	N    int
}

// Line renders the command as a single line of Python.
func (c Cmd) Line() string {
	switch c.Op {
	case OpBlank:
		return ""
	case OpImport:
		return "import turtle"
	case OpComment:
		return "# " + c.Text
	case OpScreen:
		return "screen = turtle.Screen()"
	case OpBgColor:
		return `screen.bgcolor("` + c.Text + `")`
	case OpSetup:
		return "screen.setup(" + formatPlain(c.A) + ", " + formatPlain(c.B) + ")"
	case OpTurtle:
		return "t = turtle.Turtle()"
	case OpSpeed:
		return fmt.Sprintf("t.speed(%d)", c.N)
	case OpHide:
		return "t.hideturtle()"
	case OpPenUp:
		return "t.penup()"
	case OpGoto:
		return "t.goto(" + FormatNumber(c.A) + ", " + FormatNumber(c.B) + ")"
	case OpPenColor:
		return `t.pencolor("` + c.Text + `")`
	case OpPenSize:
		return "t.pensize(" + formatPlain(c.A) + ")"
	case OpPenDown:
		return "t.pendown()"
	case OpSetHeading:
		return "t.setheading(" + FormatNumber(c.A) + ")"
	case OpForward:
		return "t.forward(" + FormatNumber(c.A) + ")"
	case OpDone:
		return "turtle.done()"
	}
	return "# unknown " + c.Op.String()
}

// Program is an ordered list of commands plus the canvas it was built for.
type Program struct {
	Cmds   []Cmd
	Width  float64
	Height float64
}

func (p *Program) add(c Cmd) { p.Cmds = append(p.Cmds, c) }

// Lines renders every command.
func (p Program) Lines() []string {
	out := make([]string, len(p.Cmds))
	for i, c := range p.Cmds {
		out[i] = c.Line()
	}
	return out
}

// String renders the program joined by newlines, without a trailing newline.
func (p Program) String() string {
	var b strings.Builder
	for i, c := range p.Cmds {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c.Line())
	}
	return b.String()
}

// Summary counts what a program draws.
type Summary struct {
	Lines        int
	Layers       int
	Strokes      int
	Segments     int
	ColorChanges int
	WidthChanges int
	Distance     float64
}

// Summarize counts commands by kind. Every layer block starts with a
// comment and every drawn stroke with a penup, so those are counted
// minus the fixed setup/epilogue comments.
func (p Program) Summarize() Summary {
	s := Summary{Lines: len(p.Cmds)}
	comments := 0
	for _, c := range p.Cmds {
		switch c.Op {
		case OpComment:
			comments++
		case OpPenUp:
			s.Strokes++
		case OpForward:
			s.Segments++
			s.Distance += Emitted(c.A)
		case OpPenColor:
			s.ColorChanges++
		case OpPenSize:
			s.WidthChanges++
		}
	}
	if comments > fixedComments {
		s.Layers = comments - fixedComments
	}
	return s
}
