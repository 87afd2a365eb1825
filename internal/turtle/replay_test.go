package turtle

import (
	"math"
	"testing"

	"pysketch/internal/domain"
	"pysketch/internal/vector"
)

func near(a, b vector.Pt) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestReplayRetracesStroke(t *testing.T) {
	layers := []domain.Layer{{ID: "l", Name: "L", Visible: true}}
	strokes := []domain.Stroke{stroke("s", "l", "#ff0000", 3, 400, 300, 500, 300, 500, 200)}
	tr := Replay(Build(strokes, layers, opts()))
	if len(tr.Paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(tr.Paths))
	}
	p := tr.Paths[0]
	if p.Style.Width != 3 || p.Style.Color != (vector.Color{R: 255, A: 255}) {
		t.Fatalf("unexpected style: %+v", p.Style)
	}
	want := []vector.Pt{{X: 400, Y: 300}, {X: 500, Y: 300}, {X: 500, Y: 200}}
	cp := tr.CanvasPaths()[0]
	if len(cp.Cmds) != len(want) {
		t.Fatalf("cmds = %d, want %d", len(cp.Cmds), len(want))
	}
	for i, c := range cp.Cmds {
		if !near(c.P, want[i]) {
			t.Fatalf("point %d = %+v, want %+v", i, c.P, want[i])
		}
	}
	if tr.Background != vector.Black {
		t.Fatalf("background = %+v, want black", tr.Background)
	}
}

func TestReplaySkippedSegmentsDrift(t *testing.T) {
	layers := []domain.Layer{{ID: "l", Name: "L", Visible: true}}
	// zero tolerance keeps every corner; the 0.4 step is dropped by the deadband
	o := opts().WithTolerance(0)
	strokes := []domain.Stroke{stroke("s", "l", "#ffffff", 1, 400, 300, 400, 299.6, 410, 299.6)}
	tr := Replay(Build(strokes, layers, o))
	if len(tr.Paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(tr.Paths))
	}
	last := tr.Paths[0].Cmds[len(tr.Paths[0].Cmds)-1].P
	// the turtle ends at (10, 0) instead of the intended (10, 0.4)
	if !near(last, vector.Pt{X: 10, Y: 0}) {
		t.Fatalf("end point = %+v, want drift to (10, 0)", last)
	}
}

func TestReplaySplitsOnStyleChange(t *testing.T) {
	layers := []domain.Layer{{ID: "l", Name: "L", Visible: true}}
	strokes := []domain.Stroke{
		stroke("a", "l", "#ff0000", 1, 0, 0, 100, 0),
		stroke("b", "l", "#0000ff", 1, 0, 10, 100, 10),
	}
	tr := Replay(Build(strokes, layers, opts()))
	if len(tr.Paths) != 2 {
		t.Fatalf("paths = %d, want 2", len(tr.Paths))
	}
	if tr.Paths[1].Style.Color != (vector.Color{B: 255, A: 255}) {
		t.Fatalf("second path color = %+v", tr.Paths[1].Style.Color)
	}
}

func TestReplayEmptyProgram(t *testing.T) {
	tr := Replay(Build(nil, nil, opts()))
	if len(tr.Paths) != 0 {
		t.Fatalf("empty program drew %d paths", len(tr.Paths))
	}
}
