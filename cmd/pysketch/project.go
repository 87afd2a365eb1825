/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"pysketch/internal/domain"
	applog "pysketch/internal/log"
	"pysketch/internal/simplify"
	"pysketch/internal/storage"
	"pysketch/internal/ui"
)

var runUI = ui.Run

func (c *cli) cmdList(args []string) error {
	if len(args) > 1 {
		return usagef("list takes at most one [workspace]")
	}
	ws := "."
	if len(args) == 1 {
		ws = args[0]
	}
	list, err := storage.ListProjects(ws)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintf(c.out, "No projects found in %s\n", ws)
		return nil
	}
	now := c.now()
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLAYERS\tSTROKES\tMODIFIED\tPATH")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", p.Name, p.Layers, p.Strokes, storage.FormatAge(p.LastModified, now), p.Root)
	}
	return tw.Flush()
}

func (c *cli) cmdInfo(args []string) error {
	if len(args) != 1 {
		return usagef("info requires <dir>")
	}
	ph, err := c.open(args[0])
	if err != nil {
		return err
	}
	p := ph.Project
	ctx := context.Background()
	if rebuilt, err := storage.DetectAndRebuildIndex(ctx, ph.Root, p, c.cfg.Compile.Tolerance()); err != nil {
		c.l.Warn("index check failed", slog.Any("err", err))
	} else if rebuilt {
		c.l.Info("index rebuilt", slog.String("root", ph.Root))
	}
	tolerance, err := storage.IndexMeta(ctx, ph.Root, "tolerance")
	if err != nil {
		c.l.Warn("read index meta failed", slog.Any("err", err))
	}
	simplified := map[string]int{}
	if stats, err := storage.LayerStats(ctx, ph.Root); err == nil {
		for _, s := range stats {
			simplified[s.ID] = s.SimplifiedPoints
		}
	}

	fmt.Fprintf(c.out, "Project:    %s\n", p.Name)
	fmt.Fprintf(c.out, "ID:         %s\n", p.ID)
	fmt.Fprintf(c.out, "Root:       %s\n", ph.Root)
	fmt.Fprintf(c.out, "Modified:   %s\n", storage.FormatAge(p.LastModified, c.now()))
	fmt.Fprintf(c.out, "Speed:      %d\n", p.Settings.Speed)
	fmt.Fprintf(c.out, "Background: %s\n", p.Settings.BackgroundColor)
	fmt.Fprintf(c.out, "Layers:     %d (top first)\n", len(p.Layers))
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAME\tVISIBLE\tSTROKES\tPOINTS\tSIMPLIFIED\tKEPT\tID")
	for i := len(p.Layers) - 1; i >= 0; i-- {
		ly := p.Layers[i]
		strokes := domain.StrokesForLayer(p.Strokes, ly.ID)
		vis := "yes"
		if !ly.Visible {
			vis = "no"
		}
		points := domain.PointCount(strokes)
		kept := 100 * simplify.Ratio(points, simplified[ly.ID])
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%d\t%d\t%d\t%.0f%%\t%s\n", i+1, ly.Name, vis, len(strokes), points, simplified[ly.ID], kept, ly.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if tolerance != "" {
		fmt.Fprintf(c.out, "Simplified at tolerance %s\n", tolerance)
	}
	if snap, err := storage.GetLatestSnapshot(ctx, ph); err == nil && snap != nil {
		fmt.Fprintf(c.out, "Last snapshot: #%d, %s\n", snap.ID, storage.FormatAge(snap.TS.UnixMilli(), c.now()))
	}
	if rec, err := storage.LatestProgram(ctx, ph); err == nil && rec != nil {
		fmt.Fprintf(c.out, "Last compile: %s, %d lines, tolerance %g, digest %.12s\n",
			storage.FormatAge(rec.TS.UnixMilli(), c.now()), rec.Lines, rec.Tolerance, rec.Digest)
	}
	return nil
}

func (c *cli) cmdLayer(args []string) error {
	if len(args) < 2 {
		return usagef("layer requires a subcommand and <dir>")
	}
	sub, dir, rest := args[0], args[1], args[2:]
	need := map[string]int{"add": -1, "rename": 2, "hide": 1, "show": 1, "toggle": 1, "move": 2, "delete": 1, "clear": -1}
	n, ok := need[sub]
	if !ok {
		return usagef("unknown layer subcommand %q", sub)
	}
	if n >= 0 && len(rest) != n {
		return usagef("layer %s expects %d argument(s) after <dir>", sub, n)
	}
	if n < 0 && len(rest) > 1 {
		return usagef("layer %s takes at most one argument after <dir>", sub)
	}

	ph, err := c.open(dir)
	if err != nil {
		return err
	}
	p := &ph.Project
	layer := func(ref string) (domain.Layer, error) {
		i, err := storage.ResolveLayer(p, ref)
		if err != nil {
			return domain.Layer{}, err
		}
		return p.Layers[i], nil
	}

	var msg string
	switch sub {
	case "add":
		name := ""
		if len(rest) == 1 {
			name = rest[0]
		}
		ly := storage.AddLayer(p, name)
		msg = fmt.Sprintf("Added layer %q (%s)", ly.Name, ly.ID)
	case "rename":
		ly, err := layer(rest[0])
		if err != nil {
			return err
		}
		if err := storage.RenameLayer(p, ly.ID, rest[1]); err != nil {
			return err
		}
		msg = fmt.Sprintf("Renamed layer %q to %q", ly.Name, rest[1])
	case "hide", "show":
		ly, err := layer(rest[0])
		if err != nil {
			return err
		}
		if err := storage.SetLayerVisible(p, ly.ID, sub == "show"); err != nil {
			return err
		}
		msg = fmt.Sprintf("Layer %q is now %s", ly.Name, map[bool]string{true: "visible", false: "hidden"}[sub == "show"])
	case "toggle":
		ly, err := layer(rest[0])
		if err != nil {
			return err
		}
		vis, err := storage.ToggleLayer(p, ly.ID)
		if err != nil {
			return err
		}
		msg = fmt.Sprintf("Layer %q is now %s", ly.Name, map[bool]string{true: "visible", false: "hidden"}[vis])
	case "move":
		ly, err := layer(rest[0])
		if err != nil {
			return err
		}
		pos, err := atoiArg("position", rest[1])
		if err != nil {
			return err
		}
		if err := storage.MoveLayer(p, ly.ID, pos-1); err != nil {
			return err
		}
		msg = fmt.Sprintf("Moved layer %q to position %d", ly.Name, p.LayerByID(ly.ID)+1)
	case "delete":
		ly, err := layer(rest[0])
		if err != nil {
			return err
		}
		removed, err := storage.DeleteLayer(p, ly.ID)
		if err != nil {
			return err
		}
		msg = fmt.Sprintf("Deleted layer %q and %d stroke(s)", ly.Name, removed)
	case "clear":
		if len(rest) == 0 {
			msg = fmt.Sprintf("Cleared %d stroke(s) from all layers", storage.ClearAll(p))
			break
		}
		ly, err := layer(rest[0])
		if err != nil {
			return err
		}
		removed, err := storage.ClearLayer(p, ly.ID)
		if err != nil {
			return err
		}
		msg = fmt.Sprintf("Cleared %d stroke(s) from layer %q", removed, ly.Name)
	}
	if err := c.commit(ph, "layer "+sub); err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func (c *cli) cmdStroke(args []string) error {
	if len(args) < 1 {
		return usagef("stroke requires a subcommand")
	}
	switch args[0] {
	case "import":
		return c.strokeImport(args[1:])
	case "erase":
		return c.strokeErase(args[1:])
	default:
		return usagef("unknown stroke subcommand %q", args[0])
	}
}

func (c *cli) strokeImport(args []string) error {
	fs := c.flags("stroke import")
	color := fs.String("color", domain.DefaultStrokeColor, "stroke color as #RRGGBB")
	width := fs.Float64("width", domain.DefaultStrokeWidth, "pen width in pixels")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 3 {
		return usagef("stroke import requires <dir> <layer> <points.json|->")
	}
	ph, err := c.open(pos[0])
	if err != nil {
		return err
	}
	i, err := storage.ResolveLayer(&ph.Project, pos[1])
	if err != nil {
		return err
	}
	var data []byte
	if pos[2] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(pos[2])
	}
	if err != nil {
		return fmt.Errorf("read points: %w", err)
	}
	pts, err := parsePoints(data)
	if err != nil {
		return err
	}
	s, err := storage.AddStroke(&ph.Project, ph.Project.Layers[i].ID, pts, *color, *width)
	if err != nil {
		return err
	}
	if err := c.commit(ph, "stroke import"); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Added stroke %s with %d points to layer %q\n", s.ID, len(s.Points), ph.Project.Layers[i].Name)
	return nil
}

// parsePoints accepts [{"x":1,"y":2},...] or [[1,2],...].
func parsePoints(data []byte) ([]domain.Point, error) {
	var pts []domain.Point
	if err := json.Unmarshal(data, &pts); err == nil {
		return pts, nil
	}
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("points must be a JSON array of {\"x\",\"y\"} objects or [x,y] pairs: %w", err)
	}
	pts = make([]domain.Point, len(pairs))
	for i, xy := range pairs {
		pts[i] = domain.Point{X: xy[0], Y: xy[1]}
	}
	return pts, nil
}

func (c *cli) strokeErase(args []string) error {
	fs := c.flags("stroke erase")
	at := fs.String("at", "", "erase the topmost stroke near canvas point X,Y")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 1 || (len(pos) == 2) == (*at != "") || len(pos) > 2 {
		return usagef("stroke erase requires <dir> and either <strokeId> or --at X,Y")
	}
	ph, err := c.open(pos[0])
	if err != nil {
		return err
	}
	var id string
	if *at != "" {
		pt, err := parsePoint(*at)
		if err != nil {
			return err
		}
		var ok bool
		if id, ok = storage.EraseAt(&ph.Project, pt); !ok {
			fmt.Fprintf(c.out, "No visible stroke within %g px of %s\n", storage.EraseThreshold, *at)
			return nil
		}
	} else {
		id = pos[1]
		if err := storage.EraseStroke(&ph.Project, id); err != nil {
			return err
		}
	}
	if err := c.commit(ph, "stroke erase"); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Erased stroke %s\n", id)
	return nil
}

func parsePoint(s string) (domain.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Point{}, usagef("point must be X,Y, got %q", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return domain.Point{}, usagef("point must be X,Y, got %q", s)
	}
	return domain.Point{X: x, Y: y}, nil
}

func (c *cli) cmdSet(args []string) error {
	if len(args) != 3 {
		return usagef("set requires <dir> speed|background <value>")
	}
	key, val := args[1], args[2]
	if key != "speed" && key != "background" {
		return usagef("unknown setting %q", key)
	}
	ph, err := c.open(args[0])
	if err != nil {
		return err
	}
	var msg string
	switch key {
	case "speed":
		n, err := atoiArg("speed", val)
		if err != nil {
			return err
		}
		msg = fmt.Sprintf("Speed set to %d", storage.SetSpeed(&ph.Project, n))
	case "background":
		if err := storage.SetBackground(&ph.Project, val); err != nil {
			return err
		}
		msg = fmt.Sprintf("Background set to %s", ph.Project.Settings.BackgroundColor)
	}
	if err := c.commit(ph, "set "+key); err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func (c *cli) cmdHistory(args []string) error {
	fs := c.flags("history")
	limit := fs.Int("limit", 10, "number of snapshots to show")
	restore := fs.Int64("restore", 0, "restore the snapshot with this id")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usagef("history requires <dir>")
	}
	ph, err := c.open(pos[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	if *restore > 0 {
		p, err := storage.LoadSnapshot(ctx, ph, *restore)
		if err != nil {
			return err
		}
		ph.Project = p
		if err := c.commit(ph, "restore snapshot"); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Restored snapshot %d (%d layers, %d strokes)\n", *restore, len(p.Layers), len(p.Strokes))
		return nil
	}
	snaps, err := storage.ListSnapshots(ctx, ph, *limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(c.out, "No snapshots yet.")
	} else {
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tWHEN\tLAYERS\tSTROKES")
		for _, s := range snaps {
			var p domain.Project
			layers, strokes := "?", "?"
			if json.Unmarshal(s.Blob, &p) == nil {
				layers, strokes = strconv.Itoa(len(p.Layers)), strconv.Itoa(len(p.Strokes))
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, storage.FormatAge(s.TS.UnixMilli(), c.now()), layers, strokes)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if rec, err := storage.LatestProgram(ctx, ph); err == nil && rec != nil {
		fmt.Fprintf(c.out, "Last compile: %s, %d lines, digest %.12s\n", storage.FormatAge(rec.TS.UnixMilli(), c.now()), rec.Lines, rec.Digest)
	}
	return nil
}

// cmdCopy saves the project under a new folder as an independent project
// with a fresh id.
func (c *cli) cmdCopy(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usagef("copy requires <dir> <newDir> and an optional [name]")
	}
	ph, err := c.open(args[0])
	if err != nil {
		return err
	}
	dst, _ := filepath.Abs(args[1])
	if _, err := os.Stat(filepath.Join(dst, storage.ManifestFileName)); err == nil {
		return fmt.Errorf("project already exists at %s", dst)
	}
	ph.Project.ID = uuid.NewString()
	ph.Project.Name += " (copy)"
	if len(args) == 3 {
		ph.Project.Name = args[2]
	}
	if err := storage.SaveAs(ph, dst); err != nil {
		return err
	}
	ctx := applog.ContextWithProject(context.Background(), ph.Root)
	if err := storage.RebuildIndex(ctx, ph.Root, ph.Project, c.cfg.Compile.Tolerance()); err != nil {
		c.l.Warn("index rebuild failed", slog.Any("err", err))
	}
	fmt.Fprintf(c.out, "Copied %q to %s\n", ph.Project.Name, ph.Root)
	return nil
}
