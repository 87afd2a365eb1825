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
	"fmt"
	"log/slog"
	"path/filepath"

	"pysketch/internal/export"
	"pysketch/internal/storage"
	"pysketch/internal/turtle"
)

var copyToClipboard = export.CopyToClipboard

func (c *cli) cmdCompile(args []string) error {
	fs := c.flags("compile")
	out := fs.String("o", "", "write the program to this file (default <dir>/exports/"+export.DefaultProgramName+")")
	toStdout := fs.Bool("stdout", false, "print the program instead of writing a file")
	copyCode := fs.Bool("copy", false, "also copy the program to the clipboard")
	tol := fs.Float64("tolerance", 0, "simplification tolerance in pixels")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usagef("compile requires <dir>")
	}
	ph, err := c.open(pos[0])
	if err != nil {
		return err
	}
	opts := c.cfg.CompileOptions()
	if isSet(fs, "tolerance") {
		opts = opts.WithTolerance(*tol)
	}
	prog := turtle.Build(ph.Project.Strokes, ph.Project.Layers, opts.ForProject(ph.Project))
	code := prog.String()
	sum := prog.Summarize()

	ctx := context.Background()
	rec, changed, err := storage.RecordProgram(ctx, ph, code, opts.Tolerance(), c.now())
	if err != nil {
		c.l.Warn("record program failed", slog.Any("err", err))
	}

	if *toStdout {
		fmt.Fprint(c.out, code)
	} else {
		dir, name := ph.ExportsDir(), c.cfg.Compile.OutputName
		if *out != "" {
			abs, _ := filepath.Abs(*out)
			dir, name = filepath.Dir(abs), filepath.Base(abs)
		}
		path, err := export.WriteProgram(code, dir, name)
		if err != nil {
			return err
		}
		note := ""
		if rec.ID != 0 && !changed {
			note = ", unchanged since last compile"
		}
		fmt.Fprintf(c.out, "Wrote %s (%d lines, %d strokes, %d segments%s)\n", path, sum.Lines, sum.Strokes, sum.Segments, note)
	}

	if *copyCode {
		if copyToClipboard(code) {
			fmt.Fprintln(c.errOut, "Copied program to clipboard.")
		} else {
			fmt.Fprintln(c.errOut, "Warning: could not copy to clipboard (no clipboard tool found).")
		}
	}
	return nil
}

func (c *cli) cmdExport(args []string) error {
	fs := c.flags("export")
	scale := fs.Float64("scale", export.DefaultPreviewOptions().Scale, "raster scale for png")
	tol := fs.Float64("tolerance", 0, "simplification tolerance in pixels")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 2 || len(pos) > 3 {
		return usagef("export requires svg|pdf|png <dir> [out]")
	}
	format := pos[0]
	if format != "svg" && format != "pdf" && format != "png" {
		return usagef("unknown export format %q", format)
	}
	ph, err := c.open(pos[1])
	if err != nil {
		return err
	}
	out := ""
	if len(pos) == 3 {
		out, _ = filepath.Abs(pos[2])
	}
	opt := export.DefaultPreviewOptions()
	opt.Options = c.cfg.CompileOptions()
	opt.Scale = *scale
	if isSet(fs, "tolerance") {
		opt.Options = opt.WithTolerance(*tol)
	}
	path, err := export.Export(ph, format, out, opt)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Exported %s\n", path)
	return nil
}
