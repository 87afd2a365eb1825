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
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pysketch/internal/config"
	"pysketch/internal/crash"
	applog "pysketch/internal/log"
	"pysketch/internal/storage"
	"pysketch/internal/version"
)

// keepSnapshots bounds the per-project history kept in the index.
const keepSnapshots = 50

func usage(w io.Writer) {
	fmt.Fprintln(w, "PySketch: compile freehand sketches into Python turtle programs")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pysketch version                                   Show version")
	fmt.Fprintln(w, "  pysketch init <dir> [name]                         Create a new project")
	fmt.Fprintln(w, "  pysketch list [workspace]                          List projects below a folder")
	fmt.Fprintln(w, "  pysketch info <dir>                                Print project summary")
	fmt.Fprintln(w, "  pysketch copy <dir> <newDir> [name]                Save a copy as a new project")
	fmt.Fprintln(w, "  pysketch layer add <dir> [name]                    Add a layer on top")
	fmt.Fprintln(w, "  pysketch layer rename <dir> <layer> <name>         Rename a layer")
	fmt.Fprintln(w, "  pysketch layer hide|show|toggle <dir> <layer>      Change layer visibility")
	fmt.Fprintln(w, "  pysketch layer move <dir> <layer> <position>       Move a layer (1 = bottom)")
	fmt.Fprintln(w, "  pysketch layer delete <dir> <layer>                Delete a layer and its strokes")
	fmt.Fprintln(w, "  pysketch layer clear <dir> [layer]                 Remove strokes (all layers if omitted)")
	fmt.Fprintln(w, "  pysketch stroke import <dir> <layer> <points.json|-> [--color #hex] [--width N]")
	fmt.Fprintln(w, "  pysketch stroke erase <dir> <strokeId> | --at X,Y  Erase a stroke")
	fmt.Fprintln(w, "  pysketch set <dir> speed <0-10> | background <#hex>")
	fmt.Fprintln(w, "  pysketch compile <dir> [-o file.py] [--copy] [--tolerance N] [--stdout]")
	fmt.Fprintln(w, "  pysketch export svg|pdf|png <dir> [out] [--scale N] [--tolerance N]")
	fmt.Fprintln(w, "  pysketch history <dir> [--limit N] [--restore ID]")
	fmt.Fprintln(w, "  pysketch push <dir>                                Archive the project on the backend")
	fmt.Fprintln(w, "  pysketch pull <dir> [--id ID]                      Fetch an archived project")
	fmt.Fprintln(w, "  pysketch logout                                    Forget the stored backend token")
	fmt.Fprintln(w, "  pysketch serve [--addr :8080] [--memory]           Run the archive server")
	fmt.Fprintln(w, "  pysketch config                                    Show the effective configuration")
	fmt.Fprintln(w, "  pysketch schema                                    Print the project manifest JSON schema")
	fmt.Fprintln(w, "  pysketch ui [dir]                                  Open the preview window (build with -tags fyne)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "<layer> is a layer id, its 1-based position from the bottom, or its name.")
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error { return usageError{msg: fmt.Sprintf(format, args...)} }

type cli struct {
	out    io.Writer
	errOut io.Writer
	cfg    config.AppConfig
	token  string
	l      *slog.Logger
	ph     *storage.ProjectHandle
	now    func() time.Time
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, token, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Defaults()
	}
	applog.Init(applog.Resolve(cfg.LogOptions()))
	c := &cli{out: stdout, errOut: stderr, cfg: cfg, token: token, l: applog.WithComponent("cli"), now: time.Now}
	defer crash.RecoverWith(func() *storage.ProjectHandle { return c.ph })
	if cfgErr != nil {
		c.l.Warn("config unavailable, using defaults", slog.Any("err", cfgErr))
	}
	c.l.Debug("start", slog.Int("args", len(args)))
	return c.dispatch(args)
}

func (c *cli) dispatch(args []string) int {
	if len(args) == 0 {
		usage(c.errOut)
		return 2
	}
	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "version", "--version", "-v":
		fmt.Fprintf(c.out, "PySketch %s\n", version.String())
		return 0
	case "help", "--help", "-h":
		usage(c.out)
		return 0
	case "init":
		err = c.cmdInit(rest)
	case "list":
		err = c.cmdList(rest)
	case "info":
		err = c.cmdInfo(rest)
	case "layer":
		err = c.cmdLayer(rest)
	case "stroke":
		err = c.cmdStroke(rest)
	case "set":
		err = c.cmdSet(rest)
	case "compile":
		err = c.cmdCompile(rest)
	case "export":
		err = c.cmdExport(rest)
	case "history":
		err = c.cmdHistory(rest)
	case "push":
		err = c.cmdPush(rest)
	case "pull":
		err = c.cmdPull(rest)
	case "serve":
		err = c.cmdServe(rest)
	case "ui":
		err = c.cmdUI(rest)
	case "copy":
		err = c.cmdCopy(rest)
	case "logout":
		err = c.cmdLogout(rest)
	case "config":
		err = c.cmdConfig(rest)
	case "schema":
		err = c.cmdSchema(rest)
	default:
		err = usagef("unknown command %q", cmd)
	}
	return c.exitCode(cmd, err)
}

func (c *cli) exitCode(cmd string, err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(c.errOut, "Error:", err)
		fmt.Fprintln(c.errOut, "Run 'pysketch help' for usage.")
		return 2
	}
	c.l.Error("command failed", slog.String("cmd", cmd), slog.Any("err", err))
	fmt.Fprintln(c.errOut, "Error:", err)
	return 1
}

// parseArgs parses flags that may appear before, between or after the
// positional arguments and returns the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, usageError{msg: err.Error()}
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func isSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// open loads the project at dir and remembers it for crash recovery.
func (c *cli) open(dir string) (*storage.ProjectHandle, error) {
	abs, _ := filepath.Abs(dir)
	c.l.Debug("open project", slog.String("root", abs))
	ph, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	c.ph = ph
	return ph, nil
}

// commit saves the project, then records a history snapshot and refreshes
// the index. Only the save is fatal.
func (c *cli) commit(ph *storage.ProjectHandle, what string) error {
	if err := storage.Save(ph); err != nil {
		return err
	}
	l := applog.WithProject(c.l, ph.Root)
	ctx := applog.ContextWithProject(context.Background(), ph.Root)
	if err := storage.SnapshotProject(ctx, ph); err != nil {
		l.Warn("snapshot failed", slog.Any("err", err))
	} else if _, err := storage.PruneOldSnapshots(ctx, ph, keepSnapshots); err != nil {
		l.Warn("prune snapshots failed", slog.Any("err", err))
	}
	if err := storage.RebuildIndex(ctx, ph.Root, ph.Project, c.cfg.Compile.Tolerance()); err != nil {
		l.Warn("index rebuild failed", slog.Any("err", err))
	}
	l.Info("project saved", slog.String("change", what))
	return nil
}

func (c *cli) cmdInit(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usagef("init requires <dir> and an optional [name]")
	}
	abs, _ := filepath.Abs(args[0])
	name := ""
	if len(args) == 2 {
		name = args[1]
	}
	ph, err := storage.InitProject(abs, name)
	if err != nil {
		return err
	}
	c.ph = ph
	c.l.Info("init project", slog.String("root", abs), slog.String("name", ph.Project.Name))
	fmt.Fprintf(c.out, "Created project %q at %s\n", ph.Project.Name, abs)
	return nil
}

func (c *cli) cmdUI(args []string) error {
	if len(args) > 1 {
		return usagef("ui takes at most one [dir]")
	}
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}
	return runUI(dir)
}

func atoiArg(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usagef("%s must be an integer, got %q", name, v)
	}
	return n, nil
}
