/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProgramFileName(t *testing.T) {
	cases := map[string]string{
		"":              "drawing.py",
		"  ":            "drawing.py",
		"flower":        "flower.py",
		"flower.py":     "flower.py",
		"notes.txt":     "notes.txt",
		"../etc/passwd": "passwd.py",
		"dir/sketch.py": "sketch.py",
		" spaced name ": "spaced name.py",
	}
	for in, want := range cases {
		if got := ProgramFileName(in); got != want {
			t.Fatalf("ProgramFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteProgram_WritesExactText(t *testing.T) {
	dir := t.TempDir()
	code := "import turtle\n\nturtle.done()"
	out, err := WriteProgram(code, dir, "")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if out != filepath.Join(dir, "drawing.py") {
		t.Fatalf("unexpected path %s", out)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != code {
		t.Fatalf("content mismatch: %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the program file, got %d entries", len(entries))
	}
}

func TestWriteProgram_CreatesDirAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if _, err := WriteProgram("first", dir, "x"); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := WriteProgram("second", dir, "x")
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, _ := os.ReadFile(out)
	if string(b) != "second" {
		t.Fatalf("expected overwritten content, got %q", b)
	}
}
