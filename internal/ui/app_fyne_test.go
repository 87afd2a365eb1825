//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests exercise the Fyne-only helpers. They are gated behind the
// "fyne" build tag so headless CI does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"

	"pysketch/internal/storage"
)

func TestRecentProjects_DedupAndFilter(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	prefs := a.Preferences()

	p1, err := storage.InitProject(t.TempDir(), "One")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	p2, err := storage.InitProject(t.TempDir(), "Two")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	notProject := t.TempDir()

	addRecentProject(prefs, p1.Root)
	addRecentProject(prefs, p2.Root)
	addRecentProject(prefs, notProject)
	addRecentProject(prefs, p1.Root)

	got := loadRecentProjects(prefs)
	if len(got) != 2 {
		t.Fatalf("expected 2 recent projects, got %v", got)
	}
	abs1, _ := filepath.Abs(p1.Root)
	if got[0] != abs1 {
		t.Fatalf("most recent should be first: %v", got)
	}

	if err := os.Remove(p2.ManifestPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := loadRecentProjects(prefs); len(got) != 1 {
		t.Fatalf("vanished project should be filtered: %v", got)
	}
}

func TestRecentProjects_Capped(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	prefs := a.Preferences()
	for i := 0; i < recentMax+3; i++ {
		ph, err := storage.InitProject(t.TempDir(), "P")
		if err != nil {
			t.Fatalf("init: %v", err)
		}
		addRecentProject(prefs, ph.Root)
	}
	if got := loadRecentProjects(prefs); len(got) != recentMax {
		t.Fatalf("expected %d entries, got %d", recentMax, len(got))
	}
}
