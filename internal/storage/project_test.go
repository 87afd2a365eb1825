/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pysketch/internal/domain"
)

func TestInitProjectCreatesStructureAndManifest(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "Test Project")
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if ph == nil {
		t.Fatalf("InitProject returned nil handle")
	}
	b, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.HasSuffix(string(b), "}\n") {
		t.Fatalf("manifest should end with a newline")
	}
	var got domain.Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if got.Name != "Test Project" || got.ID == "" {
		t.Fatalf("unexpected manifest header: %+v", got)
	}
	if len(got.Layers) != 1 || got.Layers[0].Name != domain.DefaultLayerName || !got.Layers[0].Visible {
		t.Fatalf("expected one visible default layer, got %+v", got.Layers)
	}
	if got.Settings.Speed != domain.DefaultSpeed || got.Settings.BackgroundColor != domain.DefaultBackground {
		t.Fatalf("unexpected settings: %+v", got.Settings)
	}
	if got.LastModified == 0 {
		t.Fatalf("lastModified not set")
	}
	if got.Strokes == nil {
		t.Fatalf("strokes should be an empty array, not null")
	}
	for _, d := range []string{ExportsDirName, BackupsDirName} {
		p := filepath.Join(root, d)
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", p)
		}
	}
}

func TestInitProjectDefaultsNameAndRefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "  ")
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if ph.Project.Name != domain.DefaultProjectName {
		t.Fatalf("expected default name, got %q", ph.Project.Name)
	}
	if _, err := InitProject(root, "Again"); err == nil {
		t.Fatalf("expected error when a manifest already exists")
	}
	if _, err := InitProject("", "x"); err == nil {
		t.Fatalf("expected error for empty root")
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "Backup Test")
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ph.Project.Name = "changed"
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	var bakCount int
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			bakCount++
		}
	}
	if bakCount == 0 {
		t.Fatalf("expected at least one backup file, found 0")
	}
}

func TestSaveBumpsLastModified(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "Clock")
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ph.Project.LastModified = 1
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if ph.Project.LastModified <= 1 {
		t.Fatalf("expected LastModified to be bumped, got %d", ph.Project.LastModified)
	}
}

func TestOpenRoundTripsStrokes(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "Round Trip")
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	layer := ph.Project.Layers[0].ID
	pts := []domain.Point{{X: 1.5, Y: 2}, {X: 10, Y: 20.25}}
	if _, err := AddStroke(&ph.Project, layer, pts, "#ff0000", 4); err != nil {
		t.Fatalf("AddStroke: %v", err)
	}
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	opened, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if len(opened.Project.Strokes) != 1 {
		t.Fatalf("expected 1 stroke, got %d", len(opened.Project.Strokes))
	}
	s := opened.Project.Strokes[0]
	if s.LayerID != layer || s.Color != "#ff0000" || s.Width != 4 || len(s.Points) != 2 || s.Points[1] != pts[1] {
		t.Fatalf("stroke did not round-trip: %+v", s)
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "Open From Backup")
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(ph.ManifestPath, []byte("{ this is not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}
	opened, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if opened.Project.Name != "Open From Backup" {
		t.Fatalf("opened project name mismatch: got %q", opened.Project.Name)
	}
}

func TestOpenFallsBackOnSchemaViolation(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "Schema Fallback")
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	// Valid JSON, wrong shape.
	if err := os.WriteFile(ph.ManifestPath, []byte(`{"name": 42}`), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	opened, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if opened.Project.Name != "Schema Fallback" {
		t.Fatalf("expected backup content, got %q", opened.Project.Name)
	}
}

func TestOpenFailsWithoutManifestOrBackups(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "Crash Snapshot")
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ph.Project.Name = "unsaved edit"
	path, err := AutosaveCrashSnapshot(ph)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got domain.Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if got.Name != "unsaved edit" {
		t.Fatalf("snapshot content mismatch: got %q", got.Name)
	}
	// The manifest itself is untouched.
	opened, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if opened.Project.Name != "Crash Snapshot" {
		t.Fatalf("manifest should be unchanged, got %q", opened.Project.Name)
	}
}
