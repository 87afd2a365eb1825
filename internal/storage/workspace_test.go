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
	"testing"
	"time"
)

func TestListProjectsNewestFirst(t *testing.T) {
	ws := t.TempDir()
	a, err := InitProject(filepath.Join(ws, "a"), "Alpha")
	if err != nil {
		t.Fatalf("InitProject a: %v", err)
	}
	b, err := InitProject(filepath.Join(ws, "b"), "Beta")
	if err != nil {
		t.Fatalf("InitProject b: %v", err)
	}
	// Make Alpha the newest by rewriting its timestamp directly; Save would stamp the clock.
	a.Project.LastModified = b.Project.LastModified + 1000
	data, err := json.Marshal(a.Project)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(a.ManifestPath, data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	// Noise: a plain file and a directory without a manifest.
	_ = os.WriteFile(filepath.Join(ws, "notes.txt"), []byte("x"), 0o644)
	_ = os.MkdirAll(filepath.Join(ws, "empty"), 0o755)
	// A broken manifest is skipped.
	_ = os.MkdirAll(filepath.Join(ws, "broken"), 0o755)
	_ = os.WriteFile(filepath.Join(ws, "broken", ManifestFileName), []byte("{"), 0o644)

	list, err := ListProjects(ws)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 projects, got %d: %+v", len(list), list)
	}
	if list[0].Name != "Alpha" || list[1].Name != "Beta" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[0].Layers != 1 || list[0].Strokes != 0 || list[0].ID != a.Project.ID {
		t.Fatalf("unexpected summary %+v", list[0])
	}
	if _, err := ListProjects(filepath.Join(ws, "missing")); err == nil {
		t.Fatalf("expected error for missing workspace")
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ms := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }
	cases := []struct {
		ts   int64
		want string
	}{
		{ms(30 * time.Second), "Just now"},
		{ms(-5 * time.Minute), "Just now"},
		{ms(1 * time.Minute), "1 min ago"},
		{ms(59 * time.Minute), "59 min ago"},
		{ms(1 * time.Hour), "1 hour ago"},
		{ms(5 * time.Hour), "5 hours ago"},
		{ms(24 * time.Hour), "1 day ago"},
		{ms(6 * 24 * time.Hour), "6 days ago"},
		{ms(10 * 24 * time.Hour), "Jun 5"},
		{time.Date(2023, 12, 25, 9, 0, 0, 0, time.UTC).UnixMilli(), "Dec 25, 2023"},
	}
	for _, c := range cases {
		if got := FormatAge(c.ts, now); got != c.want {
			t.Fatalf("FormatAge(%d) = %q, want %q", c.ts, got, c.want)
		}
	}
}
