/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSnapshotsCRUD(t *testing.T) {
	root := t.TempDir()
	ph := &ProjectHandle{Root: root, ManifestPath: filepath.Join(root, ManifestFileName)}
	ctx := context.Background()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("db.Close error: %v", err)
	}
	if s, err := GetLatestSnapshot(ctx, ph); err != nil || s != nil {
		t.Fatalf("expected no snapshot, got %+v err %v", s, err)
	}
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if err := SaveSnapshot(ctx, ph, []byte("hello"), base); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	s, err := GetLatestSnapshot(ctx, ph)
	if err != nil || s == nil || string(s.Blob) != "hello" || !s.TS.Equal(base) {
		t.Fatalf("GetLatestSnapshot got %+v err %v", s, err)
	}
	for i := 0; i < 5; i++ {
		b := []byte{byte('a' + i)}
		if err := SaveSnapshot(ctx, ph, b, base.Add(time.Duration(i+1)*time.Millisecond)); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}
	list, err := ListSnapshots(ctx, ph, 10)
	if err != nil || len(list) != 6 {
		t.Fatalf("ListSnapshots got %d err %v", len(list), err)
	}
	if string(list[0].Blob) != "e" {
		t.Fatalf("expected newest first, got %q", list[0].Blob)
	}
	n, err := PruneOldSnapshots(ctx, ph, 3)
	if err != nil {
		t.Fatalf("PruneOldSnapshots: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deletions, got %d", n)
	}
	list, err = ListSnapshots(ctx, ph, 10)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListSnapshots after prune got %d err %v", len(list), err)
	}
}

func TestSnapshotProjectAndLoad(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "History")
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	ctx := context.Background()
	if err := SnapshotProject(ctx, ph); err != nil {
		t.Fatalf("SnapshotProject: %v", err)
	}
	latest, err := GetLatestSnapshot(ctx, ph)
	if err != nil || latest == nil {
		t.Fatalf("GetLatestSnapshot: %+v %v", latest, err)
	}
	ph.Project.Name = "Changed"
	p, err := LoadSnapshot(ctx, ph, latest.ID)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if p.Name != "History" || p.ID != ph.Project.ID {
		t.Fatalf("unexpected snapshot project %+v", p)
	}
	if _, err := LoadSnapshot(ctx, ph, latest.ID+100); err == nil {
		t.Fatalf("expected error for unknown snapshot")
	}
}
