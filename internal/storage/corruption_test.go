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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDetectAndRebuildIndex_OnCorruption(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "CorruptTest")
	if err != nil || ph == nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if _, err := AddStroke(&ph.Project, ph.Project.Layers[0].ID, samplePoints(), "#ffffff", 2); err != nil {
		t.Fatalf("AddStroke: %v", err)
	}
	idx := IndexPath(root)
	if err := os.WriteFile(idx, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	_ = os.Remove(idx + "-wal")
	_ = os.Remove(idx + "-shm")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rebuilt, err := DetectAndRebuildIndex(ctx, root, ph.Project, 2)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	stats, err := LayerStats(ctx, root)
	if err != nil || len(stats) != 1 || stats[0].Strokes != 1 {
		t.Fatalf("rebuilt index content unexpected: %+v err=%v", stats, err)
	}
	bdir := filepath.Join(root, IndexDirName, "backups")
	entries, _ := os.ReadDir(bdir)
	if len(entries) == 0 {
		t.Fatalf("expected backup file in %s", bdir)
	}
}

func TestDetectAndRebuildIndex_HealthyIsNoop(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "Healthy")
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(context.Background(), root, ph.Project, 2)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if rebuilt {
		t.Fatalf("healthy index should not be rebuilt")
	}
}
