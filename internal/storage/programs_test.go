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
	"testing"
	"time"
)

func TestRecordProgramTracksDigest(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, "Programs")
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	ctx := context.Background()
	if r, err := LatestProgram(ctx, ph); err != nil || r != nil {
		t.Fatalf("expected empty history, got %+v err %v", r, err)
	}
	code := "import turtle\n\nturtle.done()"
	t0 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	rec, changed, err := RecordProgram(ctx, ph, code, 2, t0)
	if err != nil {
		t.Fatalf("RecordProgram: %v", err)
	}
	if !changed || rec.Lines != 3 || rec.Digest != ProgramDigest(code) || rec.ID == 0 {
		t.Fatalf("unexpected first record %+v changed=%v", rec, changed)
	}
	_, changed, err = RecordProgram(ctx, ph, code, 2, t0.Add(time.Second))
	if err != nil || changed {
		t.Fatalf("identical program should not be reported as changed (err=%v)", err)
	}
	_, changed, err = RecordProgram(ctx, ph, code+"\n", 0.5, t0.Add(2*time.Second))
	if err != nil || !changed {
		t.Fatalf("different program should be reported as changed (err=%v)", err)
	}
	latest, err := LatestProgram(ctx, ph)
	if err != nil || latest == nil {
		t.Fatalf("LatestProgram: %+v %v", latest, err)
	}
	if latest.Tolerance != 0.5 || latest.Code != code+"\n" || !latest.TS.Equal(t0.Add(2*time.Second)) {
		t.Fatalf("unexpected latest %+v", latest)
	}
	if len(ProgramDigest("")) != 64 {
		t.Fatalf("digest should be hex sha256")
	}
}
