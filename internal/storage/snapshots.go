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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pysketch/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(ts, blob) VALUES (?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT id, ts, blob FROM snapshots ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const selectSnapshotSQL = `SELECT id, ts, blob FROM snapshots WHERE id = ?`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT id, ts, blob FROM snapshots ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE id NOT IN (
	SELECT id FROM snapshots ORDER BY ts DESC, id DESC LIMIT ?
)`

// tsLayout is fixed-width so stored timestamps sort lexicographically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Snapshot is one stored project state.
type Snapshot struct {
	ID   int64
	TS   time.Time
	Blob []byte
}

// SaveSnapshot persists a project blob with a timestamp.
func SaveSnapshot(ctx context.Context, ph *ProjectHandle, blob []byte, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, ts.UTC().Format(tsLayout), blob)
	return err
}

// SnapshotProject stores the handle's current project as JSON.
func SnapshotProject(ctx context.Context, ph *ProjectHandle) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	blob, err := json.Marshal(ph.Project)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return SaveSnapshot(ctx, ph, blob, time.Now())
}

// GetLatestSnapshot returns the latest snapshot or nil if none.
func GetLatestSnapshot(ctx context.Context, ph *ProjectHandle) (*Snapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	s, err := scanSnapshot(db.QueryRowContext(ctx, selectLatestSnapshotSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// LoadSnapshot decodes the snapshot with the given id into a project.
func LoadSnapshot(ctx context.Context, ph *ProjectHandle, id int64) (domain.Project, error) {
	if ph == nil {
		return domain.Project{}, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return domain.Project{}, err
	}
	defer func() { _ = db.Close() }()
	s, err := scanSnapshot(db.QueryRowContext(ctx, selectSnapshotSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("snapshot %d not found", id)
	}
	if err != nil {
		return domain.Project{}, err
	}
	p, err := decodeManifest(s.Blob)
	if err != nil {
		return domain.Project{}, fmt.Errorf("snapshot %d: %w", id, err)
	}
	return *p, nil
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var s Snapshot
	var tsStr string
	if err := row.Scan(&s.ID, &tsStr, &s.Blob); err != nil {
		return nil, err
	}
	s.TS, _ = time.Parse(tsLayout, tsStr)
	return &s, nil
}

// ListSnapshots returns up to limit most recent snapshots.
func ListSnapshots(ctx context.Context, ph *ProjectHandle, limit int) ([]Snapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var tsStr string
		if err := rows.Scan(&s.ID, &tsStr, &s.Blob); err != nil {
			return nil, err
		}
		s.TS, _ = time.Parse(tsLayout, tsStr)
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneOldSnapshots keeps at most keepLast snapshots and deletes older ones.
func PruneOldSnapshots(ctx context.Context, ph *ProjectHandle, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
