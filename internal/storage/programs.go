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
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// language=SQL
// dialect=SQLite
const insertProgramSQL = `INSERT INTO programs(ts, digest, tolerance, lines, code) VALUES (?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestProgramSQL = `SELECT id, ts, digest, tolerance, lines, code FROM programs ORDER BY ts DESC, id DESC LIMIT 1`

// ProgramRecord is one entry of the compile history.
type ProgramRecord struct {
	ID        int64
	TS        time.Time
	Digest    string
	Tolerance float64
	Lines     int
	Code      string
}

// ProgramDigest returns the hex sha256 of a generated program.
func ProgramDigest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// RecordProgram appends a compiled program to the history. changed reports
// whether its digest differs from the previous entry.
func RecordProgram(ctx context.Context, ph *ProjectHandle, code string, tolerance float64, ts time.Time) (rec ProgramRecord, changed bool, err error) {
	if ph == nil {
		return ProgramRecord{}, false, errors.New("nil ProjectHandle")
	}
	prev, err := LatestProgram(ctx, ph)
	if err != nil {
		return ProgramRecord{}, false, err
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return ProgramRecord{}, false, err
	}
	defer func() { _ = db.Close() }()
	rec = ProgramRecord{
		TS:        ts.UTC(),
		Digest:    ProgramDigest(code),
		Tolerance: tolerance,
		Lines:     strings.Count(code, "\n") + 1,
		Code:      code,
	}
	res, err := db.ExecContext(ctx, insertProgramSQL, rec.TS.Format(tsLayout), rec.Digest, rec.Tolerance, rec.Lines, rec.Code)
	if err != nil {
		return ProgramRecord{}, false, err
	}
	rec.ID, _ = res.LastInsertId()
	return rec, prev == nil || prev.Digest != rec.Digest, nil
}

// LatestProgram returns the newest compile record or nil if none.
func LatestProgram(ctx context.Context, ph *ProjectHandle) (*ProgramRecord, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	var r ProgramRecord
	var tsStr string
	err = db.QueryRowContext(ctx, selectLatestProgramSQL).Scan(&r.ID, &tsStr, &r.Digest, &r.Tolerance, &r.Lines, &r.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.TS, _ = time.Parse(tsLayout, tsStr)
	return &r, nil
}
