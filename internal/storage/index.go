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
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pysketch/internal/domain"
	applog "pysketch/internal/log"
	"pysketch/internal/simplify"
	"pysketch/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-project ephemeral/index data under the project root.
	IndexDirName  = ".pysketch"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the full path to the project's embedded index database file.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-project SQLite index exists at .pysketch/index.sqlite,
// opens the database, enables WAL mode, and ensures the meta/version tables exist.
// The returned *sql.DB is ready for use. Callers may close it when no longer needed.
func InitOrOpenIndex(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}

	path := IndexPath(projectRoot)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the existing schema number so runMigrations can pick it up.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// Lookup indexes for stats and compile history.
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_strokes_layer ON strokes(layer_id, seq);`,
				`CREATE INDEX IF NOT EXISTS idx_programs_ts ON programs(ts);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the derived tables if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS layers (
			id      TEXT    PRIMARY KEY,
			name    TEXT    NOT NULL,
			visible INTEGER NOT NULL,
			z       INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS strokes (
			id                TEXT    PRIMARY KEY,
			layer_id          TEXT    NOT NULL,
			seq               INTEGER NOT NULL,
			color             TEXT    NOT NULL,
			width             REAL    NOT NULL,
			point_count       INTEGER NOT NULL,
			simplified_count  INTEGER NOT NULL,
			points            TEXT    NOT NULL,
			simplified_points TEXT    NOT NULL
		);`,
		// Project history as full manifest blobs.
		`CREATE TABLE IF NOT EXISTS snapshots (
			id   INTEGER PRIMARY KEY,
			ts   TEXT    NOT NULL,
			blob BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts);`,
		// Compile history.
		`CREATE TABLE IF NOT EXISTS programs (
			id        INTEGER PRIMARY KEY,
			ts        TEXT    NOT NULL,
			digest    TEXT    NOT NULL,
			tolerance REAL    NOT NULL,
			lines     INTEGER NOT NULL,
			code      TEXT    NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// RebuildIndex drops and recreates the layer and stroke tables from the manifest.
// Snapshots, programs and meta/version are preserved. Each stroke is stored
// with its simplified form at the given tolerance.
func RebuildIndex(ctx context.Context, projectRoot string, proj domain.Project, tolerance float64) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{
		"DROP INDEX IF EXISTS idx_strokes_layer;",
		"DROP TABLE IF EXISTS strokes;",
		"DROP TABLE IF EXISTS layers;",
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_strokes_layer ON strokes(layer_id, seq);`); err != nil {
		return fmt.Errorf("recreate stroke index: %w", err)
	}
	return populateFromProject(ctx, db, proj, tolerance)
}

// language=SQL
// dialect=SQLite
const insertLayerSQL = `INSERT INTO layers(id, name, visible, z) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const insertStrokeSQL = `INSERT INTO strokes(id, layer_id, seq, color, width, point_count, simplified_count, points, simplified_points)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const upsertMetaSQL = `INSERT INTO meta(key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func populateFromProject(ctx context.Context, db *sql.DB, proj domain.Project, tolerance float64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin populate: %w", err)
	}
	for z, l := range proj.Layers {
		if _, err := tx.ExecContext(ctx, insertLayerSQL, l.ID, l.Name, l.Visible, z); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert layer %s: %w", l.ID, err)
		}
	}
	for seq, s := range proj.Strokes {
		simp := simplify.Simplify(s.Points, tolerance)
		pts, err := json.Marshal(s.Points)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode points %s: %w", s.ID, err)
		}
		spts, err := json.Marshal(simp)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode simplified points %s: %w", s.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insertStrokeSQL, s.ID, s.LayerID, seq, s.Color, s.Width,
			len(s.Points), len(simp), string(pts), string(spts)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert stroke %s: %w", s.ID, err)
		}
	}
	meta := map[string]string{
		"project_id":   proj.ID,
		"project_name": proj.Name,
		"tolerance":    strconv.FormatFloat(tolerance, 'g', -1, 64),
		"indexed_at":   time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, upsertMetaSQL, k, v); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// LayerStat summarises one layer from the index.
type LayerStat struct {
	ID               string
	Name             string
	Visible          bool
	Z                int
	Strokes          int
	Points           int
	SimplifiedPoints int
}

// language=SQL
// dialect=SQLite
const layerStatsSQL = `SELECT l.id, l.name, l.visible, l.z,
	COUNT(s.id), COALESCE(SUM(s.point_count), 0), COALESCE(SUM(s.simplified_count), 0)
FROM layers l LEFT JOIN strokes s ON s.layer_id = l.id
GROUP BY l.id, l.name, l.visible, l.z
ORDER BY l.z`

// LayerStats returns per-layer stroke and point counts, bottom layer first.
func LayerStats(ctx context.Context, projectRoot string) ([]LayerStat, error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, layerStatsSQL)
	if err != nil {
		return nil, fmt.Errorf("query layer stats: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []LayerStat
	for rows.Next() {
		var st LayerStat
		if err := rows.Scan(&st.ID, &st.Name, &st.Visible, &st.Z, &st.Strokes, &st.Points, &st.SimplifiedPoints); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// IndexMeta reads a meta value, returning "" when absent.
func IndexMeta(ctx context.Context, projectRoot, key string) (string, error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return "", err
	}
	defer db.Close()
	var v string
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds the index if needed.
// It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, projectRoot string, proj domain.Project, tolerance float64) (bool, error) {
	path := IndexPath(projectRoot)
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		backupIndexFile(path)
		removeIndexFiles(path)
		if rbErr := RebuildIndex(ctx, projectRoot, proj, tolerance); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM strokes LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	removeIndexFiles(path)
	if err := RebuildIndex(ctx, projectRoot, proj, tolerance); err != nil {
		return false, err
	}
	return true, nil
}

func removeIndexFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}

// backupIndexFile copies the current index file into a timestamped backup in .pysketch/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}
