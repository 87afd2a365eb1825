/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	applog "pysketch/internal/log"
)

// ProjectSummary is one entry of a workspace listing.
type ProjectSummary struct {
	Root         string
	ID           string
	Name         string
	LastModified int64
	Layers       int
	Strokes      int
}

// ListProjects scans the immediate sub-directories of workspace for sketch.json manifests.
// Unreadable or invalid manifests are skipped. Results are newest first.
func ListProjects(workspace string) ([]ProjectSummary, error) {
	ents, err := os.ReadDir(workspace)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "list")
	var out []ProjectSummary
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		root := filepath.Join(workspace, e.Name())
		b, err := os.ReadFile(filepath.Join(root, ManifestFileName))
		if err != nil {
			continue
		}
		p, err := decodeManifest(b)
		if err != nil {
			l.Warn("skipping invalid project", slog.String("root", root), slog.Any("err", err))
			continue
		}
		out = append(out, ProjectSummary{
			Root:         root,
			ID:           p.ID,
			Name:         p.Name,
			LastModified: p.LastModified,
			Layers:       len(p.Layers),
			Strokes:      len(p.Strokes),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastModified != out[j].LastModified {
			return out[i].LastModified > out[j].LastModified
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// FormatAge renders a unix-millisecond timestamp relative to now:
// "Just now", "5 min ago", "2 hours ago", "3 days ago", then "Jan 2" or "Jan 2, 2006" for other years.
func FormatAge(ts int64, now time.Time) string {
	diff := now.UnixMilli() - ts
	mins := floorDiv(diff, 60000)
	hours := floorDiv(diff, 3600000)
	days := floorDiv(diff, 86400000)
	switch {
	case mins < 1:
		return "Just now"
	case mins < 60:
		return fmt.Sprintf("%d min ago", mins)
	case hours < 24:
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	case days < 7:
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	}
	t := time.UnixMilli(ts).In(now.Location())
	if t.Year() != now.Year() {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2")
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func plural(n int64) string {
	if n > 1 {
		return "s"
	}
	return ""
}
