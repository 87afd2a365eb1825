/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned by a Store when no project has the requested id.
var ErrNotFound = errors.New("project not found")

// ProjectInfo describes one archived project without its strokes.
type ProjectInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int64     `json:"version"`
	Layers    int       `json:"layers"`
	Strokes   int       `json:"strokes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredProject is an archived sketch.json document with its metadata.
type StoredProject struct {
	ProjectInfo
	Data []byte
}

// Store persists archived projects. Put replaces the document and bumps the
// version; the first Put of an id creates version 1.
type Store interface {
	List(ctx context.Context) ([]ProjectInfo, error)
	Get(ctx context.Context, id string) (StoredProject, error)
	Put(ctx context.Context, p StoredProject) (ProjectInfo, error)
	Ping(ctx context.Context) error
}

// MemStore is a Store kept in process memory. It backs tests and
// `pysketch serve --memory`.
type MemStore struct {
	mu    sync.RWMutex
	items map[string]StoredProject
	now   func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{items: map[string]StoredProject{}, now: time.Now}
}

func (m *MemStore) List(_ context.Context) ([]ProjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ProjectInfo, 0, len(m.items))
	for _, sp := range m.items {
		out = append(out, sp.ProjectInfo)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) Get(_ context.Context, id string) (StoredProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sp, ok := m.items[id]
	if !ok {
		return StoredProject{}, ErrNotFound
	}
	sp.Data = append([]byte(nil), sp.Data...)
	return sp, nil
}

func (m *MemStore) Put(_ context.Context, p StoredProject) (ProjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Version = 1
	if prev, ok := m.items[p.ID]; ok {
		p.Version = prev.Version + 1
	}
	p.UpdatedAt = m.now().UTC()
	p.Data = append([]byte(nil), p.Data...)
	m.items[p.ID] = p
	return p.ProjectInfo, nil
}

func (m *MemStore) Ping(_ context.Context) error { return nil }
