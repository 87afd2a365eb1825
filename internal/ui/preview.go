/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"image"
	"time"

	"pysketch/internal/domain"
	"pysketch/internal/export"
	"pysketch/internal/storage"
	"pysketch/internal/turtle"
)

// Frame is one rendering of the open project.
type Frame struct {
	Code    string
	Image   *image.RGBA
	Summary turtle.Summary
}

// Preview holds the project shown in the preview window and the compile
// settings the window controls. It has no Fyne dependency.
type Preview struct {
	ph    *storage.ProjectHandle
	opts  turtle.Options
	scale float64
	last  string
}

// NewPreview wraps an open project. opts supplies canvas size and the
// initial tolerance.
func NewPreview(ph *storage.ProjectHandle, opts turtle.Options) *Preview {
	return &Preview{ph: ph, opts: opts, scale: 1}
}

// Handle returns the open project, or nil.
func (p *Preview) Handle() *storage.ProjectHandle {
	if p == nil {
		return nil
	}
	return p.ph
}

func (p *Preview) Tolerance() float64 { return p.opts.Tolerance() }

// SetTolerance changes the simplification tolerance for later renders.
// Negative values are clamped to 0.
func (p *Preview) SetTolerance(v float64) {
	if v < 0 {
		v = 0
	}
	p.opts = p.opts.WithTolerance(v)
}

// Layers returns the project layers bottom to top.
func (p *Preview) Layers() []domain.Layer {
	return append([]domain.Layer(nil), p.ph.Project.Layers...)
}

// SetLayerVisible toggles a layer and saves the project.
func (p *Preview) SetLayerVisible(id string, visible bool) error {
	if err := storage.SetLayerVisible(&p.ph.Project, id, visible); err != nil {
		return err
	}
	return storage.Save(p.ph)
}

// Reload re-reads the project from disk, picking up edits made elsewhere.
func (p *Preview) Reload() error {
	ph, err := storage.Open(p.ph.Root)
	if err != nil {
		return err
	}
	p.ph = ph
	return nil
}

// Render compiles the project and rasterizes what the program draws.
func (p *Preview) Render() (Frame, error) {
	if p.ph == nil {
		return Frame{}, errors.New("no project open")
	}
	proj := p.ph.Project
	tr, err := export.TraceProject(proj, export.PreviewOptions{Options: p.opts, Scale: p.scale})
	if err != nil {
		return Frame{}, err
	}
	prog := turtle.Build(proj.Strokes, proj.Layers, p.opts.ForProject(proj))
	p.last = prog.String()
	img, err := export.RenderPNG(tr, p.scale)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Code: p.last, Image: img, Summary: prog.Summarize()}, nil
}

// Code returns the program text of the last Render.
func (p *Preview) Code() string { return p.last }

// SaveProgram writes the last rendered program into the project's exports
// folder and records it in the project index.
func (p *Preview) SaveProgram(ctx context.Context, filename string) (string, error) {
	if p.last == "" {
		if _, err := p.Render(); err != nil {
			return "", err
		}
	}
	out, err := export.WriteProgram(p.last, p.ph.ExportsDir(), filename)
	if err != nil {
		return "", err
	}
	if _, _, err := storage.RecordProgram(ctx, p.ph, p.last, p.opts.Tolerance(), time.Now()); err != nil {
		return out, err
	}
	return out, nil
}
