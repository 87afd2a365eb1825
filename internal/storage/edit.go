/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"pysketch/internal/domain"
)

var (
	ErrLayerNotFound  = errors.New("layer not found")
	ErrStrokeNotFound = errors.New("stroke not found")
	ErrLastLayer      = errors.New("cannot delete the last layer")
	ErrTooFewPoints   = errors.New("stroke needs at least two points")
	ErrInvalidColor   = errors.New("color must be #RRGGBB")
)

// EraseThreshold is the pointer radius in canvas pixels used by StrokeAt.
const EraseThreshold = 10.0

// NewProject returns an unsaved project with one visible layer and default settings.
func NewProject(name string, now time.Time) domain.Project {
	if strings.TrimSpace(name) == "" {
		name = domain.DefaultProjectName
	}
	return domain.Project{
		ID:           uuid.NewString(),
		Name:         name,
		LastModified: now.UnixMilli(),
		Layers:       []domain.Layer{{ID: uuid.NewString(), Name: domain.DefaultLayerName, Visible: true}},
		Strokes:      []domain.Stroke{},
		Settings: domain.Settings{
			Speed:           domain.DefaultSpeed,
			BackgroundColor: domain.DefaultBackground,
		},
	}
}

// AddLayer appends a visible layer on top. An empty name becomes "Layer N".
func AddLayer(p *domain.Project, name string) domain.Layer {
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Layer %d", len(p.Layers)+1)
	}
	l := domain.Layer{ID: uuid.NewString(), Name: name, Visible: true}
	p.Layers = append(p.Layers, l)
	return l
}

func RenameLayer(p *domain.Project, id, name string) error {
	i := p.LayerByID(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	p.Layers[i].Name = name
	return nil
}

func SetLayerVisible(p *domain.Project, id string, visible bool) error {
	i := p.LayerByID(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	p.Layers[i].Visible = visible
	return nil
}

// ToggleLayer flips visibility and returns the new state.
func ToggleLayer(p *domain.Project, id string) (bool, error) {
	i := p.LayerByID(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	p.Layers[i].Visible = !p.Layers[i].Visible
	return p.Layers[i].Visible, nil
}

// MoveLayer moves a layer to newIndex in z-order (0 is the bottom). The index is clamped.
func MoveLayer(p *domain.Project, id string, newIndex int) error {
	i := p.LayerByID(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(p.Layers)-1 {
		newIndex = len(p.Layers) - 1
	}
	if newIndex == i {
		return nil
	}
	l := p.Layers[i]
	rest := append(p.Layers[:i:i], p.Layers[i+1:]...)
	out := make([]domain.Layer, 0, len(p.Layers))
	out = append(out, rest[:newIndex]...)
	out = append(out, l)
	out = append(out, rest[newIndex:]...)
	p.Layers = out
	return nil
}

// DeleteLayer removes a layer together with its strokes and returns the number of strokes removed.
func DeleteLayer(p *domain.Project, id string) (int, error) {
	i := p.LayerByID(id)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	if len(p.Layers) == 1 {
		return 0, ErrLastLayer
	}
	p.Layers = append(p.Layers[:i:i], p.Layers[i+1:]...)
	return removeStrokes(p, func(s domain.Stroke) bool { return s.LayerID == id }), nil
}

// ClearLayer removes every stroke on a layer and keeps the layer.
func ClearLayer(p *domain.Project, id string) (int, error) {
	if p.LayerByID(id) < 0 {
		return 0, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	return removeStrokes(p, func(s domain.Stroke) bool { return s.LayerID == id }), nil
}

// ClearAll removes every stroke from the project.
func ClearAll(p *domain.Project) int {
	n := len(p.Strokes)
	p.Strokes = []domain.Stroke{}
	return n
}

func removeStrokes(p *domain.Project, drop func(domain.Stroke) bool) int {
	kept := make([]domain.Stroke, 0, len(p.Strokes))
	for _, s := range p.Strokes {
		if !drop(s) {
			kept = append(kept, s)
		}
	}
	n := len(p.Strokes) - len(kept)
	p.Strokes = kept
	return n
}

// AddStroke appends a stroke on layerID using the project speed. Points are copied.
func AddStroke(p *domain.Project, layerID string, points []domain.Point, color string, width float64) (domain.Stroke, error) {
	if p.LayerByID(layerID) < 0 {
		return domain.Stroke{}, fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	if len(points) < 2 {
		return domain.Stroke{}, ErrTooFewPoints
	}
	if !domain.IsHexColor(color) {
		return domain.Stroke{}, fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	if !(width > 0) || math.IsInf(width, 0) {
		return domain.Stroke{}, fmt.Errorf("invalid stroke width %v", width)
	}
	s := domain.Stroke{
		ID:      uuid.NewString(),
		LayerID: layerID,
		Color:   color,
		Width:   width,
		Speed:   p.Settings.Speed,
		Points:  append([]domain.Point(nil), points...),
	}
	p.Strokes = append(p.Strokes, s)
	return s, nil
}

func EraseStroke(p *domain.Project, id string) error {
	i := p.StrokeByID(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrStrokeNotFound, id)
	}
	p.Strokes = append(p.Strokes[:i:i], p.Strokes[i+1:]...)
	return nil
}

// StrokeAt finds the topmost visible stroke with a sampled point within
// threshold+width/2 of pt. Layers are searched top first, then newer strokes first.
func StrokeAt(p *domain.Project, pt domain.Point, threshold float64) (domain.Stroke, bool) {
	for i := len(p.Layers) - 1; i >= 0; i-- {
		l := p.Layers[i]
		if !l.Visible {
			continue
		}
		strokes := domain.StrokesForLayer(p.Strokes, l.ID)
		for j := len(strokes) - 1; j >= 0; j-- {
			s := strokes[j]
			reach := threshold + s.Width/2
			for _, sp := range s.Points {
				if math.Hypot(pt.X-sp.X, pt.Y-sp.Y) <= reach {
					return s, true
				}
			}
		}
	}
	return domain.Stroke{}, false
}

// EraseAt removes the stroke StrokeAt finds, returning its id.
func EraseAt(p *domain.Project, pt domain.Point) (string, bool) {
	s, ok := StrokeAt(p, pt, EraseThreshold)
	if !ok {
		return "", false
	}
	_ = EraseStroke(p, s.ID)
	return s.ID, true
}

// SetSpeed stores the project speed clamped to [0,10] and returns the stored value.
func SetSpeed(p *domain.Project, v int) int {
	p.Settings.Speed = domain.ClampSpeed(v)
	return p.Settings.Speed
}

func SetBackground(p *domain.Project, color string) error {
	if !domain.IsHexColor(color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	p.Settings.BackgroundColor = color
	return nil
}

// ResolveLayer accepts a layer id, a 1-based position or a unique name.
func ResolveLayer(p *domain.Project, ref string) (int, error) {
	if i := p.LayerByID(ref); i >= 0 {
		return i, nil
	}
	var n int
	if _, err := fmt.Sscanf(ref, "%d", &n); err == nil && fmt.Sprint(n) == ref && n >= 1 && n <= len(p.Layers) {
		return n - 1, nil
	}
	found := -1
	for i, l := range p.Layers {
		if l.Name == ref {
			if found >= 0 {
				return -1, fmt.Errorf("layer name %q is ambiguous", ref)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("%w: %s", ErrLayerNotFound, ref)
	}
	return found, nil
}
