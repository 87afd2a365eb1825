/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the data model shared by the compiler, storage and
// previews. JSON tags match the project records written by the original
// web client so manifests can be exchanged as-is.

import "strings"

// Point is a canvas-space coordinate: origin top-left, Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one freehand gesture. LayerID is a lookup reference only;
// strokes whose layer is gone are never drawn.
type Stroke struct {
	ID      string  `json:"id"`
	LayerID string  `json:"layerId"`
	Color   string  `json:"color"` // #RRGGBB
	Width   float64 `json:"width"`
	Speed   int     `json:"speed"`
	Points  []Point `json:"points"`
}

// Layer is a named drawing bucket. Position in Project.Layers is z-order
// and compile order, bottom to top.
type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

// Settings holds per-project render settings.
type Settings struct {
	Speed           int    `json:"speed"`
	BackgroundColor string `json:"backgroundColor"`
}

// Project is the persisted drawing: ordered layers, strokes in creation order
// and render settings. LastModified is unix milliseconds.
type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	LastModified int64    `json:"lastModified"`
	Layers       []Layer  `json:"layers"`
	Strokes      []Stroke `json:"strokes"`
	Settings     Settings `json:"settings"`
}

// Defaults used when a project is created.
const (
	DefaultProjectName = "Untitled Project"
	DefaultLayerName   = "Layer 1"
	DefaultSpeed       = 6
	DefaultBackground  = "#0a0a0a"
	DefaultStrokeColor = "#ffffff"
	DefaultStrokeWidth = 3
	MinSpeed           = 0
	MaxSpeed           = 10
)

// LayerByID returns the layer index for id, or -1.
func (p *Project) LayerByID(id string) int {
	for i, l := range p.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// StrokeByID returns the stroke index for id, or -1.
func (p *Project) StrokeByID(id string) int {
	for i, s := range p.Strokes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// StrokesForLayer returns the strokes on layerID in their original relative order.
func StrokesForLayer(strokes []Stroke, layerID string) []Stroke {
	var out []Stroke
	for _, s := range strokes {
		if s.LayerID == layerID {
			out = append(out, s)
		}
	}
	return out
}

// VisibleLayers filters layers to the visible ones, preserving order.
func VisibleLayers(layers []Layer) []Layer {
	out := make([]Layer, 0, len(layers))
	for _, l := range layers {
		if l.Visible {
			out = append(out, l)
		}
	}
	return out
}

// PointCount returns the total number of sampled points across strokes.
func PointCount(strokes []Stroke) int {
	n := 0
	for _, s := range strokes {
		n += len(s.Points)
	}
	return n
}

// IsHexColor reports whether s has the form #RRGGBB.
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	return strings.IndexFunc(s[1:], func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F')
	}) < 0
}

// ClampSpeed limits v to the turtle speed range [0,10].
func ClampSpeed(v int) int {
	if v < MinSpeed {
		return MinSpeed
	}
	if v > MaxSpeed {
		return MaxSpeed
	}
	return v
}
