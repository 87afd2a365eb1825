/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package simplify reduces noisy freehand point sequences to the smallest
// subsequence that stays within a distance tolerance of the original
// (Ramer–Douglas–Peucker).
//
// The divide-and-conquer is driven by an explicit stack of index ranges, so
// very long, nearly straight strokes cannot exhaust the goroutine stack. The
// output is identical to the textbook recursive formulation: first and last
// point of every range are kept, and the interior point farthest from the
// range's anchor segment splits it when that distance exceeds the tolerance.
package simplify

import (
	"pysketch/internal/domain"
	"pysketch/internal/vector"
)

// DefaultTolerance is the tolerance the compiler uses when none is configured.
const DefaultTolerance = 2.0

type span struct{ lo, hi int }

// Simplify returns the shape-preserving subsequence of points for tolerance.
// Inputs with two or fewer points are returned unchanged. Point order is
// never changed and the first and last points are always kept.
func Simplify(points []domain.Point, tolerance float64) []domain.Point {
	if len(points) <= 2 {
		return points
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true
	kept := 2

	stack := []span{{0, len(points) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}
		idx, dist := farthest(points, s.lo, s.hi)
		if idx == 0 || !(dist > tolerance) {
			continue
		}
		keep[idx] = true
		kept++
		// Order does not matter for the result; the keep mask is positional.
		stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
	}

	out := make([]domain.Point, 0, kept)
	for i, k := range keep {
		if k {
			out = append(out, points[i])
		}
	}
	return out
}

// farthest finds the interior point of points[lo..hi] with the largest
// distance to the segment points[lo]-points[hi]. Ties keep the lowest index.
// It returns index 0 when no interior point has a positive distance.
func farthest(points []domain.Point, lo, hi int) (int, float64) {
	a, b := points[lo], points[hi]
	maxIdx, maxDist := 0, 0.0
	for i := lo + 1; i < hi; i++ {
		if d := vector.SegmentDistance(points[i], a, b); d > maxDist {
			maxIdx, maxDist = i, d
		}
	}
	return maxIdx, maxDist
}

// Ratio reports how many points survive simplification, as a fraction of the
// input length. Empty input reports 1.
func Ratio(before, after int) float64 {
	if before == 0 {
		return 1
	}
	return float64(after) / float64(before)
}
