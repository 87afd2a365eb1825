/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package turtle

import (
	"math"
	"strconv"
)

// FormatNumber renders a coordinate, heading or distance for the generated
// program: rounded to two decimals, trailing zeros and a trailing point
// stripped, and negative zero printed as "0".
//
// Rounding works on the exact binary value of v (so 1.005 becomes "1" and
// 12.345 becomes "12.35"); values that sit exactly halfway round away from
// zero (0.125 becomes "0.13", -0.125 becomes "-0.13").
func FormatNumber(v float64) string {
	if s, ok := special(v); ok {
		return s
	}
	r := round2(v)
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Emitted returns the value the generated program actually carries for v,
// i.e. FormatNumber(v) parsed back.
func Emitted(v float64) float64 {
	if _, ok := special(v); ok {
		return v
	}
	return round2(v)
}

// formatPlain renders v without rounding, used for canvas size and pen width.
func formatPlain(v float64) string {
	if s, ok := special(v); ok {
		return s
	}
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func special(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "Infinity", true
	case math.IsInf(v, -1):
		return "-Infinity", true
	}
	return "", false
}

func round2(v float64) float64 {
	if isHalfway(v) {
		return math.Round(v*100) / 100
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}

// isHalfway reports whether v lies exactly between two 2-decimal values.
// Such a value is a multiple of 1/200 that is also a dyadic rational, which
// leaves only fractional parts of 1/8, 3/8, 5/8 and 7/8.
func isHalfway(v float64) bool {
	a := math.Abs(v)
	if a >= 1<<40 {
		return false
	}
	f := (a - math.Floor(a)) * 8
	return f == math.Trunc(f) && int64(f)%2 == 1
}
