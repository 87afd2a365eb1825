/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"pysketch/internal/storage"
)

// DefaultProgramName is the file name used when none is given.
const DefaultProgramName = "drawing.py"

// WriteProgram saves generated Python code to dir/filename and returns the
// written path. An empty filename becomes drawing.py, a name without an
// extension gets ".py" appended, and any directory part of filename is
// ignored. The write goes through a temp file and a rename.
func WriteProgram(code, dir, filename string) (string, error) {
	name := ProgramFileName(filename)
	if dir == "" {
		dir = "."
	}
	out := filepath.Join(dir, name)
	if err := storage.WriteFileAtomic(out, []byte(code)); err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}
	return out, nil
}

// ProgramFileName normalizes a requested program file name.
func ProgramFileName(filename string) string {
	name := strings.TrimSpace(filename)
	if name != "" {
		name = filepath.Base(name)
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return DefaultProgramName
	}
	if filepath.Ext(name) == "" {
		name += ".py"
	}
	return name
}
