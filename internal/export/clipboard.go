/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	applog "pysketch/internal/log"
)

type clipboardTool struct {
	name string
	args []string
}

// clipboardTools lists the candidates tried in order for the current platform.
var clipboardTools = func() []clipboardTool {
	switch runtime.GOOS {
	case "darwin":
		return []clipboardTool{{name: "pbcopy"}}
	case "windows":
		return []clipboardTool{{name: "clip"}}
	}
	var tools []clipboardTool
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		tools = append(tools, clipboardTool{name: "wl-copy"})
	}
	return append(tools,
		clipboardTool{name: "xclip", args: []string{"-selection", "clipboard"}},
		clipboardTool{name: "xsel", args: []string{"--clipboard", "--input"}},
	)
}

// CopyToClipboard puts code on the system clipboard using the first clipboard
// tool found on PATH. It reports false, and logs why, when no tool succeeded.
func CopyToClipboard(code string) bool {
	l := applog.WithComponent("export")
	var tried []string
	for _, t := range clipboardTools() {
		path, err := exec.LookPath(t.name)
		if err != nil {
			continue
		}
		tried = append(tried, t.name)
		cmd := exec.Command(path, t.args...)
		cmd.Stdin = strings.NewReader(code)
		if out, err := cmd.CombinedOutput(); err != nil {
			l.Warn("clipboard tool failed", slog.String("tool", t.name), slog.Any("err", err), slog.String("output", strings.TrimSpace(string(out))))
			continue
		}
		l.Debug("copied to clipboard", slog.String("tool", t.name), slog.Int("bytes", len(code)))
		return true
	}
	if len(tried) == 0 {
		l.Warn("no clipboard tool available")
	}
	return false
}
