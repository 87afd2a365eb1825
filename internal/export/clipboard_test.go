/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func fakeClipboard(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "clip.txt")
	tool := filepath.Join(dir, "fakeclip")
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatalf("write tool: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("FAKECLIP_OUT", out)
	prev := clipboardTools
	clipboardTools = func() []clipboardTool {
		return []clipboardTool{{name: "no-such-clipboard-tool"}, {name: "fakeclip", args: []string{"-in"}}}
	}
	t.Cleanup(func() { clipboardTools = prev })
	return out
}

func TestCopyToClipboard_UsesFirstAvailableTool(t *testing.T) {
	out := fakeClipboard(t, "#!/bin/sh\ncat > \"$FAKECLIP_OUT\"\n")
	if !CopyToClipboard("t.forward(10)") {
		t.Fatalf("expected copy to succeed")
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "t.forward(10)" {
		t.Fatalf("clipboard got %q", b)
	}
}

func TestCopyToClipboard_FailingToolReportsFalse(t *testing.T) {
	fakeClipboard(t, "#!/bin/sh\necho nope >&2\nexit 1\n")
	if CopyToClipboard("x") {
		t.Fatalf("expected copy to fail")
	}
}

func TestCopyToClipboard_NoToolReportsFalse(t *testing.T) {
	prev := clipboardTools
	clipboardTools = func() []clipboardTool { return []clipboardTool{{name: "no-such-clipboard-tool"}} }
	t.Cleanup(func() { clipboardTools = prev })
	if CopyToClipboard("x") {
		t.Fatalf("expected false without a clipboard tool")
	}
}
