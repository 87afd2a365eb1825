package version

import "testing"

func TestVersionStringNonEmpty(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
}

func TestVersionStringIncludesShortCommit(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })
	Version = "v1.0.0"
	Commit = "0123456789abcdef"
	if got, want := String(), "v1.0.0 (0123456)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
