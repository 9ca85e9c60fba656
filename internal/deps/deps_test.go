package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Empty", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected result for empty command: %#v", results[2])
	}
}

func TestResolveFFmpegPath(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffmpeg")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	if got := ResolveFFmpegPath(""); got != stub {
		t.Fatalf("expected PATH lookup %q, got %q", stub, got)
	}
	if got := ResolveFFmpegPath("ffmpeg"); got != stub {
		t.Fatalf("expected PATH lookup %q, got %q", stub, got)
	}
	if got := ResolveFFmpegPath("/nonexistent/ffmpeg"); got != "/nonexistent/ffmpeg" {
		t.Fatalf("unresolvable path should be returned unchanged, got %q", got)
	}
}

func TestFFmpegRequirement(t *testing.T) {
	req := FFmpegRequirement("/bin/true-ffmpeg")
	if req.Name != "FFmpeg" || req.Command != "/bin/true-ffmpeg" || req.Optional || len(req.VersionArgs) == 0 {
		t.Fatalf("unexpected requirement: %#v", req)
	}
}

func TestCheckBinariesProbesVersion(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffmpeg")
	script := "#!/bin/sh\n[ \"$1\" = -version ] || exit 1\necho\necho 'ffmpeg version 6.1.1 Copyright (c)'\necho 'built with gcc'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	broken := filepath.Join(binDir, "broken")
	if err := os.WriteFile(broken, []byte("#!/bin/sh\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	results := CheckBinaries([]Requirement{
		FFmpegRequirement(stub),
		{Name: "Broken", Command: broken, VersionArgs: []string{"--version"}},
	})
	if results[0].Version != "ffmpeg version 6.1.1 Copyright (c)" {
		t.Fatalf("unexpected version %q", results[0].Version)
	}
	if !results[1].Available || results[1].Version != "" {
		t.Fatalf("a failing probe should leave the binary available without a version: %#v", results[1])
	}
}
