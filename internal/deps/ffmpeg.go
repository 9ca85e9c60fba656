package deps

import (
	"os/exec"
	"strings"
)

// ResolveFFmpegPath returns the absolute path of the configured ffmpeg command
// when it can be found on PATH, otherwise the configured value unchanged.
func ResolveFFmpegPath(configured string) string {
	value := strings.TrimSpace(configured)
	if value == "" {
		value = "ffmpeg"
	}
	if resolved, err := exec.LookPath(value); err == nil {
		return resolved
	}
	return value
}

// FFmpegRequirement describes the transcoder the process pipeline runs.
func FFmpegRequirement(configured string) Requirement {
	return Requirement{
		Name:        "FFmpeg",
		Command:     ResolveFFmpegPath(configured),
		Description: "Required for transcoding downloaded audio",
		VersionArgs: []string{"-version"},
	}
}
