package util

import (
	"os"
	"os/exec"
)

// LocateFFmpeg returns the path of the ffmpeg binary. The FFMPEG
// environment variable takes precedence over $PATH.
func LocateFFmpeg() (string, error) {
	if p := os.Getenv("FFMPEG"); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	}
	return exec.LookPath("ffmpeg")
}
