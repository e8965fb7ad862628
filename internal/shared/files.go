package shared

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

const (
	MB int64 = 1 << 20

	MaxSubtitleSize = 10 * MB
	MaxVideoSize    = 500 * MB

	// MaxVideoDuration is in seconds.
	MaxVideoDuration = 300.0
	// MaxProgressBarDuration is in seconds.
	MaxProgressBarDuration = 600.0
)

var (
	SubtitleExtensions = []string{".srt"}
	VideoExtensions    = []string{".mp4", ".mov", ".webm", ".mkv", ".avi"}
)

// ValidateSubtitleFile checks the name and size of a subtitle file before it is uploaded.
func ValidateSubtitleFile(name string, size int64) error {
	return validateFile(name, size, SubtitleExtensions, MaxSubtitleSize)
}

// ValidateVideoFile checks the name and size of a video file before it is uploaded.
func ValidateVideoFile(name string, size int64) error {
	return validateFile(name, size, VideoExtensions, MaxVideoSize)
}

// ValidateVideoDuration rejects durations over [MaxVideoDuration].
func ValidateVideoDuration(seconds float64) error {
	if seconds > MaxVideoDuration {
		return fmt.Errorf("%w: %.1fs exceeds %.0fs", ErrDurationExceeded, seconds, MaxVideoDuration)
	}
	return nil
}

func validateFile(name string, size int64, exts []string, max int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(exts, ext) {
		return fmt.Errorf("%w: %q (supported: %s)", ErrInvalidFile, filepath.Base(name), strings.Join(exts, ", "))
	}
	if size > max {
		return fmt.Errorf("%w: %.1fMB exceeds %dMB", ErrFileTooLarge, float64(size)/float64(MB), max/MB)
	}
	return nil
}
