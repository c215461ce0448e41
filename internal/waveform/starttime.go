package waveform

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/tphakala/seismo-go/internal/logger"
)

// Timestamps embedded in file names, e.g. STA_EHZ_20210601T120000.wav or
// STA.20210601_120000.flac.
var fileTimePattern = regexp.MustCompile(`(\d{8})[T_-]?(\d{6})(?:\.(\d{1,9}))?`)

// resolveStart picks the recording start time of a file: an explicit time
// from the archive list, a timestamp in the file name, or as last resort the
// file modification time.
func resolveStart(ref FileRef, info os.FileInfo) time.Time {
	if !ref.Start.IsZero() {
		return ref.Start
	}
	if ts, ok := parseFileNameTime(filepath.Base(ref.Path)); ok {
		return ts
	}

	GetLogger().Warn("no start time for file, using modification time",
		logger.String("file", ref.Path),
		logger.Time("mtime", info.ModTime()))
	return info.ModTime().UTC()
}

func parseFileNameTime(name string) (time.Time, bool) {
	m := fileTimePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	value := m[1] + "T" + m[2]
	layout := "20060102T150405"
	if m[3] != "" {
		value += "." + m[3]
		layout += ".999999999"
	}
	ts, err := time.ParseInLocation(layout, value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
