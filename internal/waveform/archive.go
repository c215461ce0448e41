package waveform

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/seismo-go/internal/errors"
)

// FileRef points at one component file of an archive. Start overrides the
// recording start time when set.
type FileRef struct {
	Path  string
	Start time.Time
}

// Archive is one line of the archive list: the co-recorded files that are
// scanned together as one multi-channel recording.
type Archive struct {
	Index int // position among non-empty lines
	Line  int // line number in the list file
	Files []FileRef
}

// Paths returns the file paths of the archive.
func (a Archive) Paths() []string {
	paths := make([]string, len(a.Files))
	for i, f := range a.Files {
		paths[i] = f.Path
	}
	return paths
}

// ReadArchiveList parses the archive list at path. Relative file paths are
// resolved against the directory of the list.
func ReadArchiveList(path string) ([]Archive, error) {
	f, err := os.Open(path) //nolint:gosec // path is given on the command line
	if err != nil {
		return nil, errors.New(err).
			Component("waveform").
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Build()
	}
	defer func() { _ = f.Close() }()

	return ParseArchiveList(f, filepath.Dir(path))
}

// ParseArchiveList reads one archive per line. Each line holds comma
// separated file paths, optionally suffixed with @RFC3339 start time. An @
// not followed by a date is part of the path:
//
//	# station A, three components
//	A/EHE.wav, A/EHN.wav, A/EHZ.wav
//	B/HHZ.flac@2021-06-01T00:00:00Z
//
// Blank lines and lines starting with # are skipped.
func ParseArchiveList(r io.Reader, baseDir string) ([]Archive, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var archives []Archive
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(fmt.Errorf("archive list: %w", err)).
				Component("waveform").
				Category(errors.CategoryFileParsing).
				Build()
		}
		line, _ := reader.FieldPos(0)

		archive := Archive{Index: len(archives), Line: line}
		for _, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			ref, err := parseFileRef(field, baseDir)
			if err != nil {
				return nil, errors.New(fmt.Errorf("archive list line %d: %w", line, err)).
					Component("waveform").
					Category(errors.CategoryFileParsing).
					Context("line", line).
					Build()
			}
			archive.Files = append(archive.Files, ref)
		}
		if len(archive.Files) == 0 {
			continue
		}
		archives = append(archives, archive)
	}
	return archives, nil
}

func parseFileRef(field, baseDir string) (FileRef, error) {
	var ref FileRef
	path := field
	if at := strings.LastIndexByte(field, '@'); at > 0 && looksLikeDate(field[at+1:]) {
		start, err := time.Parse(time.RFC3339Nano, field[at+1:])
		if err != nil {
			return ref, fmt.Errorf("invalid start time in %q: %w", field, err)
		}
		path = field[:at]
		ref.Start = start
	}
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	ref.Path = path
	return ref, nil
}

// looksLikeDate reports whether s starts with a four digit year and a dash.
func looksLikeDate(s string) bool {
	if len(s) < 5 || s[4] != '-' {
		return false
	}
	for _, c := range s[:4] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
