package waveform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/seismo-go/internal/errors"
)

func TestParseArchiveList(t *testing.T) {
	t.Parallel()

	input := `# station A
A/EHE.wav, A/EHN.wav, A/EHZ.wav

/abs/B.flac@2021-06-01T00:00:00Z
C.wav,
`
	archives, err := ParseArchiveList(strings.NewReader(input), "/data")
	require.NoError(t, err)
	require.Len(t, archives, 3)

	assert.Equal(t, 0, archives[0].Index)
	assert.Equal(t, 2, archives[0].Line)
	assert.Equal(t, []string{"/data/A/EHE.wav", "/data/A/EHN.wav", "/data/A/EHZ.wav"}, archives[0].Paths())

	require.Len(t, archives[1].Files, 1)
	assert.Equal(t, "/abs/B.flac", archives[1].Files[0].Path)
	assert.Equal(t, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), archives[1].Files[0].Start.UTC())

	assert.Equal(t, 2, archives[2].Index)
	assert.Equal(t, []string{"/data/C.wav"}, archives[2].Paths())
}

func TestParseArchiveList_BadStartTime(t *testing.T) {
	t.Parallel()

	_, err := ParseArchiveList(strings.NewReader("a.wav@2021-13-01T00:00:00Z\n"), "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	assert.Contains(t, err.Error(), "line 1")
}

func TestParseArchiveList_AtSignInPath(t *testing.T) {
	t.Parallel()

	input := "data@host/EHZ.wav, raw/trace@2.wav, a.wav@yesterday\n"
	archives, err := ParseArchiveList(strings.NewReader(input), "/srv")
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, []string{"/srv/data@host/EHZ.wav", "/srv/raw/trace@2.wav", "/srv/a.wav@yesterday"}, archives[0].Paths())
	for _, f := range archives[0].Files {
		assert.True(t, f.Start.IsZero(), f.Path)
	}
}

func TestReadArchiveList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	list := filepath.Join(dir, "archives.csv")
	require.NoError(t, os.WriteFile(list, []byte("x.wav,y.wav\n"), 0o600))

	archives, err := ReadArchiveList(list)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, []string{filepath.Join(dir, "x.wav"), filepath.Join(dir, "y.wav")}, archives[0].Paths())

	_, err = ReadArchiveList(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestParseFileNameTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want time.Time
		ok   bool
	}{
		{"STA_EHZ_20210601T120000.wav", time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC), true},
		{"STA.20210601_120000.flac", time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC), true},
		{"x_20210601120030.5.wav", time.Date(2021, 6, 1, 12, 0, 30, 500_000_000, time.UTC), true},
		{"no-time.wav", time.Time{}, false},
		{"bad_20211341T250000.wav", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseFileNameTime(tt.name)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}
