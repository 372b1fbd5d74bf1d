package cue_test

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"cuesplit/pkg/cue"
)

func newTestParser() *cue.Parser {
	return cue.NewParser(nil, log.New(io.Discard, "", 0))
}

func parseLines(t *testing.T, text string) *cue.Sheet {
	t.Helper()
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	sheet, err := newTestParser().Parse(lines)
	require.NoError(t, err)
	return sheet
}

const basicSheet = `
	PERFORMER "A"
	TITLE "B"
	REM DATE 2020
	FILE "x.wav" WAVE
	TRACK 1 AUDIO
	TITLE "One"
	INDEX 01 00:00:00
	TRACK 2 AUDIO
	TITLE "Two"
	INDEX 01 00:01:00
`

func TestParseBasicSheet(t *testing.T) {
	sheet := parseLines(t, basicSheet)

	meta := sheet.Meta.Attrs()
	assert.Equal(t, "A", meta.Get("PERFORMER"))
	assert.Equal(t, "B", meta.Get("ALBUM"))
	assert.Equal(t, "2020", meta.Get("DATE"))

	require.Len(t, sheet.Files, 1)
	assert.Equal(t, "x.wav", sheet.Files[0].Path)
	assert.Equal(t, "WAVE", sheet.Files[0].Type)

	require.Len(t, sheet.Tracks, 2)
	t1, t2 := sheet.Tracks[0], sheet.Tracks[1]
	assert.Equal(t, 1, t1.Num)
	assert.Equal(t, "AUDIO", t1.Type)
	assert.Equal(t, "One", t1.Title())
	assert.Equal(t, int64(0), t1.Start)
	assert.Equal(t, "Two", t2.Title())
	assert.Equal(t, int64(44100), t2.Start)

	end, ok := t1.End()
	require.True(t, ok)
	assert.Equal(t, int64(44100), end)
	_, ok = t2.End()
	assert.False(t, ok, "last track of the last file is open-ended")
}

func TestParseDefaults(t *testing.T) {
	sheet := parseLines(t, `
		FILE "x.wav" WAVE
		TRACK 1 AUDIO
	`)

	meta := sheet.Meta.Attrs()
	assert.Equal(t, "Unknown", meta.Get("PERFORMER"))
	assert.Equal(t, "Unknown", meta.Get("ALBUM"))
	assert.Equal(t, "Unknown", meta.Get("GENRE"))
	assert.False(t, meta.Has("DATE"))

	require.Len(t, sheet.Tracks, 1)
	assert.Equal(t, "Unknown", sheet.Tracks[0].Title())
	assert.Equal(t, int64(0), sheet.Tracks[0].Start, "no INDEX 01 leaves start at zero")
}

func TestParseAttributeInheritance(t *testing.T) {
	sheet := parseLines(t, `
		REM GENRE Rock
		PERFORMER "Artist"
		FILE "a.wav" WAVE
		TRACK 1 AUDIO
		TITLE "First"
		FILE "b.wav" WAVE
		REM COMPOSER "Someone"
		TRACK 2 AUDIO
		TITLE "Second"
		REM MOOD "Calm"
	`)

	require.Len(t, sheet.Files, 2)
	require.Len(t, sheet.Tracks, 2)
	t1, t2 := sheet.Tracks[0], sheet.Tracks[1]

	// Commands before any FILE land on the album context and are
	// inherited everywhere.
	assert.Equal(t, "Rock", t1.Attrs().Get("GENRE"))
	assert.Equal(t, "Rock", t2.Attrs().Get("GENRE"))
	assert.Equal(t, "Artist", t1.Attrs().Get("PERFORMER"))

	// COMPOSER was set on the second file after track 1 existed: track 2
	// inherits it, track 1 must not.
	assert.False(t, t1.Attrs().Has("COMPOSER"))
	assert.Equal(t, "Someone", t2.Attrs().Get("COMPOSER"))

	// MOOD was set after TRACK 2: it stays on that track alone.
	assert.False(t, t1.Attrs().Has("MOOD"))
	assert.False(t, sheet.Files[1].Attrs().Has("MOOD"))
	assert.Equal(t, "Calm", t2.Attrs().Get("MOOD"))

	// Track mappings are value copies; mutating one never leaks.
	t2.Attrs().Set("GENRE", "Jazz")
	assert.Equal(t, "Rock", t1.Attrs().Get("GENRE"))
	assert.Equal(t, "Rock", sheet.Meta.Attrs().Get("GENRE"))
}

func TestParseRemKeysAreUpperCased(t *testing.T) {
	sheet := parseLines(t, `
		rem Date "2020"
		REM comment "Dumped"
	`)
	assert.Equal(t, "2020", sheet.Meta.Attrs().Get("DATE"))
	assert.Equal(t, "Dumped", sheet.Meta.Attrs().Get("COMMENT"))
}

func TestParseTitleTargetsCurrentContext(t *testing.T) {
	sheet := parseLines(t, `
		TITLE "Album Title"
		FILE "x.wav" WAVE
		TRACK 1 AUDIO
		TITLE "Track Title"
	`)
	assert.Equal(t, "Album Title", sheet.Meta.Attrs().Get("ALBUM"))
	assert.False(t, sheet.Meta.Attrs().Has("TITLE"))
	assert.Equal(t, "Track Title", sheet.Tracks[0].Title())
}

func TestParseSecondaryIndexIgnored(t *testing.T) {
	sheet := parseLines(t, `
		FILE "x.wav" WAVE
		TRACK 1 AUDIO
		INDEX 00 00:00:33
		INDEX 01 00:00:35
		INDEX 02 00:10:00
	`)
	track := sheet.Tracks[0]
	want, err := cue.ToFrames("00:00:35")
	require.NoError(t, err)
	assert.Equal(t, want, track.Start)
	assert.Equal(t, "00:00:35", track.Attrs().Get("INDEX"))
}

func TestParseUnknownCommandsAreSkipped(t *testing.T) {
	sheet := parseLines(t, `
		CATALOG 1234567890123
		SONGWRITER "S"
		TITLE "B"
		FILE "x.wav" WAVE
		FLAGS DCP
		TRACK 1 AUDIO
		POSTGAP 00:02:00
		INDEX 01 00:00:00
	`)
	assert.Equal(t, "B", sheet.Meta.Attrs().Get("ALBUM"))
	require.Len(t, sheet.Tracks, 1)
	assert.Equal(t, int64(0), sheet.Tracks[0].Start)
}

func TestParseTrackBeforeFileFails(t *testing.T) {
	_, err := newTestParser().Parse([]string{"TRACK 1 AUDIO"})
	assert.ErrorIs(t, err, cue.ErrSyntax)
}

func TestParseBadTimecodeFails(t *testing.T) {
	_, err := newTestParser().Parse([]string{
		`FILE "x.wav" WAVE`,
		"TRACK 1 AUDIO",
		"INDEX 01 bogus",
	})
	assert.ErrorIs(t, err, cue.ErrTimecode)
}

func TestParseFileEncodingFallback(t *testing.T) {
	dir := t.TempDir()
	text := "PERFORMER \"В. С. Высоцкий\"\nTITLE \"Пять песен\"\nFILE \"img.wav\" WAVE\nTRACK 1 AUDIO\nINDEX 01 00:00:00\n"
	encoded, err := charmap.Windows1251.NewEncoder().String(text)
	require.NoError(t, err)
	path := filepath.Join(dir, "legacy.cue")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0644))

	parser := newTestParser()

	_, err = parser.ParseFile(path, "")
	assert.ErrorIs(t, err, cue.ErrDecode, "cp1251 bytes are not valid UTF-8")

	sheet, err := parser.ParseFile(path, "cp1251")
	require.NoError(t, err)
	assert.Equal(t, "В. С. Высоцкий", sheet.Meta.Attrs().Get("PERFORMER"))
	assert.Equal(t, "Пять песен", sheet.Meta.Attrs().Get("ALBUM"))
}

func TestParseFileUTF8WithBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.cue")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("TITLE \"B\"\n")...)
	require.NoError(t, os.WriteFile(path, content, 0644))

	sheet, err := newTestParser().ParseFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "B", sheet.Meta.Attrs().Get("ALBUM"))
}

func TestParseFileUnknownEncodingFallsBackToUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.cue")
	require.NoError(t, os.WriteFile(path, []byte("TITLE \"B\"\n"), 0644))

	sheet, err := newTestParser().ParseFile(path, "no-such-encoding")
	require.NoError(t, err)
	assert.Equal(t, "B", sheet.Meta.Attrs().Get("ALBUM"))
}
