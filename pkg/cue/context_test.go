package cue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuesplit/pkg/cue"
)

func TestAttrsKeepInsertionOrder(t *testing.T) {
	a := cue.NewAttrs()
	a.Set("PERFORMER", "A")
	a.Set("ALBUM", "B")
	a.Set("DATE", "2020")
	a.Set("PERFORMER", "C") // update must not reorder

	assert.Equal(t, []string{"PERFORMER", "ALBUM", "DATE"}, a.Keys())
	assert.Equal(t, "C", a.Get("PERFORMER"))
}

func TestAttrsCloneIsIndependent(t *testing.T) {
	parent := cue.NewAttrs()
	parent.Set("GENRE", "Rock")

	child := parent.Clone()
	child.Set("GENRE", "Jazz")
	child.Set("MOOD", "Calm")

	assert.Equal(t, "Rock", parent.Get("GENRE"))
	assert.False(t, parent.Has("MOOD"))

	parent.Set("DATE", "1999")
	assert.False(t, child.Has("DATE"))
}

func TestTrackEndIsNextTrackStartInSameFile(t *testing.T) {
	f := &cue.File{Path: "a.wav", Type: "WAVE"}
	t1 := &cue.Track{File: f, Num: 1, Start: 0}
	t2 := &cue.Track{File: f, Num: 2, Start: 44100}
	f.Tracks = []*cue.Track{t1, t2}

	end, ok := t1.End()
	require.True(t, ok)
	assert.Equal(t, int64(44100), end)
}

// Faithful quirk: the end lookup never leaves the owning file, so the last
// track of a non-final file reports no successor just like the very last
// track does. Callers see the zero sentinel, not "rest of that file".
func TestTrackEndStopsAtOwningFileBoundary(t *testing.T) {
	f1 := &cue.File{Path: "a.wav", Type: "WAVE"}
	f2 := &cue.File{Path: "b.wav", Type: "WAVE"}
	t1 := &cue.Track{File: f1, Num: 1, Start: 13013028}
	t2 := &cue.Track{File: f2, Num: 2, Start: 0}
	f1.Tracks = []*cue.Track{t1}
	f2.Tracks = []*cue.Track{t2}

	end, ok := t1.End()
	assert.False(t, ok, "intuitively t1 would span to the end of a.wav, but the same-file lookup finds nothing")
	assert.Equal(t, int64(0), end)

	end, ok = t2.End()
	assert.False(t, ok)
	assert.Equal(t, int64(0), end)
}
