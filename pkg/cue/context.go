package cue

import "fmt"

// Attrs is an ordered key/value mapping holding the textual attributes of a
// sheet, file or track context. Keys keep their insertion order so that
// snapshots and log output stay deterministic.
type Attrs struct {
	keys []string
	vals map[string]string
}

// NewAttrs returns an empty mapping.
func NewAttrs() *Attrs {
	return &Attrs{vals: make(map[string]string)}
}

// Set stores val under key, appending the key on first use.
func (a *Attrs) Set(key, val string) {
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = val
}

// Get returns the value for key, or "" when absent.
func (a *Attrs) Get(key string) string {
	return a.vals[key]
}

// Lookup returns the value for key and whether it is present.
func (a *Attrs) Lookup(key string) (string, bool) {
	v, ok := a.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (a *Attrs) Has(key string) bool {
	_, ok := a.vals[key]
	return ok
}

// Keys returns the keys in insertion order.
func (a *Attrs) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of stored keys.
func (a *Attrs) Len() int {
	return len(a.keys)
}

// Clone returns an independent copy. Mutating the copy never affects the
// original, and vice versa.
func (a *Attrs) Clone() *Attrs {
	c := &Attrs{
		keys: make([]string, len(a.keys)),
		vals: make(map[string]string, len(a.vals)),
	}
	copy(c.keys, a.keys)
	for k, v := range a.vals {
		c.vals[k] = v
	}
	return c
}

// Meta carries the album-level attributes of a sheet.
type Meta struct {
	attrs *Attrs
}

// Attrs returns the album attribute mapping.
func (m *Meta) Attrs() *Attrs { return m.attrs }

// File is one physical audio image referenced by the sheet.
type File struct {
	// Path as written in the FILE command, usually relative to the sheet.
	Path string
	// Type is the declared type tag (WAVE, MP3, ...).
	Type string
	// Tracks belonging to this file, in document order.
	Tracks []*Track

	attrs *Attrs
}

// Attrs returns the attribute mapping snapshotted when the FILE command
// was parsed.
func (f *File) Attrs() *Attrs { return f.attrs }

// Track is one logical track of the image.
type Track struct {
	// File owning this track.
	File *File
	// Num is the track number from the TRACK command.
	Num int
	// Type is the declared data type (AUDIO, ...).
	Type string
	// Start position in sample frames, set by INDEX 01.
	Start int64

	attrs *Attrs
}

// Attrs returns the track attribute mapping, seeded from the owning file.
func (t *Track) Attrs() *Attrs { return t.attrs }

// Title returns the track title, "Unknown" when the sheet never set one.
func (t *Track) Title() string { return t.attrs.Get("TITLE") }

// End returns the start position of the next track within the same file.
// The lookup never crosses file boundaries: any track without a successor
// in its own file reports (0, false), including the last track of a
// non-final file, whose end the caller must treat as the zero sentinel
// rather than "rest of that file".
func (t *Track) End() (int64, bool) {
	tracks := t.File.Tracks
	for i, tr := range tracks {
		if tr == t {
			if i+1 < len(tracks) {
				return tracks[i+1].Start, true
			}
			break
		}
	}
	return 0, false
}

// context is any scope generic commands may write attributes into.
type context interface {
	Attrs() *Attrs
}

// Sheet is the parsed form of one Cue Sheet. It lives for a single
// parse/plan/extract cycle and is discarded afterwards.
type Sheet struct {
	// Meta holds the album-level context.
	Meta *Meta
	// Files in document order.
	Files []*File
	// Tracks across all files, in document order.
	Tracks []*Track

	// current is the context generic commands target. It starts at Meta
	// and moves to each FileContext/TrackContext as they are created.
	current     context
	currentFile *File
}

func newSheet() *Sheet {
	attrs := NewAttrs()
	attrs.Set("PERFORMER", "Unknown")
	attrs.Set("ALBUM", "Unknown")
	attrs.Set("GENRE", "Unknown")
	meta := &Meta{attrs: attrs}
	return &Sheet{Meta: meta, current: meta}
}

func (s *Sheet) inMeta() bool {
	return s.current == context(s.Meta)
}

func (s *Sheet) setAttr(key, val string) {
	s.current.Attrs().Set(key, val)
}

func (s *Sheet) addFile(path, ftype string) {
	f := &File{
		Path:  path,
		Type:  ftype,
		attrs: s.current.Attrs().Clone(),
	}
	s.Files = append(s.Files, f)
	s.current = f
	s.currentFile = f
}

func (s *Sheet) addTrack(num int, dtype string) error {
	if s.currentFile == nil {
		return fmt.Errorf("%w: TRACK before any FILE", ErrSyntax)
	}
	attrs := s.currentFile.attrs.Clone()
	if !attrs.Has("TITLE") {
		attrs.Set("TITLE", "Unknown")
	}
	t := &Track{
		File:  s.currentFile,
		Num:   num,
		Type:  dtype,
		attrs: attrs,
	}
	s.currentFile.Tracks = append(s.currentFile.Tracks, t)
	s.Tracks = append(s.Tracks, t)
	s.current = t
	return nil
}

func (s *Sheet) currentTrack() *Track {
	t, _ := s.current.(*Track)
	return t
}
