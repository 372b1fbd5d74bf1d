// Package plan turns a parsed Cue Sheet into output paths, per-track file
// names and the tag set attached to each extracted track.
package plan

import (
	"fmt"
	"strconv"
	"strings"

	"cuesplit/pkg/cue"
)

// Tag is one metadata comment to attach to an extracted track.
type Tag struct {
	Name  string
	Value string
}

// BundleSegments returns the per-album directory segments
// [performer, title], where title is "<date> - <album>" when the sheet
// carries a date. Both segments have path separators removed.
func BundleSegments(meta *cue.Meta) []string {
	attrs := meta.Attrs()
	title := attrs.Get("ALBUM")
	if date, ok := attrs.Lookup("DATE"); ok && date != "" {
		title = date + " - " + title
	}
	return []string{
		stripSeparators(attrs.Get("PERFORMER")),
		stripSeparators(title),
	}
}

// TrackFileName formats "<num> - <title>.flac", zero-padding the track
// number to the digit count of the sheet's total track count.
func TrackFileName(t *cue.Track, totalTracks int) string {
	width := len(strconv.Itoa(totalTracks))
	return fmt.Sprintf("%0*d - %s.flac", width, t.Num, stripSeparators(t.Title()))
}

// cueToVorbis maps sheet attribute keys to output tag names, in emission
// order.
var cueToVorbis = []struct {
	key  string
	name string
}{
	{"TITLE", "TITLE"},
	{"PERFORMER", "ARTIST"},
	{"ALBUM", "ALBUM"},
	{"GENRE", "GENRE"},
	{"DATE", "DATE"},
	{"ISRC", "ISRC"},
	{"COMMENT", "DESCRIPTION"},
}

// Tags returns the ordered tag list for a track. Attributes that are
// absent or empty are skipped.
func Tags(t *cue.Track) []Tag {
	tags := []Tag{{Name: "TRACKNUMBER", Value: strconv.Itoa(t.Num)}}
	attrs := t.Attrs()
	for _, m := range cueToVorbis {
		if val, ok := attrs.Lookup(m.key); ok && val != "" {
			tags = append(tags, Tag{Name: m.name, Value: val})
		}
	}
	return tags
}

func stripSeparators(name string) string {
	name = strings.ReplaceAll(name, "/", "")
	return strings.ReplaceAll(name, "\\", "")
}
