package util

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDirectory reports whether path exists and is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsRelevantFile reports whether a file matters for deciding when an
// album directory has finished downloading.
func IsRelevantFile(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".wav", ".flac", ".mp3", ".m4a", ".aac", ".ogg", ".ape", ".wv":
		return true
	case ".cue":
		return true
	default:
		return false
	}
}
