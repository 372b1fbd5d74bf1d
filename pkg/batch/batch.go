// Package batch walks a source tree for Cue Sheets and splits each one
// into per-track files through the sox collaborator.
package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"cuesplit/pkg/cue"
	"cuesplit/pkg/plan"
	"cuesplit/pkg/sox"
)

// OutputDirName is the reserved output folder created next to source
// directories when no destination is given. Directories with this name
// are never scanned for sheets.
const OutputDirName = "cuesplit"

var (
	// ErrToolUnavailable means sox cannot be located or run at all.
	ErrToolUnavailable = errors.New("sox seems not available, please install it (e.g. `sudo apt-get install sox libsox-fmt-all`)")
	// ErrSourceMissing means the source path does not exist.
	ErrSourceMissing = errors.New("source path is not found")
)

// Splitter processes Cue Sheets in batch: strictly sequential, one
// directory at a time, one sheet at a time, one track at a time.
type Splitter struct {
	// source is the absolute source root; sheet-relative audio paths
	// are joined against each sheet's own directory, never against a
	// mutated process working directory.
	source   string
	dest     string
	encoding string
	dryRun   bool

	parser *cue.Parser
	tool   *sox.Tool
	logger *log.Logger
}

// New prepares a Splitter. destPath may be empty, in which case output
// lands in an OutputDirName folder beside each source directory. The
// source path must exist.
func New(sourcePath, destPath, encoding string, dryRun bool, parser *cue.Parser, tool *sox.Tool, logger *log.Logger) (*Splitter, error) {
	src, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, src)
	}
	dest := ""
	if destPath != "" {
		if dest, err = filepath.Abs(destPath); err != nil {
			return nil, err
		}
	}
	logger.Printf("Source path: %s", src)
	return &Splitter{
		source:   src,
		dest:     dest,
		encoding: encoding,
		dryRun:   dryRun,
		parser:   parser,
		tool:     tool,
		logger:   logger,
	}, nil
}

// Run processes every sheet under the source path. The sox availability
// probe runs first (for real, even on dry runs) and an unavailable tool
// aborts the whole batch. Per-sheet failures are logged and skipped.
func (s *Splitter) Run(recursive bool) error {
	if !s.tool.Available() {
		return ErrToolUnavailable
	}

	sheets, err := s.collect(recursive)
	if err != nil {
		return err
	}

	if s.dest != "" {
		if err := s.ensureDir(s.dest); err != nil {
			return fmt.Errorf("create destination %s: %w", s.dest, err)
		}
	}

	dirs := make([]string, 0, len(sheets))
	for dir := range sheets {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		s.logger.Printf("Working on: %s", dir)

		target := filepath.Join(dir, OutputDirName)
		if s.dest != "" {
			// A user-supplied destination is namespaced by the
			// source directory name, so recursion over several
			// directories cannot collide.
			target = filepath.Join(s.dest, filepath.Base(dir))
		}
		if err := s.ensureDir(target); err != nil {
			s.logger.Printf("ERROR: cannot create target path %s: %v", target, err)
			continue
		}
		s.logger.Printf("Target (output) path: %s", target)

		for _, name := range sheets[dir] {
			if err := s.processSheet(filepath.Join(dir, name), dir, target); err != nil {
				s.logger.Printf("ERROR: %s: %v", name, err)
			}
		}
	}

	s.logger.Println("We are done. Thank you.")
	return nil
}

// collect maps directories to their sorted .cue file names. Directories
// named OutputDirName are skipped entirely.
func (s *Splitter) collect(recursive bool) (map[string][]string, error) {
	s.logger.Printf("Enumerating files under the source path (recursive=%v) ...", recursive)
	found := make(map[string][]string)

	if recursive {
		err := filepath.WalkDir(s.source, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == OutputDirName {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(d.Name()) == ".cue" {
				dir := filepath.Dir(path)
				found[dir] = append(found[dir], d.Name())
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		if filepath.Base(s.source) == OutputDirName {
			return found, nil
		}
		entries, err := os.ReadDir(s.source)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".cue" {
				found[s.source] = append(found[s.source], entry.Name())
			}
		}
	}

	for dir := range found {
		sort.Strings(found[dir])
	}
	return found, nil
}

// processSheet parses one sheet and extracts its tracks into target.
// A missing source audio file skips the sheet with a logged error; parse
// and path failures surface as errors handled at the Run boundary.
func (s *Splitter) processSheet(cuePath, dir, target string) error {
	s.logger.Printf("Processing `%s`", filepath.Base(cuePath))

	sheet, err := s.parser.ParseFile(cuePath, s.encoding)
	if err != nil {
		return err
	}

	for _, f := range sheet.Files {
		src := resolve(dir, f.Path)
		if _, err := os.Stat(src); err != nil {
			s.logger.Printf("ERROR: Source file `%s` is not found. Cue Sheet is skipped.", f.Path)
			return nil
		}
	}

	segments := plan.BundleSegments(sheet.Meta)
	bundle := filepath.Join(append([]string{target}, segments...)...)
	if err := s.ensureDir(bundle); err != nil {
		return fmt.Errorf("create bundle path %s: %w", bundle, err)
	}

	total := len(sheet.Tracks)
	for i, track := range sheet.Tracks {
		name := plan.TrackFileName(track, total)

		end, hasEnd := track.End()
		if !hasEnd && i != total-1 {
			// No successor within the owning file. Only the final
			// track of the final file is open-ended; elsewhere the
			// end stays at the zero sentinel, matching the
			// same-file lookup rule.
			end, hasEnd = 0, true
		}

		req := sox.Request{
			Source:     resolve(dir, track.File.Path),
			StartFrame: track.Start,
			EndFrame:   end,
			HasEnd:     hasEnd,
			Target:     filepath.Join(bundle, name),
			Tags:       plan.Tags(track),
		}

		s.logger.Printf("Extracting `%s` ...", name)
		if s.dryRun {
			continue
		}
		if err := s.tool.Extract(req); err != nil {
			s.logger.Printf("ERROR: extraction failed for `%s`: %v", name, err)
		}
	}
	return nil
}

func (s *Splitter) ensureDir(path string) error {
	if s.dryRun {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

// resolve joins a sheet-relative path against the sheet's directory.
func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
