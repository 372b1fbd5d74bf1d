package cue

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"

	"cuesplit/pkg/converter"
)

var (
	// ErrDecode reports sheet text that could not be decoded under any
	// attempted encoding.
	ErrDecode = errors.New("unable to decode cue sheet")
	// ErrSyntax reports a structured field that could not be parsed.
	ErrSyntax = errors.New("malformed cue sheet")
)

// Parser interprets Cue Sheet commands into a Sheet.
type Parser struct {
	conv   converter.TextConverter
	logger *log.Logger
}

// NewParser returns a parser. conv may be nil; when set it is applied to
// PERFORMER and TITLE values as they are parsed.
func NewParser(conv converter.TextConverter, logger *log.Logger) *Parser {
	return &Parser{conv: conv, logger: logger}
}

// ParseFile reads and parses the sheet at path. encoding names the
// character encoding of the file ("cp1251", "gbk", ...); when empty or
// when decoding with it fails, one UTF-8 fallback attempt is made.
func (p *Parser) ParseFile(path, encoding string) (*Sheet, error) {
	lines, err := p.readLines(path, encoding)
	if err != nil {
		return nil, err
	}
	return p.Parse(lines)
}

// Parse interprets the given lines, already trimmed with blanks dropped.
func (p *Parser) Parse(lines []string) (*Sheet, error) {
	sheet := newSheet()

	for _, line := range lines {
		cmd, args := splitCommand(line)

		switch strings.ToUpper(cmd) {
		case "REM":
			key, val := splitCommand(args)
			sheet.setAttr(strings.ToUpper(key), val)

		case "PERFORMER":
			sheet.setAttr("PERFORMER", p.normalize(args))

		case "TITLE":
			if sheet.inMeta() {
				sheet.setAttr("ALBUM", p.normalize(args))
			} else {
				sheet.setAttr("TITLE", p.normalize(args))
			}

		case "FILE":
			path, ftype, err := splitFileArgs(args)
			if err != nil {
				return nil, err
			}
			sheet.addFile(path, ftype)

		case "TRACK":
			numStr, dtype := splitCommand(args)
			num, err := strconv.Atoi(numStr)
			if err != nil {
				return nil, fmt.Errorf("%w: bad track number %q", ErrSyntax, numStr)
			}
			if err := sheet.addTrack(num, dtype); err != nil {
				return nil, err
			}

		case "INDEX":
			numStr, pos := splitCommand(args)
			// Only index 01 marks the track start; other index
			// numbers carry no position information for us.
			if numStr != "01" {
				continue
			}
			track := sheet.currentTrack()
			if track == nil {
				return nil, fmt.Errorf("%w: INDEX outside of a track", ErrSyntax)
			}
			frames, err := ToFrames(pos)
			if err != nil {
				return nil, err
			}
			sheet.setAttr("INDEX", pos)
			track.Start = frames

		case "FLAGS":
			// Recognized but carries nothing we use.

		default:
			p.logger.Printf("Unknown command %q. Skipping ...", cmd)
		}
	}

	return sheet, nil
}

func (p *Parser) normalize(val string) string {
	if p.conv == nil {
		return val
	}
	return p.conv.TradToSim(val)
}

// splitCommand splits a line into its first whitespace-delimited token and
// the unquoted remainder.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return line, ""
	}
	return line[:idx], unquote(line[idx+1:])
}

// splitFileArgs splits "path type" where the path may be quoted and may
// itself contain spaces; the type tag is the last space-separated token.
func splitFileArgs(args string) (string, string, error) {
	idx := strings.LastIndex(args, " ")
	if idx < 0 {
		return "", "", fmt.Errorf("%w: FILE needs a path and a type", ErrSyntax)
	}
	return unquote(args[:idx]), strings.TrimSpace(args[idx+1:]), nil
}

func unquote(val string) string {
	return strings.Trim(val, ` "`)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readLines reads the sheet at path and returns its non-blank trimmed
// lines. A caller-supplied encoding is tried first; UTF-8 is the single
// fallback before giving up.
func (p *Parser) readLines(path, encoding string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if encoding != "" {
		text, err := decodeAs(raw, encoding)
		if err == nil {
			return splitLines(text), nil
		}
		p.logger.Printf("Decoding %s as %q failed (%v). Falling back to UTF-8.",
			filepath.Base(path), encoding, err)
	}

	// UTF-8 fallback: accept a BOM, then require valid UTF-8.
	data := bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s (provide a correct encoding)", ErrDecode, filepath.Base(path))
	}
	return splitLines(string(data)), nil
}

func decodeAs(raw []byte, name string) (string, error) {
	enc, err := htmlindex.Get(strings.ToLower(name))
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
