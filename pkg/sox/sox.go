// Package sox drives the external SoX utility that performs the actual
// audio trimming and tag writing.
package sox

import (
	"fmt"
	"log"
	"os/exec"
	"strings"

	"cuesplit/pkg/plan"
)

// DefaultCommand is the sox binary resolved from PATH when no explicit
// path is configured.
const DefaultCommand = "sox"

// Runner executes an external command, capturing its combined output, and
// reports success or failure through the returned error.
type Runner interface {
	Run(name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// Request describes one track extraction.
type Request struct {
	// Source audio file path.
	Source string
	// StartFrame is the trim start in sample frames.
	StartFrame int64
	// EndFrame is the trim end in sample frames; only meaningful when
	// HasEnd is set. Without an end the extraction runs to the end of
	// the source.
	EndFrame int64
	HasEnd   bool
	// Target is the output file path.
	Target string
	// Tags to embed as vorbis comments.
	Tags []plan.Tag
}

// Tool invokes SoX.
type Tool struct {
	path   string
	runner Runner
	logger *log.Logger

	// Verbose makes Tool echo every command line before running it.
	Verbose bool
}

// New returns a Tool running the binary at path ("" means DefaultCommand).
func New(path string, logger *log.Logger) *Tool {
	return NewWithRunner(path, execRunner{}, logger)
}

// NewWithRunner returns a Tool using a caller-supplied Runner; tests use
// this to record commands instead of spawning processes.
func NewWithRunner(path string, runner Runner, logger *log.Logger) *Tool {
	if path == "" {
		path = DefaultCommand
	}
	return &Tool{path: path, runner: runner, logger: logger}
}

// Available reports whether the sox binary can be located and run.
func (t *Tool) Available() bool {
	_, err := t.runner.Run(t.path, "-h")
	return err == nil
}

// Extract trims one track out of the source file into the target,
// embedding the request's tags.
func (t *Tool) Extract(req Request) error {
	args := buildArgs(req)
	if t.Verbose {
		t.logger.Printf("Executing: %s %s", t.path, strings.Join(args, " "))
	}
	out, err := t.runner.Run(t.path, args...)
	if err != nil {
		if len(out) > 0 {
			t.logger.Printf("sox output:\n%s", out)
		}
		return fmt.Errorf("sox: %w", err)
	}
	return nil
}

func buildArgs(req Request) []string {
	args := []string{"-V1", req.Source, "--comment="}
	for _, tag := range req.Tags {
		args = append(args, fmt.Sprintf("--add-comment=%s=%s", tag.Name, tag.Value))
	}
	args = append(args, req.Target, "trim", fmt.Sprintf("%ds", req.StartFrame))
	if req.HasEnd {
		args = append(args, fmt.Sprintf("%ds", req.EndFrame-req.StartFrame))
	}
	return args
}
