// Package editor is the boundary to editor-specific effects: opening
// files, showing diffs, and surfacing notices. The coordinator only ever
// talks to the Surface interface; real editors implement it on their side.
package editor

import (
	"fmt"
	"io"

	"github.com/beam-dev/beam/internal/diff"
	"github.com/beam-dev/beam/internal/logging"
	"github.com/beam-dev/beam/pkg/types"
)

// Surface is the set of editor effects the coordinator may request.
// Failures are reported back as user-visible notices and never mutate
// session history.
type Surface interface {
	OpenFile(file string, line int) error
	ShowDiff(d types.DiffData) error
	ShowInfo(message string)
	ShowError(message string)
}

// TermSurface renders editor effects on a terminal. Used by the CLI and
// as the default surface when no editor is attached.
type TermSurface struct {
	out io.Writer
}

// NewTermSurface creates a terminal surface writing to out.
func NewTermSurface(out io.Writer) *TermSurface {
	return &TermSurface{out: out}
}

func (s *TermSurface) OpenFile(file string, line int) error {
	if line > 0 {
		fmt.Fprintf(s.out, "%s:%d\n", file, line)
	} else {
		fmt.Fprintln(s.out, file)
	}
	return nil
}

func (s *TermSurface) ShowDiff(d types.DiffData) error {
	text := diff.Render(d)
	if text == "" {
		fmt.Fprintf(s.out, "no changes in %s\n", d.File)
		return nil
	}
	fmt.Fprint(s.out, text)
	return nil
}

func (s *TermSurface) ShowInfo(message string) {
	fmt.Fprintln(s.out, message)
}

func (s *TermSurface) ShowError(message string) {
	fmt.Fprintf(s.out, "error: %s\n", message)
}

// NopSurface discards effects, logging them at debug level. Used in tests
// and headless operation.
type NopSurface struct{}

func (NopSurface) OpenFile(file string, line int) error {
	log := logging.For("editor")
	log.Debug().Str("file", file).Int("line", line).Msg("open file")
	return nil
}

func (NopSurface) ShowDiff(d types.DiffData) error {
	log := logging.For("editor")
	log.Debug().Str("file", d.File).Msg("show diff")
	return nil
}

func (NopSurface) ShowInfo(message string) {
	log := logging.For("editor")
	log.Debug().Str("message", message).Msg("info notice")
}

func (NopSurface) ShowError(message string) {
	log := logging.For("editor")
	log.Debug().Str("message", message).Msg("error notice")
}
