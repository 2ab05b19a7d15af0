// Package diff computes structured diffs between file contents.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/beam-dev/beam/pkg/types"
)

// lineOp is a single line of a diff: ' ' context, '-' removed, '+' added.
type lineOp struct {
	op   byte
	text string
}

// Compute builds a structured diff for one file from its before and after
// contents. It returns the diff plus the added and removed line counts.
func Compute(file, before, after string) (types.DiffData, int, int) {
	if before == after {
		return types.DiffData{File: file}, 0, 0
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ops []lineOp
	for _, d := range diffs {
		var op byte
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = '+'
		case diffmatchpatch.DiffDelete:
			op = '-'
		default:
			op = ' '
		}
		for _, line := range splitLines(d.Text) {
			ops = append(ops, lineOp{op: op, text: line})
		}
	}

	hunks := groupHunks(ops)

	added, removed := 0, 0
	for _, h := range hunks {
		added += h.NewLines
		removed += h.OldLines
	}

	data := types.DiffData{
		File:  file,
		Diff:  renderUnified(file, hunks),
		Hunks: hunks,
	}
	return data, added, removed
}

// groupHunks collapses contiguous changed lines into zero-context hunks.
func groupHunks(ops []lineOp) []types.DiffHunk {
	var hunks []types.DiffHunk
	oldLine, newLine := 0, 0

	i := 0
	for i < len(ops) {
		if ops[i].op == ' ' {
			oldLine++
			newLine++
			i++
			continue
		}

		oldStart, newStart := oldLine, newLine
		var h types.DiffHunk
		for i < len(ops) && ops[i].op != ' ' {
			h.Lines = append(h.Lines, string(ops[i].op)+ops[i].text)
			if ops[i].op == '-' {
				h.OldLines++
				oldLine++
			} else {
				h.NewLines++
				newLine++
			}
			i++
		}

		// Unified-diff convention: a zero-length side points at the line
		// after which the change applies.
		h.OldStart = oldStart
		if h.OldLines > 0 {
			h.OldStart = oldStart + 1
		}
		h.NewStart = newStart
		if h.NewLines > 0 {
			h.NewStart = newStart + 1
		}
		hunks = append(hunks, h)
	}

	return hunks
}

// renderUnified renders hunks as unified diff text with file headers.
func renderUnified(file string, hunks []types.DiffHunk) string {
	if len(hunks) == 0 {
		return ""
	}

	var sb strings.Builder
	if file != "" {
		fmt.Fprintf(&sb, "--- %s\n", file)
		fmt.Fprintf(&sb, "+++ %s\n", file)
	}
	for _, h := range hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
		for _, line := range h.Lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Render returns displayable unified diff text for a DiffData, preferring
// server-provided text over reconstruction from hunks.
func Render(d types.DiffData) string {
	if d.Diff != "" {
		return d.Diff
	}
	return renderUnified(d.File, d.Hunks)
}

// splitLines splits text into lines, ignoring a trailing newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
