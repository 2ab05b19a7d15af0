package editor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-dev/beam/pkg/types"
)

func TestTermSurfaceOpenFile(t *testing.T) {
	var buf bytes.Buffer
	s := NewTermSurface(&buf)

	require.NoError(t, s.OpenFile("cmd/main.go", 42))
	assert.Equal(t, "cmd/main.go:42\n", buf.String())

	buf.Reset()
	require.NoError(t, s.OpenFile("README.md", 0))
	assert.Equal(t, "README.md\n", buf.String())
}

func TestTermSurfaceShowDiff(t *testing.T) {
	var buf bytes.Buffer
	s := NewTermSurface(&buf)

	require.NoError(t, s.ShowDiff(types.DiffData{File: "a.go", Diff: "-x\n+y\n"}))
	assert.Equal(t, "-x\n+y\n", buf.String())

	buf.Reset()
	require.NoError(t, s.ShowDiff(types.DiffData{File: "a.go"}))
	assert.Contains(t, buf.String(), "no changes in a.go")
}

func TestNopSurfaceDiscardsEffects(t *testing.T) {
	var s Surface = NopSurface{}

	require.NoError(t, s.OpenFile("main.go", 3))
	require.NoError(t, s.ShowDiff(types.DiffData{File: "main.go"}))
	s.ShowInfo("applied")
	s.ShowError("failed")
}

func TestTermSurfaceNotices(t *testing.T) {
	var buf bytes.Buffer
	s := NewTermSurface(&buf)

	s.ShowInfo("Changes applied successfully!")
	s.ShowError("something broke")

	out := buf.String()
	assert.Contains(t, out, "Changes applied successfully!")
	assert.Contains(t, out, "error: something broke")
}
