package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-dev/beam/pkg/types"
)

type fakeEditor struct {
	file      string
	selection string
	cursor    *types.CursorPosition
}

func (f *fakeEditor) CurrentFile() string           { return f.file }
func (f *fakeEditor) SelectedCode() string          { return f.selection }
func (f *fakeEditor) Cursor() *types.CursorPosition { return f.cursor }

func initFakeRepo(t *testing.T, branch string) string {
	t.Helper()
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(gitDir, "HEAD"),
		[]byte("ref: refs/heads/"+branch+"\n"), 0644))
	return dir
}

func TestSnapshotWithoutEditor(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)
	defer w.Close()

	info := w.Snapshot()
	assert.Equal(t, dir, info.WorkspacePath)
	assert.Empty(t, info.CurrentFile)
	assert.Nil(t, info.Cursor)
}

func TestSnapshotWithEditorState(t *testing.T) {
	dir := initFakeRepo(t, "main")
	w := New(dir)
	defer w.Close()

	w.SetEditorState(&fakeEditor{
		file:      "internal/app.go",
		selection: "func main()",
		cursor:    &types.CursorPosition{Line: 4, Column: 1},
	})

	info := w.Snapshot()
	assert.Equal(t, "internal/app.go", info.CurrentFile)
	assert.Equal(t, "func main()", info.SelectedCode)
	require.NotNil(t, info.Cursor)
	assert.Equal(t, 4, info.Cursor.Line)
	assert.Equal(t, "main", info.Branch)
}

func TestReadHEAD(t *testing.T) {
	dir := initFakeRepo(t, "feature/x")
	assert.Equal(t, "feature/x", readHEAD(filepath.Join(dir, ".git")))

	// Detached HEAD has no branch.
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ".git", "HEAD"),
		[]byte("0123456789abcdef0123456789abcdef01234567\n"), 0644))
	assert.Empty(t, readHEAD(filepath.Join(dir, ".git")))
}

func TestFindGitDirWalksUp(t *testing.T) {
	dir := initFakeRepo(t, "main")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	assert.Equal(t, filepath.Join(dir, ".git"), findGitDir(nested))
	assert.Empty(t, findGitDir(t.TempDir()))
}

func TestBranchWatcherTracksSwitch(t *testing.T) {
	dir := initFakeRepo(t, "main")

	bw, err := NewBranchWatcher(dir)
	require.NoError(t, err)
	require.NotNil(t, bw)
	bw.Start()
	defer bw.Stop()

	assert.Equal(t, "main", bw.Branch())

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ".git", "HEAD"),
		[]byte("ref: refs/heads/fix/panic\n"), 0644))

	assert.Eventually(t, func() bool {
		return bw.Branch() == "fix/panic"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewBranchWatcherOutsideRepo(t *testing.T) {
	bw, err := NewBranchWatcher(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, bw)
}
