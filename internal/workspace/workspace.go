// Package workspace captures per-turn context snapshots of the user's
// working tree and editor state.
package workspace

import (
	"sync"

	"github.com/beam-dev/beam/pkg/types"
)

// EditorState supplies the editor-specific parts of a context snapshot.
// Implementations live on the editor side; a nil state yields a snapshot
// with workspace fields only.
type EditorState interface {
	CurrentFile() string
	SelectedCode() string
	Cursor() *types.CursorPosition
}

// Workspace produces context snapshots. Snapshots are ephemeral: captured
// fresh when a user instruction is dispatched and never persisted.
type Workspace struct {
	root string

	mu      sync.RWMutex
	editor  EditorState
	watcher *BranchWatcher
}

// New creates a workspace rooted at the given directory. If the directory
// is inside a git repository, a branch watcher keeps the snapshot's branch
// field current.
func New(root string) *Workspace {
	w := &Workspace{root: root}
	if bw, err := NewBranchWatcher(root); err == nil && bw != nil {
		bw.Start()
		w.watcher = bw
	}
	return w
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// SetEditorState attaches the editor-side context source.
func (w *Workspace) SetEditorState(es EditorState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editor = es
}

// Snapshot captures the current context. Called once per turn.
func (w *Workspace) Snapshot() types.ContextInfo {
	w.mu.RLock()
	editor := w.editor
	watcher := w.watcher
	w.mu.RUnlock()

	info := types.ContextInfo{WorkspacePath: w.root}
	if watcher != nil {
		info.Branch = watcher.Branch()
	}
	if editor != nil {
		info.CurrentFile = editor.CurrentFile()
		info.SelectedCode = editor.SelectedCode()
		info.Cursor = editor.Cursor()
	}
	return info
}

// Close stops the branch watcher.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		w.watcher.Stop()
		w.watcher = nil
	}
}
