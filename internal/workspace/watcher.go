package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/beam-dev/beam/internal/logging"
)

// BranchWatcher tracks the current git branch by monitoring .git/HEAD, so
// snapshots never have to shell out to git.
type BranchWatcher struct {
	watcher *fsnotify.Watcher
	gitDir  string

	mu     sync.RWMutex
	branch string

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

// NewBranchWatcher creates a watcher for the repository containing workDir.
// Returns nil if workDir is not inside a git repository.
func NewBranchWatcher(workDir string) (*BranchWatcher, error) {
	gitDir := findGitDir(workDir)
	if gitDir == "" {
		return nil, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the .git directory itself; watching HEAD directly misses the
	// rename git uses to update it.
	if err := w.Add(gitDir); err != nil {
		w.Close()
		return nil, err
	}

	bw := &BranchWatcher{
		watcher: w,
		gitDir:  gitDir,
		branch:  readHEAD(gitDir),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	return bw, nil
}

// Branch returns the current branch name, or empty when detached/unknown.
func (bw *BranchWatcher) Branch() string {
	bw.mu.RLock()
	defer bw.mu.RUnlock()
	return bw.branch
}

// Start begins watching for branch changes.
func (bw *BranchWatcher) Start() {
	bw.mu.Lock()
	if bw.started {
		bw.mu.Unlock()
		return
	}
	bw.started = true
	bw.mu.Unlock()
	go bw.run()
}

func (bw *BranchWatcher) run() {
	defer close(bw.doneCh)
	log := logging.For("workspace")

	for {
		select {
		case <-bw.stopCh:
			return
		case ev, ok := <-bw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != "HEAD" {
				continue
			}
			branch := readHEAD(bw.gitDir)
			bw.mu.Lock()
			changed := branch != bw.branch
			bw.branch = branch
			bw.mu.Unlock()
			if changed {
				log.Debug().Str("branch", branch).Msg("git branch changed")
			}
		case err, ok := <-bw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("branch watcher error")
		}
	}
}

// Stop stops the watcher and waits for the run loop to exit.
func (bw *BranchWatcher) Stop() {
	bw.mu.Lock()
	if !bw.started {
		bw.mu.Unlock()
		bw.watcher.Close()
		return
	}
	bw.mu.Unlock()

	close(bw.stopCh)
	<-bw.doneCh
	bw.watcher.Close()
}

// readHEAD parses .git/HEAD into a branch name. A detached HEAD yields "".
func readHEAD(gitDir string) string {
	data, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return ""
	}
	head := strings.TrimSpace(string(data))
	const prefix = "ref: refs/heads/"
	if strings.HasPrefix(head, prefix) {
		return strings.TrimPrefix(head, prefix)
	}
	return ""
}

// findGitDir walks up from dir looking for a .git directory.
func findGitDir(dir string) string {
	for {
		candidate := filepath.Join(dir, ".git")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
