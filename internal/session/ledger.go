package session

import (
	"sync"
	"time"

	"github.com/beam-dev/beam/pkg/types"
)

// LedgerEntry records one change set and whether it has been applied.
// The file change line counts are descriptive of the proposed diff and
// are never recomputed after apply.
type LedgerEntry struct {
	ChangeID  string
	Changes   []types.FileChange
	AppliedAt *time.Time
}

// Ledger maps change IDs to apply state. A change set is recorded at most
// once per turn and applied at most once.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*LedgerEntry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*LedgerEntry)}
}

// Record registers a change set. Recording an already-known ID is a no-op
// so replayed terminal messages cannot reset apply state.
func (l *Ledger) Record(changeID string, changes []types.FileChange) {
	if changeID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[changeID]; ok {
		return
	}
	l.entries[changeID] = &LedgerEntry{
		ChangeID: changeID,
		Changes:  append([]types.FileChange(nil), changes...),
	}
}

// MarkApplied stamps an entry as applied. Returns true only on the first
// successful stamp; unknown or already-applied IDs return false.
func (l *Ledger) MarkApplied(changeID string, at time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[changeID]
	if !ok || entry.AppliedAt != nil {
		return false
	}
	entry.AppliedAt = &at
	return true
}

// Applied reports whether the change set has been applied.
func (l *Ledger) Applied(changeID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[changeID]
	return ok && entry.AppliedAt != nil
}

// Get returns a copy of the entry for a change ID.
func (l *Ledger) Get(changeID string) (LedgerEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[changeID]
	if !ok {
		return LedgerEntry{}, false
	}
	cp := LedgerEntry{
		ChangeID: entry.ChangeID,
		Changes:  append([]types.FileChange(nil), entry.Changes...),
	}
	if entry.AppliedAt != nil {
		at := *entry.AppliedAt
		cp.AppliedAt = &at
	}
	return cp, true
}
