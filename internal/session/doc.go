// Package session implements the conversation state of a Beam session:
// the host-side Coordinator that owns canonical history and drives turns,
// the UI-side Store that folds protocol events into a display list, and
// the Ledger that tracks which change sets have been applied.
package session
