package types

// FileChange describes one proposed file modification. The line counts are
// descriptive of the proposed diff and are never re-derived after apply.
type FileChange struct {
	File         string `json:"file"`
	LinesAdded   int    `json:"linesAdded"`
	LinesRemoved int    `json:"linesRemoved"`
	IsNewFile    bool   `json:"isNewFile"`
	Summary      string `json:"summary"`
}

// DiffData is a structured diff for a single file within a change set.
type DiffData struct {
	File  string     `json:"file"`
	Diff  string     `json:"diff"`
	Hunks []DiffHunk `json:"hunks,omitempty"`
}

// DiffHunk is one contiguous region of a unified diff.
type DiffHunk struct {
	OldStart int      `json:"oldStart"`
	OldLines int      `json:"oldLines"`
	NewStart int      `json:"newStart"`
	NewLines int      `json:"newLines"`
	Lines    []string `json:"lines"`
}

// ApplyResult is the outcome of applying a change set.
type ApplyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
