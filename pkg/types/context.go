package types

// CursorPosition is a 1-based editor cursor location.
type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ContextInfo is the ephemeral editor snapshot captured when a user
// instruction is dispatched. It is recomputed per turn and never persisted.
type ContextInfo struct {
	CurrentFile   string          `json:"currentFile,omitempty"`
	SelectedCode  string          `json:"selectedCode,omitempty"`
	Cursor        *CursorPosition `json:"cursorPosition,omitempty"`
	WorkspacePath string          `json:"workspacePath,omitempty"`
	Branch        string          `json:"branch,omitempty"`
}
