package types

// TaskProgress reports intermediate progress of a running task.
type TaskProgress struct {
	CurrentTask int    `json:"currentTask"`
	TotalTasks  int    `json:"totalTasks"`
	Message     string `json:"message"`
}

// TaskResponse is the terminal result of one agent API call. Status is
// completed or failed for finished tasks; intermediate statuses appear only
// in progress callbacks.
type TaskResponse struct {
	Status          Status         `json:"status"`
	Plan            *ExecutionPlan `json:"plan,omitempty"`
	Progress        *TaskProgress  `json:"progress,omitempty"`
	Changes         []FileChange   `json:"changes,omitempty"`
	Narrative       string         `json:"narrative,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"`
	ChangeID        string         `json:"changeId,omitempty"`
	Error           string         `json:"error,omitempty"`
}
