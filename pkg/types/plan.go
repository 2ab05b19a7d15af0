package types

// SubTaskStatus tracks a single plan step. Transitions are monotonic:
// pending -> running -> completed|failed, never backwards.
type SubTaskStatus string

const (
	SubTaskPending   SubTaskStatus = "pending"
	SubTaskRunning   SubTaskStatus = "running"
	SubTaskCompleted SubTaskStatus = "completed"
	SubTaskFailed    SubTaskStatus = "failed"
)

// rank orders subtask statuses for monotonicity checks. Terminal states
// share the highest rank so completed never flips to failed or back.
func (s SubTaskStatus) rank() int {
	switch s {
	case SubTaskRunning:
		return 1
	case SubTaskCompleted, SubTaskFailed:
		return 2
	default:
		return 0
	}
}

// SubTask is a single step of an execution plan.
type SubTask struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      SubTaskStatus `json:"status"`
}

// ExecutionPlan describes how the agent intends to carry out a turn.
// Immutable once attached to a message except for subtask status advances.
type ExecutionPlan struct {
	Subtasks        []SubTask `json:"subtasks"`
	RiskLevel       float64   `json:"riskLevel"` // 0..1
	EstimatedImpact string    `json:"estimatedImpact"`
}

// Clone returns a deep copy of the plan.
func (p *ExecutionPlan) Clone() *ExecutionPlan {
	c := *p
	c.Subtasks = append([]SubTask(nil), p.Subtasks...)
	return &c
}

// AdoptStatuses merges an updated plan onto a previous one, refusing subtask
// status regressions. Subtasks are matched by ID; unknown IDs are taken
// as-is.
func (p *ExecutionPlan) AdoptStatuses(prev *ExecutionPlan) {
	if prev == nil {
		return
	}
	seen := make(map[string]SubTaskStatus, len(prev.Subtasks))
	for _, st := range prev.Subtasks {
		seen[st.ID] = st.Status
	}
	for i := range p.Subtasks {
		old, ok := seen[p.Subtasks[i].ID]
		if ok && p.Subtasks[i].Status.rank() < old.rank() {
			p.Subtasks[i].Status = old
		}
	}
}
