package types

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Status tracks the lifecycle of an agent message. User messages carry no
// status; an empty Status means the message is a finished user entry.
type Status string

const (
	StatusThinking  Status = "thinking"
	StatusPlanning  Status = "planning"
	StatusExecuting Status = "executing"
	StatusVerifying Status = "verifying"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status closes a turn.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Thinking is the progress snapshot shown while a turn is unfinished.
type Thinking struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"` // 0..100
}

// MessageTime contains timestamps for a message, in Unix milliseconds.
// Created is set once and never updated; Applied is stamped when the
// message's change set has been applied.
type MessageTime struct {
	Created int64  `json:"created"`
	Applied *int64 `json:"applied,omitempty"`
}

// Message is the unit of conversation history.
type Message struct {
	ID      string      `json:"id"`
	TurnID  string      `json:"turnID,omitempty"`
	Role    Role        `json:"role"`
	Content string      `json:"content"`
	Time    MessageTime `json:"time"`

	Status   Status    `json:"status,omitempty"`
	Thinking *Thinking `json:"thinking,omitempty"`

	Plan            *ExecutionPlan `json:"plan,omitempty"`
	Changes         []FileChange   `json:"changes,omitempty"`
	Narrative       string         `json:"narrative,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"`
	ChangeID        string         `json:"changeID,omitempty"`
}

// Open reports whether the message is the open agent message of an
// unfinished turn.
func (m *Message) Open() bool {
	return m.Role == RoleAgent && !m.Status.Terminal()
}

// MarkApplied stamps the applied timestamp once. Repeat calls keep the
// original stamp.
func (m *Message) MarkApplied(at time.Time) {
	if m.Time.Applied != nil {
		return
	}
	ms := at.UnixMilli()
	m.Time.Applied = &ms
}

// Clone returns a deep copy of the message. The store and the restore
// snapshot must never alias coordinator-owned state.
func (m *Message) Clone() *Message {
	c := *m
	if m.Time.Applied != nil {
		applied := *m.Time.Applied
		c.Time.Applied = &applied
	}
	if m.Thinking != nil {
		thinking := *m.Thinking
		c.Thinking = &thinking
	}
	if m.Plan != nil {
		c.Plan = m.Plan.Clone()
	}
	if m.Changes != nil {
		c.Changes = append([]FileChange(nil), m.Changes...)
	}
	if m.Recommendations != nil {
		c.Recommendations = append([]string(nil), m.Recommendations...)
	}
	if m.Confidence != nil {
		conf := *m.Confidence
		c.Confidence = &conf
	}
	return &c
}
