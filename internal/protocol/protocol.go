// Package protocol defines the typed event protocol between the host
// context and the UI context. Events travel as {type, data} envelopes;
// each direction has a closed set of event types with typed payloads.
package protocol

import (
	"github.com/beam-dev/beam/pkg/types"
)

// EventType identifies a protocol event.
type EventType string

// Host -> UI events.
const (
	EventUserMessage    EventType = "userMessage"
	EventAgentThinking  EventType = "agentThinking"
	EventAgentProgress  EventType = "agentProgress"
	EventAgentResponse  EventType = "agentResponse"
	EventChangesApplied EventType = "changesApplied"
	EventError          EventType = "error"
	EventClearChat      EventType = "clearChat"
	EventRestoreHistory EventType = "restoreHistory"
)

// UI -> host events.
const (
	EventSendMessage  EventType = "sendMessage"
	EventApplyChanges EventType = "applyChanges"
	EventViewDiff     EventType = "viewDiff"
	EventOpenFile     EventType = "openFile"
	EventClearHistory EventType = "clearHistory"
)

// HostToUI reports whether the event type flows from host to UI.
func (t EventType) HostToUI() bool {
	switch t {
	case EventUserMessage, EventAgentThinking, EventAgentProgress,
		EventAgentResponse, EventChangesApplied, EventError,
		EventClearChat, EventRestoreHistory:
		return true
	}
	return false
}

// Payload is implemented by every event payload.
type Payload interface {
	EventType() EventType
}

// Event pairs an event type with its payload.
type Event struct {
	Type EventType
	Data Payload
}

// New wraps a payload in an Event.
func New(p Payload) Event {
	return Event{Type: p.EventType(), Data: p}
}

// UserMessageData carries a finished user message.
type UserMessageData struct {
	Message *types.Message `json:"message"`
}

func (UserMessageData) EventType() EventType { return EventUserMessage }

// AgentThinkingData opens a new agent message for the given turn. This is
// the only event that creates an open agent message. Timestamp is the
// host-side creation time in Unix milliseconds; carrying it on the event
// keeps the UI fold free of clocks.
type AgentThinkingData struct {
	TurnID    string `json:"turnID"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Timestamp int64  `json:"timestamp"`
}

func (AgentThinkingData) EventType() EventType { return EventAgentThinking }

// AgentProgressData carries partial message fields to merge onto the open
// agent message of the turn. Zero-valued fields are left untouched.
type AgentProgressData struct {
	TurnID          string               `json:"turnID"`
	Status          types.Status         `json:"status,omitempty"`
	Content         string               `json:"content,omitempty"`
	Thinking        *types.Thinking      `json:"thinking,omitempty"`
	Plan            *types.ExecutionPlan `json:"plan,omitempty"`
	Changes         []types.FileChange   `json:"changes,omitempty"`
	Narrative       string               `json:"narrative,omitempty"`
	Recommendations []string             `json:"recommendations,omitempty"`
	Confidence      *float64             `json:"confidence,omitempty"`
	ChangeID        string               `json:"changeID,omitempty"`
}

func (AgentProgressData) EventType() EventType { return EventAgentProgress }

// AgentResponseData closes a turn with the full terminal agent message.
type AgentResponseData struct {
	TurnID  string         `json:"turnID"`
	Message *types.Message `json:"message"`
}

func (AgentResponseData) EventType() EventType { return EventAgentResponse }

// ChangesAppliedData reports the outcome of applying a change set.
// AppliedAt is the host-side apply time in Unix milliseconds.
type ChangesAppliedData struct {
	ChangeID  string `json:"changeId"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AppliedAt int64  `json:"appliedAt"`
}

func (ChangesAppliedData) EventType() EventType { return EventChangesApplied }

// ErrorData carries a user-readable failure. When TurnID names an open
// turn, the UI closes that turn's message as failed; otherwise a new
// failed entry is appended under ID. Timestamp is in Unix milliseconds.
type ErrorData struct {
	ID        string `json:"id"`
	TurnID    string `json:"turnID,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func (ErrorData) EventType() EventType { return EventError }

// ClearChatData empties the UI message list.
type ClearChatData struct{}

func (ClearChatData) EventType() EventType { return EventClearChat }

// RestoreHistoryData replaces the UI message list with a full snapshot.
type RestoreHistoryData struct {
	Messages []*types.Message `json:"messages"`
}

func (RestoreHistoryData) EventType() EventType { return EventRestoreHistory }

// SendMessageData submits a user instruction.
type SendMessageData struct {
	Text string `json:"text"`
}

func (SendMessageData) EventType() EventType { return EventSendMessage }

// ApplyChangesData requests applying a change set.
type ApplyChangesData struct {
	ChangeID string `json:"changeId"`
}

func (ApplyChangesData) EventType() EventType { return EventApplyChanges }

// ViewDiffData requests showing the diff of one file in a change set.
type ViewDiffData struct {
	ChangeID string `json:"changeId"`
	File     string `json:"file"`
}

func (ViewDiffData) EventType() EventType { return EventViewDiff }

// OpenFileData requests opening a file in the editor. Line is 1-based;
// zero means no specific line.
type OpenFileData struct {
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
}

func (OpenFileData) EventType() EventType { return EventOpenFile }

// ClearHistoryData requests clearing the session.
type ClearHistoryData struct{}

func (ClearHistoryData) EventType() EventType { return EventClearHistory }
