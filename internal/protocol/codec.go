package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrUnknownEventType is returned when decoding an envelope whose type is
// not part of the protocol.
var ErrUnknownEventType = fmt.Errorf("unknown event type")

// envelope is the wire form of an event.
type envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Marshal encodes an event into its {type, data} wire form.
func Marshal(ev Event) ([]byte, error) {
	if ev.Data == nil {
		return nil, fmt.Errorf("event %q has no payload", ev.Type)
	}
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal %q payload: %w", ev.Type, err)
	}
	return json.Marshal(envelope{Type: ev.Data.EventType(), Data: data})
}

// Unmarshal decodes a {type, data} envelope into a typed event. Payloads
// are returned as values so consumers can switch on concrete types.
func Unmarshal(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("decode envelope: %w", err)
	}

	payload, err := decodePayload(env.Type, env.Data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: env.Type, Data: payload}, nil
}

// decodeAs unmarshals raw payload bytes into a concrete payload value. An
// absent data field yields the zero payload (clearChat and clearHistory
// carry none).
func decodeAs[T Payload](t EventType, data json.RawMessage) (Payload, error) {
	var d T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode %q payload: %w", t, err)
		}
	}
	return d, nil
}

func decodePayload(t EventType, data json.RawMessage) (Payload, error) {
	switch t {
	case EventUserMessage:
		return decodeAs[UserMessageData](t, data)
	case EventAgentThinking:
		return decodeAs[AgentThinkingData](t, data)
	case EventAgentProgress:
		return decodeAs[AgentProgressData](t, data)
	case EventAgentResponse:
		return decodeAs[AgentResponseData](t, data)
	case EventChangesApplied:
		return decodeAs[ChangesAppliedData](t, data)
	case EventError:
		return decodeAs[ErrorData](t, data)
	case EventClearChat:
		return decodeAs[ClearChatData](t, data)
	case EventRestoreHistory:
		return decodeAs[RestoreHistoryData](t, data)
	case EventSendMessage:
		return decodeAs[SendMessageData](t, data)
	case EventApplyChanges:
		return decodeAs[ApplyChangesData](t, data)
	case EventViewDiff:
		return decodeAs[ViewDiffData](t, data)
	case EventOpenFile:
		return decodeAs[OpenFileData](t, data)
	case EventClearHistory:
		return decodeAs[ClearHistoryData](t, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
	}
}
