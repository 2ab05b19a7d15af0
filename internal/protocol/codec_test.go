package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-dev/beam/pkg/types"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	msg := &types.Message{
		ID:      "m1",
		TurnID:  "t1",
		Role:    types.RoleAgent,
		Content: "done",
		Status:  types.StatusCompleted,
		Changes: []types.FileChange{{File: "main.go", LinesAdded: 2, LinesRemoved: 1, Summary: "fix"}},
	}

	data, err := Marshal(New(AgentResponseData{TurnID: "t1", Message: msg}))
	require.NoError(t, err)

	ev, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, EventAgentResponse, ev.Type)

	payload, ok := ev.Data.(AgentResponseData)
	require.True(t, ok)
	assert.Equal(t, "t1", payload.TurnID)
	assert.Equal(t, "done", payload.Message.Content)
	assert.Equal(t, types.StatusCompleted, payload.Message.Status)
	assert.Len(t, payload.Message.Changes, 1)
}

func TestUnmarshalEmptyDataPayload(t *testing.T) {
	data, err := Marshal(New(ClearChatData{}))
	require.NoError(t, err)

	ev, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, EventClearChat, ev.Type)
	_, ok := ev.Data.(ClearChatData)
	assert.True(t, ok)
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := Unmarshal([]byte(`{"type":"bogusEvent","data":{}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestUnmarshalMalformedEnvelope(t *testing.T) {
	_, err := Unmarshal([]byte(`{not json`))
	assert.Error(t, err)
}

func TestMarshalUsesPayloadType(t *testing.T) {
	// An inconsistent Type on the Event is overridden by the payload's own
	// event type, so producers cannot mislabel an envelope.
	data, err := Marshal(Event{Type: EventError, Data: SendMessageData{Text: "hi"}})
	require.NoError(t, err)

	ev, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, EventSendMessage, ev.Type)
}

func TestDirection(t *testing.T) {
	assert.True(t, EventAgentResponse.HostToUI())
	assert.True(t, EventRestoreHistory.HostToUI())
	assert.False(t, EventSendMessage.HostToUI())
	assert.False(t, EventClearHistory.HostToUI())
}
