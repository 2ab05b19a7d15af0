package server

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-dev/beam/internal/protocol"
	"github.com/beam-dev/beam/pkg/types"
)

// readEvent reads one SSE record, skipping heartbeat comments.
func readEvent(t *testing.T, r *bufio.Reader) protocol.Event {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, "data: ") {
			ev, err := protocol.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")))
			require.NoError(t, err)
			return ev
		}
	}
}

func TestEventStream(t *testing.T) {
	agent := &stubAgent{response: &types.TaskResponse{
		Status:    types.StatusCompleted,
		Narrative: "patched it",
		ChangeID:  "chg-1",
	}}
	srv := newTestServer(t, agent)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/event", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// First record is the history snapshot for this client.
	first := readEvent(t, reader)
	require.Equal(t, protocol.EventRestoreHistory, first.Type)
	assert.Empty(t, first.Data.(protocol.RestoreHistoryData).Messages)

	// Submit a message over HTTP and watch the turn stream out.
	post, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.URL+"/session/message",
		bytes.NewReader([]byte(`{"text":"fix the bug"}`)))
	require.NoError(t, err)
	post.Header.Set("Content-Type", "application/json")
	postResp, err := http.DefaultClient.Do(post)
	require.NoError(t, err)
	postResp.Body.Close()
	require.Equal(t, http.StatusOK, postResp.StatusCode)

	userEv := readEvent(t, reader)
	require.Equal(t, protocol.EventUserMessage, userEv.Type)
	assert.Equal(t, "fix the bug", userEv.Data.(protocol.UserMessageData).Message.Content)

	thinkEv := readEvent(t, reader)
	require.Equal(t, protocol.EventAgentThinking, thinkEv.Type)

	respEv := readEvent(t, reader)
	require.Equal(t, protocol.EventAgentResponse, respEv.Type)
	msg := respEv.Data.(protocol.AgentResponseData).Message
	assert.Equal(t, types.StatusCompleted, msg.Status)
	assert.Equal(t, "chg-1", msg.ChangeID)
}

func TestEventStreamSnapshotCarriesHistory(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	// Seed a finished turn before any client connects.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/session/message",
		bytes.NewReader([]byte(`{"text":"hello"}`)))
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Eventually(t, func() bool {
		return len(srv.coord.History()) == 2
	}, 5*time.Second, 20*time.Millisecond)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	streamReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/event", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(streamReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	first := readEvent(t, bufio.NewReader(resp.Body))
	require.Equal(t, protocol.EventRestoreHistory, first.Type)
	restored := first.Data.(protocol.RestoreHistoryData).Messages
	require.Len(t, restored, 2)
	assert.Equal(t, "hello", restored[0].Content)
	assert.Equal(t, types.RoleAgent, restored[1].Role)
}
