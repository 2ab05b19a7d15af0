package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-dev/beam/internal/beamapi"
	"github.com/beam-dev/beam/internal/session"
	"github.com/beam-dev/beam/internal/transport"
	"github.com/beam-dev/beam/pkg/types"
)

type stubAgent struct {
	response *types.TaskResponse
	healthy  bool
}

func (a *stubAgent) ExecuteTask(ctx context.Context, instruction string, info types.ContextInfo, onProgress beamapi.ProgressFunc) (*types.TaskResponse, error) {
	if a.response != nil {
		return a.response, nil
	}
	return &types.TaskResponse{Status: types.StatusCompleted, Narrative: "done"}, nil
}

func (a *stubAgent) ApplyChanges(ctx context.Context, changeID string) (*types.ApplyResult, error) {
	return &types.ApplyResult{Success: true, Message: "applied"}, nil
}

func (a *stubAgent) GetDiff(ctx context.Context, changeID, file string) (*types.DiffData, error) {
	return &types.DiffData{File: file}, nil
}

func (a *stubAgent) CheckHealth(ctx context.Context) bool { return a.healthy }

type stubSource struct{}

func (stubSource) Snapshot() types.ContextInfo {
	return types.ContextInfo{WorkspacePath: "/work", Branch: "main"}
}

func newTestServer(t *testing.T, agent *stubAgent) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	conn := transport.New()
	t.Cleanup(func() {
		cancel()
		conn.Close()
	})

	coord := session.NewCoordinator(conn.Host(), agent, stubSource{})
	require.NoError(t, coord.Start(ctx))

	return New(DefaultConfig(), coord, conn.UI())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubAgent{healthy: true})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["agent"])
}

func TestPostMessageAndListMessages(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/session/message",
		bytes.NewReader([]byte(`{"text":"fix the bug"}`)))
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The turn runs asynchronously; poll until it closes.
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session/messages", nil))
		if rec.Code != http.StatusOK {
			return false
		}
		var body struct {
			Messages []*types.Message `json:"messages"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			return false
		}
		return len(body.Messages) == 2 && body.Messages[1].Status == types.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)
}

func TestPostMessageRejectsBlank(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/session/message",
		bytes.NewReader([]byte(`{"text":"  "}`)))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeInvalidRequest, body.Error.Code)
}

func TestPostMessageRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/session/message",
		bytes.NewReader([]byte(`{not json`)))
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearSession(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/session/message",
		bytes.NewReader([]byte(`{"text":"hello"}`)))
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session/messages", nil))
		var body struct {
			Messages []*types.Message `json:"messages"`
		}
		return json.Unmarshal(rec.Body.Bytes(), &body) == nil && len(body.Messages) == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestApplyChangesRequiresID(t *testing.T) {
	srv := newTestServer(t, &stubAgent{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/changes/apply",
		bytes.NewReader([]byte(`{}`)))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "changeId is required", body.Error.Message)
}
