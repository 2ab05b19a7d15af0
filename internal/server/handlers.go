package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/beam-dev/beam/internal/session"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"agent":  s.coord.Healthy(r.Context()),
	})
}

type messageRequest struct {
	Text string `json:"text"`
}

// postMessage submits a user instruction. The response confirms the
// submit only; turn results stream over /event.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	if err := s.coord.SubmitUserMessage(req.Text); err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		case errors.Is(err, session.ErrTooManyPending):
			writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		}
		return
	}
	writeSuccess(w)
}

func (s *Server) postClear(w http.ResponseWriter, r *http.Request) {
	s.coord.ClearSession()
	writeSuccess(w)
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": s.coord.History(),
	})
}

type applyRequest struct {
	ChangeID string `json:"changeId"`
}

// postApplyChanges triggers an apply. The outcome arrives on /event as a
// changesApplied or error event.
func (s *Server) postApplyChanges(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.ChangeID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "changeId is required")
		return
	}
	s.coord.RequestApplyChanges(r.Context(), req.ChangeID)
	writeSuccess(w)
}
