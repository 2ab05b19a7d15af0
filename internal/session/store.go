package session

import (
	"context"
	"sync"

	"github.com/beam-dev/beam/internal/logging"
	"github.com/beam-dev/beam/internal/protocol"
	"github.com/beam-dev/beam/pkg/types"
)

// Store is the UI-side mirror of the conversation. It folds the host->UI
// event stream into an ordered message list, strictly in arrival order.
// The fold is deterministic: no clocks, no randomness, so replaying the
// same event sequence always yields the same list. The local list is a
// disposable derivative; the coordinator's history is authoritative.
type Store struct {
	mu       sync.RWMutex
	messages []*types.Message
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Run consumes events until the channel closes or ctx is done.
func (s *Store) Run(ctx context.Context, events <-chan protocol.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Apply(ev)
		}
	}
}

// Apply folds one event into the message list.
func (s *Store) Apply(ev protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch data := ev.Data.(type) {
	case protocol.UserMessageData:
		if data.Message != nil {
			s.messages = append(s.messages, data.Message.Clone())
		}

	case protocol.AgentThinkingData:
		s.messages = append(s.messages, &types.Message{
			ID:     data.TurnID,
			TurnID: data.TurnID,
			Role:   types.RoleAgent,
			Time:   types.MessageTime{Created: data.Timestamp},
			Status: types.StatusThinking,
			Thinking: &types.Thinking{
				Status:   data.Status,
				Progress: data.Progress,
			},
		})

	case protocol.AgentProgressData:
		msg := s.findOpen(data.TurnID)
		if msg == nil {
			// No open message to target; self-corrects on later events.
			return
		}
		mergeProgress(msg, data)

	case protocol.AgentResponseData:
		if data.Message == nil {
			return
		}
		incoming := data.Message.Clone()
		if idx := s.findOpenIndex(data.TurnID); idx >= 0 {
			s.messages[idx] = incoming
		} else {
			// Open message lost (e.g. restore raced the turn); append so
			// the result is not dropped.
			s.messages = append(s.messages, incoming)
		}

	case protocol.ChangesAppliedData:
		if !data.Success {
			return
		}
		for _, msg := range s.messages {
			if msg.ChangeID == data.ChangeID {
				if msg.Time.Applied == nil {
					at := data.AppliedAt
					msg.Time.Applied = &at
				}
				return
			}
		}

	case protocol.ErrorData:
		if msg := s.findOpen(data.TurnID); msg != nil && data.TurnID != "" {
			// Close the stranded turn as a single failed entry.
			msg.Status = types.StatusFailed
			msg.Content = data.Message
			msg.Thinking = nil
			return
		}
		s.messages = append(s.messages, &types.Message{
			ID:      data.ID,
			TurnID:  data.TurnID,
			Role:    types.RoleAgent,
			Content: data.Message,
			Time:    types.MessageTime{Created: data.Timestamp},
			Status:  types.StatusFailed,
		})

	case protocol.ClearChatData:
		s.messages = nil

	case protocol.RestoreHistoryData:
		restored := make([]*types.Message, 0, len(data.Messages))
		for _, msg := range data.Messages {
			if msg != nil {
				restored = append(restored, msg.Clone())
			}
		}
		s.messages = restored

	default:
		log := logging.For("store")
		log.Debug().Str("type", string(ev.Type)).Msg("ignoring event")
	}
}

// findOpen locates the open agent message for a turn. With a turn ID the
// match is exact; without one it falls back to the last open agent
// message, preserving the positional protocol.
func (s *Store) findOpen(turnID string) *types.Message {
	if idx := s.findOpenIndex(turnID); idx >= 0 {
		return s.messages[idx]
	}
	return nil
}

func (s *Store) findOpenIndex(turnID string) int {
	for i := len(s.messages) - 1; i >= 0; i-- {
		msg := s.messages[i]
		if !msg.Open() {
			continue
		}
		if turnID == "" || msg.TurnID == turnID {
			return i
		}
		return -1 // the single open message belongs to another turn
	}
	return -1
}

// mergeProgress shallow-merges non-zero progress fields onto the open
// message. Plan subtask statuses never regress.
func mergeProgress(msg *types.Message, data protocol.AgentProgressData) {
	if data.Status != "" {
		msg.Status = data.Status
	} else {
		msg.Status = types.StatusExecuting
	}
	if data.Content != "" {
		msg.Content = data.Content
	}
	if data.Thinking != nil {
		thinking := *data.Thinking
		msg.Thinking = &thinking
	}
	if data.Plan != nil {
		plan := data.Plan.Clone()
		plan.AdoptStatuses(msg.Plan)
		msg.Plan = plan
	}
	if data.Changes != nil {
		msg.Changes = append([]types.FileChange(nil), data.Changes...)
	}
	if data.Narrative != "" {
		msg.Narrative = data.Narrative
	}
	if data.Recommendations != nil {
		msg.Recommendations = append([]string(nil), data.Recommendations...)
	}
	if data.Confidence != nil {
		conf := *data.Confidence
		msg.Confidence = &conf
	}
	if data.ChangeID != "" {
		msg.ChangeID = data.ChangeID
	}
}

// Messages returns a deep copy of the current list.
func (s *Store) Messages() []*types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Message, len(s.messages))
	for i, msg := range s.messages {
		out[i] = msg.Clone()
	}
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// OpenTurn returns the turn ID of the open agent message, if any.
func (s *Store) OpenTurn() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Open() {
			return s.messages[i].TurnID, true
		}
	}
	return "", false
}
