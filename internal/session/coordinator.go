package session

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/beam-dev/beam/internal/beamapi"
	"github.com/beam-dev/beam/internal/editor"
	"github.com/beam-dev/beam/internal/logging"
	"github.com/beam-dev/beam/internal/protocol"
	"github.com/beam-dev/beam/internal/transport"
	"github.com/beam-dev/beam/pkg/types"
)

// AgentClient is the slice of the agent API the coordinator needs.
// *beamapi.Client satisfies it.
type AgentClient interface {
	ExecuteTask(ctx context.Context, instruction string, info types.ContextInfo, onProgress beamapi.ProgressFunc) (*types.TaskResponse, error)
	ApplyChanges(ctx context.Context, changeID string) (*types.ApplyResult, error)
	GetDiff(ctx context.Context, changeID, file string) (*types.DiffData, error)
	CheckHealth(ctx context.Context) bool
}

// ContextSource provides the editor context snapshot captured at submit
// time. *workspace.Workspace satisfies it.
type ContextSource interface {
	Snapshot() types.ContextInfo
}

// submitQueueSize bounds pending turns. Submits beyond the bound fail
// fast instead of piling up behind a slow agent.
const submitQueueSize = 16

type turnRequest struct {
	text  string
	epoch uint64
}

// Coordinator owns the canonical session history and drives turns. Every
// state change flows out as a protocol event in the same order it was
// applied to history, so the UI fold always converges to the host state.
//
// Turns are strictly serialized: submits are queued and a single worker
// runs them one at a time. Clearing the session bumps an epoch counter;
// results from turns started under an older epoch are dropped.
type Coordinator struct {
	endpoint transport.Endpoint
	agent    AgentClient
	source   ContextSource
	surface  editor.Surface
	ledger   *Ledger
	log      zerolog.Logger

	maxHistory int
	autoApply  bool

	mu      sync.Mutex
	history []*types.Message
	epoch   uint64

	turns chan turnRequest
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxHistory caps the canonical history length. Oldest messages are
// evicted first. Zero means unbounded.
func WithMaxHistory(n int) CoordinatorOption {
	return func(c *Coordinator) { c.maxHistory = n }
}

// WithAutoApply makes the coordinator apply change sets as soon as a
// turn completes with one.
func WithAutoApply(enabled bool) CoordinatorOption {
	return func(c *Coordinator) { c.autoApply = enabled }
}

// WithSurface sets the editor surface for effects and notices.
func WithSurface(s editor.Surface) CoordinatorOption {
	return func(c *Coordinator) { c.surface = s }
}

// NewCoordinator creates a coordinator bound to one transport endpoint.
func NewCoordinator(endpoint transport.Endpoint, agent AgentClient, source ContextSource, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		endpoint: endpoint,
		agent:    agent,
		source:   source,
		surface:  editor.NopSurface{},
		ledger:   NewLedger(),
		log:      logging.For("coordinator"),
		turns:    make(chan turnRequest, submitQueueSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to UI events and launches the dispatch loop and the
// turn worker. It returns once the subscription is live; processing
// continues until ctx is done.
func (c *Coordinator) Start(ctx context.Context) error {
	events, err := c.endpoint.Receive(ctx)
	if err != nil {
		return err
	}
	go c.turnWorker(ctx)
	go func() {
		for ev := range events {
			c.dispatch(ctx, ev)
		}
	}()
	return nil
}

// dispatch routes one UI event.
func (c *Coordinator) dispatch(ctx context.Context, ev protocol.Event) {
	switch data := ev.Data.(type) {
	case protocol.SendMessageData:
		if err := c.SubmitUserMessage(data.Text); err != nil {
			c.log.Warn().Err(err).Msg("submit rejected")
			c.surface.ShowError(err.Error())
		}
	case protocol.ApplyChangesData:
		c.RequestApplyChanges(ctx, data.ChangeID)
	case protocol.ViewDiffData:
		c.RequestViewDiff(ctx, data.ChangeID, data.File)
	case protocol.OpenFileData:
		c.RequestOpenFile(data.File, data.Line)
	case protocol.ClearHistoryData:
		c.ClearSession()
	default:
		c.log.Debug().Str("type", string(ev.Type)).Msg("ignoring event")
	}
}

// SubmitUserMessage appends the user message to history, announces it to
// the UI, and queues a turn. Empty or blank text is rejected.
func (c *Coordinator) SubmitUserMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Reserve the turn slot before touching history, so a full queue
	// leaves no user entry behind whose turn will never run. The worker
	// cannot open the turn before we release the lock, keeping the
	// userMessage event ahead of agentThinking.
	select {
	case c.turns <- turnRequest{text: text, epoch: c.epoch}:
	default:
		return ErrTooManyPending
	}

	msg := &types.Message{
		ID:      newID(),
		Role:    types.RoleUser,
		Content: text,
		Time:    types.MessageTime{Created: time.Now().UnixMilli()},
	}
	c.history = append(c.history, msg)
	c.trimHistoryLocked()
	c.emitLocked(protocol.UserMessageData{Message: msg.Clone()})
	return nil
}

func (c *Coordinator) turnWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-c.turns:
			c.runTurn(ctx, req)
		}
	}
}

// runTurn executes one agent turn end to end.
func (c *Coordinator) runTurn(ctx context.Context, req turnRequest) {
	turnID := newID()
	log := c.log.With().Str("turnID", turnID).Logger()

	c.mu.Lock()
	if req.epoch != c.epoch {
		c.mu.Unlock()
		log.Debug().Msg("dropping turn from cleared session")
		return
	}
	opened := &types.Message{
		ID:     turnID,
		TurnID: turnID,
		Role:   types.RoleAgent,
		Time:   types.MessageTime{Created: time.Now().UnixMilli()},
		Status: types.StatusThinking,
		Thinking: &types.Thinking{
			Status:   "Analyzing your request...",
			Progress: 0,
		},
	}
	c.history = append(c.history, opened)
	c.trimHistoryLocked()
	c.emitLocked(protocol.AgentThinkingData{
		TurnID:    turnID,
		Status:    opened.Thinking.Status,
		Progress:  opened.Thinking.Progress,
		Timestamp: opened.Time.Created,
	})
	c.mu.Unlock()

	info := c.source.Snapshot()
	log.Info().Str("file", info.CurrentFile).Str("branch", info.Branch).Msg("starting turn")

	onProgress := func(update types.TaskResponse) {
		c.forwardProgress(turnID, req.epoch, update)
	}

	resp, err := c.agent.ExecuteTask(ctx, req.text, info, onProgress)

	c.mu.Lock()
	defer c.mu.Unlock()
	if req.epoch != c.epoch {
		log.Debug().Msg("dropping turn result from cleared session")
		return
	}

	if err != nil {
		log.Error().Err(err).Msg("turn failed")
		failed := c.failedMessage(turnID, err.Error())
		c.replaceOpenTurnLocked(turnID, failed)
		c.emitLocked(protocol.ErrorData{
			ID:        newID(),
			TurnID:    turnID,
			Message:   err.Error(),
			Timestamp: failed.Time.Created,
		})
		return
	}

	final := c.terminalMessage(turnID, resp)
	c.ledger.Record(final.ChangeID, final.Changes)
	c.closeTurnLocked(turnID, final)
	log.Info().Str("status", string(final.Status)).Str("changeID", final.ChangeID).Msg("turn finished")

	if c.autoApply && final.ChangeID != "" && final.Status == types.StatusCompleted {
		go c.RequestApplyChanges(ctx, final.ChangeID)
	}
}

// forwardProgress relays a streaming update as an agentProgress event and
// merges it into the open history message.
func (c *Coordinator) forwardProgress(turnID string, epoch uint64, update types.TaskResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	data := protocol.AgentProgressData{
		TurnID:          turnID,
		Status:          update.Status,
		Narrative:       update.Narrative,
		Recommendations: update.Recommendations,
		Confidence:      update.Confidence,
		ChangeID:        update.ChangeID,
		Plan:            update.Plan,
		Changes:         update.Changes,
	}
	if update.Progress != nil {
		percent := 0
		if update.Progress.TotalTasks > 0 {
			percent = update.Progress.CurrentTask * 100 / update.Progress.TotalTasks
		}
		data.Thinking = &types.Thinking{
			Status:   update.Progress.Message,
			Progress: percent,
		}
	}
	if msg := c.openTurnLocked(turnID); msg != nil {
		mergeProgress(msg, data)
	}
	c.emitLocked(data)
}

// closeTurnLocked replaces the open message of the turn with its terminal
// form and emits the matching agentResponse. Callers hold c.mu.
func (c *Coordinator) closeTurnLocked(turnID string, final *types.Message) {
	c.replaceOpenTurnLocked(turnID, final)
	c.emitLocked(protocol.AgentResponseData{TurnID: turnID, Message: final.Clone()})
}

func (c *Coordinator) replaceOpenTurnLocked(turnID string, final *types.Message) {
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].TurnID == turnID && c.history[i].Open() {
			c.history[i] = final
			return
		}
	}
	c.history = append(c.history, final)
	c.trimHistoryLocked()
}

// terminalMessage builds the closed agent message from a task response.
func (c *Coordinator) terminalMessage(turnID string, resp *types.TaskResponse) *types.Message {
	status := types.StatusCompleted
	content := resp.Narrative
	if resp.Status == types.StatusFailed {
		status = types.StatusFailed
		content = resp.Error
	}
	if content == "" {
		content = "Task completed"
	}
	return &types.Message{
		ID:              turnID,
		TurnID:          turnID,
		Role:            types.RoleAgent,
		Content:         content,
		Time:            types.MessageTime{Created: time.Now().UnixMilli()},
		Status:          status,
		Plan:            resp.Plan,
		Changes:         resp.Changes,
		Narrative:       resp.Narrative,
		Recommendations: resp.Recommendations,
		Confidence:      resp.Confidence,
		ChangeID:        resp.ChangeID,
	}
}

func (c *Coordinator) failedMessage(turnID, message string) *types.Message {
	return &types.Message{
		ID:      turnID,
		TurnID:  turnID,
		Role:    types.RoleAgent,
		Content: message,
		Time:    types.MessageTime{Created: time.Now().UnixMilli()},
		Status:  types.StatusFailed,
	}
}

// RequestApplyChanges applies a recorded change set. Applying an
// already-applied set re-emits the original confirmation instead of
// calling the agent again.
func (c *Coordinator) RequestApplyChanges(ctx context.Context, changeID string) {
	if changeID == "" {
		c.surface.ShowError("no changes to apply")
		return
	}

	if entry, ok := c.ledger.Get(changeID); ok && entry.AppliedAt != nil {
		c.mu.Lock()
		c.emitLocked(protocol.ChangesAppliedData{
			ChangeID:  changeID,
			Success:   true,
			Message:   "Changes already applied",
			AppliedAt: entry.AppliedAt.UnixMilli(),
		})
		c.mu.Unlock()
		return
	}

	result, err := c.agent.ApplyChanges(ctx, changeID)
	if err != nil {
		c.reportApplyFailure(changeID, err.Error())
		return
	}
	if !result.Success {
		message := result.Message
		if message == "" {
			message = "failed to apply changes"
		}
		c.reportApplyFailure(changeID, message)
		return
	}

	at := time.Now()
	c.ledger.MarkApplied(changeID, at)

	c.mu.Lock()
	for _, msg := range c.history {
		if msg.ChangeID == changeID {
			msg.MarkApplied(at)
			break
		}
	}
	c.emitLocked(protocol.ChangesAppliedData{
		ChangeID:  changeID,
		Success:   true,
		Message:   result.Message,
		AppliedAt: at.UnixMilli(),
	})
	c.mu.Unlock()

	c.surface.ShowInfo("Changes applied successfully!")
	c.log.Info().Str("changeID", changeID).Msg("changes applied")
}

// reportApplyFailure surfaces an apply failure. History is untouched; the
// change set stays applicable.
func (c *Coordinator) reportApplyFailure(changeID, message string) {
	c.log.Error().Str("changeID", changeID).Str("message", message).Msg("apply failed")
	c.surface.ShowError("Failed to apply changes: " + message)
	c.mu.Lock()
	c.emitLocked(protocol.ErrorData{
		ID:        newID(),
		Message:   "Failed to apply changes: " + message,
		Timestamp: time.Now().UnixMilli(),
	})
	c.mu.Unlock()
}

// RequestViewDiff fetches and shows the diff of one file in a change set.
func (c *Coordinator) RequestViewDiff(ctx context.Context, changeID, file string) {
	d, err := c.agent.GetDiff(ctx, changeID, file)
	if err != nil {
		c.log.Error().Err(err).Str("changeID", changeID).Str("file", file).Msg("diff fetch failed")
		c.surface.ShowError("Failed to load diff: " + err.Error())
		return
	}
	if err := c.surface.ShowDiff(*d); err != nil {
		c.surface.ShowError("Failed to show diff: " + err.Error())
	}
}

// RequestOpenFile opens a file in the editor.
func (c *Coordinator) RequestOpenFile(file string, line int) {
	if err := c.surface.OpenFile(file, line); err != nil {
		c.log.Error().Err(err).Str("file", file).Msg("open file failed")
		c.surface.ShowError("Failed to open file: " + err.Error())
	}
}

// ClearSession wipes canonical history and tells the UI to do the same.
// In-flight turns keep running but their results are dropped.
func (c *Coordinator) ClearSession() {
	c.mu.Lock()
	c.epoch++
	c.history = nil
	c.emitLocked(protocol.ClearChatData{})
	c.mu.Unlock()
	c.log.Info().Msg("session cleared")
}

// Attach replays the canonical history to a freshly connected UI. A nil
// history still emits, so a reconnecting UI drops any stale local state.
func (c *Coordinator) Attach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]*types.Message, len(c.history))
	for i, msg := range c.history {
		snapshot[i] = msg.Clone()
	}
	c.emitLocked(protocol.RestoreHistoryData{Messages: snapshot})
}

// History returns a deep copy of the canonical history.
func (c *Coordinator) History() []*types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*types.Message, len(c.history))
	for i, msg := range c.history {
		out[i] = msg.Clone()
	}
	return out
}

// Healthy reports whether the agent API answers its health check.
func (c *Coordinator) Healthy(ctx context.Context) bool {
	return c.agent.CheckHealth(ctx)
}

// openTurnLocked finds the open history message for a turn. Callers hold
// c.mu.
func (c *Coordinator) openTurnLocked(turnID string) *types.Message {
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].TurnID == turnID && c.history[i].Open() {
			return c.history[i]
		}
	}
	return nil
}

// emitLocked sends an event while holding c.mu, so event order on the
// wire matches mutation order on history.
func (c *Coordinator) emitLocked(p protocol.Payload) {
	if err := c.endpoint.Send(protocol.New(p)); err != nil {
		c.log.Error().Err(err).Str("type", string(p.EventType())).Msg("event send failed")
	}
}

// trimHistoryLocked drops oldest messages beyond the cap. Callers hold
// c.mu.
func (c *Coordinator) trimHistoryLocked() {
	if c.maxHistory <= 0 || len(c.history) <= c.maxHistory {
		return
	}
	excess := len(c.history) - c.maxHistory
	c.history = append([]*types.Message(nil), c.history[excess:]...)
}

func newID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
