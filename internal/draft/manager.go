package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/instrumentation"
	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/oracle"
)

// State is a conversation's position in the draft workflow. Idle is
// represented by the absence of a conversation entry.
type State string

const (
	// StateDraftReady means a draft exists and awaits a send, edit,
	// regenerate, or cancel action.
	StateDraftReady State = "draft_ready"

	// StateAwaitingInstructions means the next free-form text is consumed
	// as refinement instructions for a regeneration.
	StateAwaitingInstructions State = "awaiting_instructions"

	// StateAwaitingEdit means the next free-form text replaces the draft
	// body verbatim.
	StateAwaitingEdit State = "awaiting_edit"
)

var (
	// ErrNoDraft is returned when an action references a conversation with
	// no active draft.
	ErrNoDraft = errors.New("no active draft")

	// ErrDraftExpired is returned by Send when the action's message id does
	// not match the stored draft.
	ErrDraftExpired = errors.New("draft expired")
)

// Draft is one pending reply. OriginalContent keeps the source message text
// so regeneration always starts from the original, never from a previously
// generated body.
type Draft struct {
	MessageID       string
	ThreadID        string
	Recipient       string
	Subject         string
	Body            string
	OriginalContent string
}

type conversation struct {
	state State
	draft *Draft
}

// Manager is the per-conversation draft state machine. All transitions for
// all conversations are serialized under one mutex; the mutex is held across
// oracle and mailbox calls so a conversation can never observe a half-applied
// transition.
type Manager struct {
	gateway gmail.Gateway
	oracle  oracle.Oracle
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu            sync.Mutex
	conversations map[string]*conversation
}

// NewManager creates an empty draft manager. metrics may be nil.
func NewManager(gateway gmail.Gateway, o oracle.Oracle, logger *slog.Logger, metrics *instrumentation.Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		gateway:       gateway,
		oracle:        o,
		logger:        logging.WithComponent(logger, "draft"),
		metrics:       metrics,
		conversations: make(map[string]*conversation),
	}
}

// Reply starts the draft workflow for a message: fetch the full message,
// generate an initial draft body, and store it keyed by conversation id.
// A conversation that already holds a draft gets it replaced.
func (m *Manager) Reply(ctx context.Context, conversationID, messageID string) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, err := m.gateway.GetDetail(ctx, messageID)
	if err != nil {
		m.metrics.RecordDraftTransition(ctx, "reply", instrumentation.StatusError)
		return nil, fmt.Errorf("failed to fetch message %s: %w", messageID, err)
	}

	body, err := m.generateReply(ctx, msg.Content(), "")
	if err != nil {
		m.metrics.RecordDraftTransition(ctx, "reply", instrumentation.StatusError)
		return nil, fmt.Errorf("failed to generate draft: %w", err)
	}

	d := &Draft{
		MessageID:       msg.ID,
		ThreadID:        msg.ThreadID,
		Recipient:       msg.Sender,
		Subject:         msg.Subject,
		Body:            body,
		OriginalContent: msg.Content(),
	}
	m.conversations[conversationID] = &conversation{state: StateDraftReady, draft: d}

	m.logger.Info("draft created",
		logging.Conversation(conversationID),
		logging.MessageID(messageID))
	m.metrics.RecordDraftTransition(ctx, "reply", instrumentation.StatusSuccess)

	return d, nil
}

// Send delivers the stored draft as a reply and clears the conversation.
// The action's message id must match the stored draft; a stale action after
// the draft was replaced fails with ErrDraftExpired and changes nothing.
func (m *Manager) Send(ctx context.Context, conversationID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[conversationID]
	if !ok {
		return ErrNoDraft
	}
	if conv.draft.MessageID != messageID {
		m.metrics.RecordDraftTransition(ctx, "send", instrumentation.StatusError)
		return ErrDraftExpired
	}

	d := conv.draft
	if err := m.gateway.SendReply(ctx, d.ThreadID, d.Recipient, d.Subject, d.Body); err != nil {
		m.metrics.RecordDraftTransition(ctx, "send", instrumentation.StatusError)
		return fmt.Errorf("failed to send reply: %w", err)
	}

	delete(m.conversations, conversationID)

	m.logger.Info("draft sent",
		logging.Conversation(conversationID),
		logging.MessageID(messageID))
	m.metrics.RecordDraftTransition(ctx, "send", instrumentation.StatusSuccess)

	return nil
}

// Edit arms the conversation so its next free-form text replaces the draft
// body. A second Edit or Regenerate before the text arrives re-arms the same
// slot; there is no queueing.
func (m *Manager) Edit(ctx context.Context, conversationID string) error {
	return m.arm(ctx, conversationID, StateAwaitingEdit, "edit")
}

// Regenerate arms the conversation so its next free-form text is used as
// refinement instructions for a fresh generation from the original message.
func (m *Manager) Regenerate(ctx context.Context, conversationID string) error {
	return m.arm(ctx, conversationID, StateAwaitingInstructions, "regenerate")
}

func (m *Manager) arm(ctx context.Context, conversationID string, state State, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[conversationID]
	if !ok {
		return ErrNoDraft
	}
	conv.state = state

	m.logger.Info("draft armed",
		logging.Conversation(conversationID),
		slog.String("state", string(state)))
	m.metrics.RecordDraftTransition(ctx, action, instrumentation.StatusSuccess)

	return nil
}

// Cancel deletes the conversation's draft unconditionally, whatever state it
// is in.
func (m *Manager) Cancel(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[conversationID]; !ok {
		return ErrNoDraft
	}
	delete(m.conversations, conversationID)

	m.logger.Info("draft canceled", logging.Conversation(conversationID))
	m.metrics.RecordDraftTransition(ctx, "cancel", instrumentation.StatusSuccess)

	return nil
}

// FreeText routes free-form operator text. Armed conversations consume it
// exactly once and return to StateDraftReady with the updated draft and
// handled=true. Unarmed text is ignored and returns handled=false.
func (m *Manager) FreeText(ctx context.Context, conversationID, text string) (*Draft, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[conversationID]
	if !ok {
		return nil, false, nil
	}

	switch conv.state {
	case StateAwaitingEdit:
		conv.draft.Body = text
		conv.state = StateDraftReady

		m.logger.Info("draft body replaced", logging.Conversation(conversationID))
		m.metrics.RecordDraftTransition(ctx, "edit_text", instrumentation.StatusSuccess)
		return conv.draft, true, nil

	case StateAwaitingInstructions:
		body, err := m.generateReply(ctx, conv.draft.OriginalContent, text)
		if err != nil {
			// The slot stays armed so the operator can retry.
			m.metrics.RecordDraftTransition(ctx, "regenerate_text", instrumentation.StatusError)
			return nil, true, fmt.Errorf("failed to regenerate draft: %w", err)
		}
		conv.draft.Body = body
		conv.state = StateDraftReady

		m.logger.Info("draft regenerated", logging.Conversation(conversationID))
		m.metrics.RecordDraftTransition(ctx, "regenerate_text", instrumentation.StatusSuccess)
		return conv.draft, true, nil

	default:
		return nil, false, nil
	}
}

// generateReply asks the oracle for a reply body, recording the call and
// its duration.
func (m *Manager) generateReply(ctx context.Context, content, instructions string) (string, error) {
	start := time.Now()
	body, err := m.oracle.GenerateReply(ctx, content, instructions)
	if err != nil {
		m.metrics.RecordOracleCall(ctx, "generate_reply", time.Since(start), instrumentation.StatusError)
		return "", err
	}
	m.metrics.RecordOracleCall(ctx, "generate_reply", time.Since(start), instrumentation.StatusSuccess)
	return body, nil
}

// Current returns the conversation's draft and state, or ok=false when the
// conversation is idle.
func (m *Manager) Current(conversationID string) (*Draft, State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[conversationID]
	if !ok {
		return nil, "", false
	}
	return conv.draft, conv.state, true
}
