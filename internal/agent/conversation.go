package agent

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chris/schemascout/internal/llm"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// PendingContent is the tool message content that marks an unanswered ask_human call.
const PendingContent = `{"response":"pending"}`

var (
	ErrAwaitingHuman       = errors.New("conversation is awaiting a human response")
	ErrNoPendingRequest    = errors.New("conversation has no pending human request")
	ErrUnpairedToolMessage = errors.New("tool message does not answer an open tool call")
	ErrOpenToolCalls       = errors.New("conversation has unanswered tool calls")
	ErrInvalidRole         = errors.New("invalid message role")
	ErrNoSystemMessage     = errors.New("history must start with a system message")
)

// Conversation is the append-only message history threaded through every
// step of a run. It tracks which tool calls are still unanswered and where the
// pending human request, if any, sits. A Conversation must not be used by two
// runs at the same time.
type Conversation struct {
	messages []llm.Message
	open     map[string]bool
	pending  int // index of the pending tool message, -1 when none
}

// NewConversation starts a conversation with a single system message.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{
		messages: []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}},
		open:     make(map[string]bool),
		pending:  -1,
	}
}

// FromMessages rebuilds a conversation from a serialized history, validating
// pairing as it goes. A tool message carrying the pending sentinel becomes the
// pending request; a history with two of them is rejected.
func FromMessages(msgs []llm.Message) (*Conversation, error) {
	if len(msgs) == 0 || msgs[0].Role != llm.RoleSystem {
		return nil, ErrNoSystemMessage
	}
	c := &Conversation{open: make(map[string]bool), pending: -1}
	for i, m := range msgs {
		if err := c.Append(m); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if m.Role == llm.RoleTool && isPendingContent(m.Content) {
			if c.pending >= 0 {
				return nil, fmt.Errorf("message %d: %w", i, ErrAwaitingHuman)
			}
			c.pending = i
		}
	}
	return c, nil
}

func isPendingContent(content string) bool {
	return gjson.Valid(content) && gjson.Get(content, "response").String() == "pending"
}

// Append adds a message in causal order. Tool messages must answer an open
// tool call; no other message may be added while tool calls are unanswered.
func (c *Conversation) Append(m llm.Message) error {
	switch m.Role {
	case llm.RoleTool:
		if !c.open[m.ToolCallID] {
			return fmt.Errorf("%w: %q", ErrUnpairedToolMessage, m.ToolCallID)
		}
		delete(c.open, m.ToolCallID)
	case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		if len(c.open) > 0 {
			return ErrOpenToolCalls
		}
		if len(m.ToolCalls) > 0 {
			if m.Role != llm.RoleAssistant {
				return fmt.Errorf("%w: only assistant messages carry tool calls", ErrInvalidRole)
			}
			seen := make(map[string]bool, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				if tc.ID == "" || seen[tc.ID] {
					return fmt.Errorf("tool call id %q is empty or repeated", tc.ID)
				}
				seen[tc.ID] = true
			}
			for id := range seen {
				c.open[id] = true
			}
			m.ToolCalls = append([]llm.ToolCall(nil), m.ToolCalls...)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}
	c.messages = append(c.messages, m)
	return nil
}

// MarkPending answers callID with the pending sentinel.
func (c *Conversation) MarkPending(callID string) error {
	if c.pending >= 0 {
		return ErrAwaitingHuman
	}
	if err := c.Append(llm.Message{Role: llm.RoleTool, ToolCallID: callID, Content: PendingContent}); err != nil {
		return err
	}
	c.pending = len(c.messages) - 1
	return nil
}

// AwaitingHuman reports whether a pending human request is unresolved.
func (c *Conversation) AwaitingHuman() bool {
	return c.pending >= 0
}

// Resolve substitutes the human answer into the pending tool message, keeping
// its tool_call_id, and appends the answer as a user message. The answer is
// stored under "userInput" so no answer can read back as the sentinel.
func (c *Conversation) Resolve(answer string) error {
	if c.pending < 0 {
		return ErrNoPendingRequest
	}
	content, err := sjson.Set(`{}`, "userInput", answer)
	if err != nil {
		return fmt.Errorf("encoding human response: %w", err)
	}
	c.messages[c.pending].Content = content
	c.pending = -1
	return c.Append(llm.Message{Role: llm.RoleUser, Content: answer})
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []llm.Message {
	out := make([]llm.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

// Unanswered returns the IDs of tool calls that have no tool message yet.
func (c *Conversation) Unanswered() []string {
	var ids []string
	for _, m := range c.messages {
		for _, tc := range m.ToolCalls {
			if c.open[tc.ID] {
				ids = append(ids, tc.ID)
			}
		}
	}
	return ids
}

func (c *Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.messages)
}
