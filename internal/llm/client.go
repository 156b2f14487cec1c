package llm

import (
	"context"
	"encoding/json"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role       string        `json:"role"` // system, user, assistant, tool
	Content    string        `json:"content,omitempty"`
	Parts      []ContentPart `json:"parts,omitempty"` // structured content, when the provider returns blocks
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"` // for tool result messages
}

// ContentPart is one block of a structured message body.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Text returns the message text whether it was sent as a plain string or as a
// list of parts. For parts, the first part is used: its text if it is a text
// part, its JSON encoding otherwise.
func (m Message) Text() string {
	if m.Content != "" {
		return m.Content
	}
	if len(m.Parts) == 0 {
		return ""
	}
	first := m.Parts[0]
	if first.Type == "text" {
		return first.Text
	}
	b, _ := json.Marshal(first) // ContentPart has only string fields
	return string(b)
}

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON as produced by the model
}

type Response struct {
	Content   string
	Parts     []ContentPart
	ToolCalls []ToolCall
}

// Message converts the response into the assistant message appended to a conversation.
func (r *Response) Message() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   r.Content,
		Parts:     r.Parts,
		ToolCalls: r.ToolCalls,
	}
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

type Request struct {
	Messages    []Message
	Tools       []Tool
	Temperature *float64
}

type Client interface {
	Chat(ctx context.Context, req Request) (*Response, error)
}
