package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chris/schemascout/internal/llm"
)

// scriptedClient replays canned responses and records what it was sent.
type scriptedClient struct {
	responses []*llm.Response
	errAt     int // 1-based request number that fails; 0 never
	requests  [][]llm.Message
}

func (c *scriptedClient) Chat(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.requests = append(c.requests, req.Messages)
	n := len(c.requests)
	if c.errAt == n {
		return nil, errors.New("quota exceeded")
	}
	if n > len(c.responses) {
		return &llm.Response{ToolCalls: []llm.ToolCall{call(fmt.Sprintf("extra_%d", n), "list", "{}")}}, nil
	}
	return c.responses[n-1], nil
}

func call(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: args}
}

func toolsResponse(calls ...llm.ToolCall) *llm.Response {
	return &llm.Response{ToolCalls: calls}
}

func textResponse(text string) *llm.Response {
	return &llm.Response{Content: text}
}

func testDispatcher(t interface{ Fatalf(string, ...any) }) *Dispatcher {
	type sizeArgs struct {
		Filename string `json:"filename"`
	}
	d, err := NewDispatcher(
		ToolSpec{
			Definition: llm.Tool{Name: "list", Description: "list files"},
			Handler: func(context.Context, json.RawMessage) (any, error) {
				return map[string]any{"files": []string{"a.csv", "b.json"}}, nil
			},
		},
		ToolSpec{
			Definition: llm.Tool{Name: "size", Description: "file size"},
			Handler: Typed(func(_ context.Context, in sizeArgs) (any, error) {
				if in.Filename == "" {
					return nil, errors.New("filename is required")
				}
				return map[string]int{"size_bytes": 42}, nil
			}),
		},
		ToolSpec{
			Definition: llm.Tool{Name: "boom", Description: "always fails"},
			Handler: func(context.Context, json.RawMessage) (any, error) {
				return nil, fmt.Errorf("reading file: %w", errors.New("permission denied"))
			},
		},
	)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}
