package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/chris/schemascout/internal/llm"
	"github.com/tidwall/gjson"
)

// AskHumanTool is the suspension tool. The dispatcher owns its definition;
// tool registries must not declare it.
const AskHumanTool = "ask_human"

// SkippedContent answers tool calls that shared a turn with ask_human and
// were not executed.
const SkippedContent = `{"error":"skipped: waiting for human response"}`

var ErrUnknownTool = errors.New("unknown tool")

// Handler executes one tool call. args is the raw JSON produced by the model.
// The returned value is JSON-encoded into the tool message; a json.RawMessage
// is used verbatim.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Typed adapts a function over a decoded argument struct into a Handler.
// Malformed arguments surface as a tool error.
func Typed[T any](fn func(ctx context.Context, in T) (any, error)) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var in T
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("parsing arguments: %w", err)
		}
		return fn(ctx, in)
	}
}

// ToolSpec pairs a declared tool with the handler that implements it.
type ToolSpec struct {
	Definition llm.Tool
	Handler    Handler
}

// Result is the outcome of dispatching one tool call.
type Result struct {
	Content  string // tool message content
	Err      error  // set when Content is an error payload
	Suspend  bool   // ask_human was called
	Question string // human-facing question when Suspend is set
}

type toolError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type Dispatcher struct {
	tools    []llm.Tool
	handlers map[string]Handler
}

// NewDispatcher builds a dispatcher from specs, in order, followed by the
// ask_human definition. Every ToolSpec must have a unique name and a handler.
func NewDispatcher(specs ...ToolSpec) (*Dispatcher, error) {
	d := &Dispatcher{handlers: make(map[string]Handler)}
	for _, s := range specs {
		name := s.Definition.Name
		switch {
		case name == "":
			return nil, fmt.Errorf("tool definition without a name")
		case name == AskHumanTool:
			return nil, fmt.Errorf("tool %q is reserved", name)
		case s.Handler == nil:
			return nil, fmt.Errorf("tool %q has no handler", name)
		case d.handlers[name] != nil:
			return nil, fmt.Errorf("tool %q declared twice", name)
		}
		d.handlers[name] = s.Handler
		d.tools = append(d.tools, s.Definition)
	}
	d.tools = append(d.tools, askHumanDefinition)
	return d, nil
}

// Tools returns the registry sent to the completion service.
func (d *Dispatcher) Tools() []llm.Tool {
	return append([]llm.Tool(nil), d.tools...)
}

// Dispatch routes a tool call to its handler. It never returns an error:
// failures are folded into the result content so the model can see them.
func (d *Dispatcher) Dispatch(ctx context.Context, call llm.ToolCall) Result {
	args := strings.TrimSpace(call.Arguments)
	if args == "" {
		args = "{}"
	}

	if call.Name == AskHumanTool {
		return askHuman(args)
	}

	h, ok := d.handlers[call.Name]
	if !ok {
		return failure(fmt.Errorf("%w: %s", ErrUnknownTool, call.Name), "")
	}

	v, stack, err := invoke(ctx, h, json.RawMessage(args))
	if err != nil {
		return failure(err, stack)
	}
	content, err := encodeResult(v)
	if err != nil {
		return failure(fmt.Errorf("encoding result: %w", err), "")
	}
	return Result{Content: content}
}

// invoke runs h, converting a panic into an error plus its stack trace.
func invoke(ctx context.Context, h Handler, args json.RawMessage) (v any, stack string, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, stack, err = nil, string(debug.Stack()), fmt.Errorf("panic: %v", p)
		}
	}()
	v, err = h(ctx, args)
	return v, "", err
}

func askHuman(args string) Result {
	if !gjson.Valid(args) {
		return failure(fmt.Errorf("parsing arguments: invalid JSON"), "")
	}
	msg := gjson.Get(args, "message")
	if msg.Type != gjson.String || strings.TrimSpace(msg.String()) == "" {
		return failure(fmt.Errorf("message is required"), "")
	}
	return Result{Content: PendingContent, Suspend: true, Question: msg.String()}
}

func encodeResult(v any) (string, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return "", fmt.Errorf("handler returned invalid JSON")
		}
		return string(raw), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func failure(err error, details string) Result {
	if details == "" {
		details = errorChain(err)
	}
	b, _ := json.Marshal(toolError{Error: err.Error(), Details: details}) // two strings; cannot fail
	return Result{Content: string(b), Err: err}
}

// errorChain renders the wrapped causes of err, one per line. It is empty
// when err wraps nothing.
func errorChain(err error) string {
	var lines []string
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		lines = append(lines, "caused by: "+e.Error())
	}
	return strings.Join(lines, "\n")
}

var askHumanDefinition = llm.Tool{
	Name:        AskHumanTool,
	Description: "Ask a question to the human user and get their response",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The question or message to show to the user",
			},
		},
		"required": []string{"message"},
	},
}
