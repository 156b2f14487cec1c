package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/chris/schemascout/internal/llm"
)

const (
	DefaultMaxSteps = 5

	// warmUpSteps is how many leading steps may answer with text only without
	// ending the run, unless a tool has already been dispatched.
	warmUpSteps = 2

	FallbackReply = "I've processed your request."
	ErrorReply    = "Sorry, there was an error processing your request."
)

type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeFinal
	OutcomeQuestion
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFinal:
		return "final"
	case OutcomeQuestion:
		return "question"
	}
	return "none"
}

// Outcome is how a run ended: a final answer, a question for the human, or
// nothing within the step bound.
type Outcome struct {
	Kind  OutcomeKind
	Text  string
	Steps int // completion requests made
}

// Reply returns the text to show the user, falling back for empty outcomes.
func (o Outcome) Reply() string {
	if o.Kind == OutcomeNone {
		return FallbackReply
	}
	return o.Text
}

type Options struct {
	MaxSteps         int // <= 0 uses DefaultMaxSteps
	MaxContextTokens int // budget for the send window; <= 0 sends everything
}

type Agent struct {
	client           llm.Client
	dispatcher       *Dispatcher
	maxSteps         int
	maxContextTokens int
}

func New(client llm.Client, dispatcher *Dispatcher, opts Options) *Agent {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	return &Agent{
		client:           client,
		dispatcher:       dispatcher,
		maxSteps:         opts.MaxSteps,
		maxContextTokens: opts.MaxContextTokens,
	}
}

// Submit feeds user text into conv and runs it. When conv is waiting on a
// human answer, text is that answer; otherwise it is a new user message.
func (a *Agent) Submit(ctx context.Context, conv *Conversation, text string, r Reporter) (Outcome, error) {
	var err error
	if conv.AwaitingHuman() {
		err = conv.Resolve(text)
	} else {
		err = conv.Append(llm.Message{Role: llm.RoleUser, Content: text})
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("adding user message: %w", err)
	}
	return a.Run(ctx, conv, r)
}

// Run drives the completion service over conv for at most MaxSteps requests.
// The returned error is set only when a completion request fails or conv was
// already awaiting a human answer; tool failures are written into conv.
func (a *Agent) Run(ctx context.Context, conv *Conversation, r Reporter) (Outcome, error) {
	if r == nil {
		r = Discard
	}
	if conv.AwaitingHuman() {
		return Outcome{}, ErrAwaitingHuman
	}

	dispatched := 0
	for step := 0; step < a.maxSteps; step++ {
		a.emit(r, Event{Kind: EventStep, Step: step + 1, Text: snapshot(conv)})

		window := llm.Window(conv.Messages(), a.maxContextTokens)
		resp, err := a.client.Chat(ctx, llm.Request{
			Messages: window,
			Tools:    a.dispatcher.Tools(),
		})
		if err == nil && resp == nil {
			err = errors.New("empty response")
		}
		if err != nil {
			err = fmt.Errorf("llm chat: %w", err)
			a.emit(r, Event{Kind: EventError, Step: step + 1, Text: err.Error()})
			return Outcome{Steps: step + 1}, err
		}

		msg := resp.Message()
		if err := conv.Append(msg); err != nil {
			err = fmt.Errorf("appending assistant message: %w", err)
			a.emit(r, Event{Kind: EventError, Step: step + 1, Text: err.Error()})
			return Outcome{Steps: step + 1}, err
		}
		a.emit(r, Event{Kind: EventAssistant, Step: step + 1, Text: mustJSON(msg)})

		if len(msg.ToolCalls) > 0 {
			question, suspended, err := a.dispatchAll(ctx, conv, step+1, msg.ToolCalls, r)
			if err != nil {
				a.emit(r, Event{Kind: EventError, Step: step + 1, Text: err.Error()})
				return Outcome{Steps: step + 1}, err
			}
			if suspended {
				return Outcome{Kind: OutcomeQuestion, Text: question, Steps: step + 1}, nil
			}
			dispatched += len(msg.ToolCalls)
			continue
		}

		if text := msg.Text(); text != "" && (step >= warmUpSteps || dispatched > 0) {
			return Outcome{Kind: OutcomeFinal, Text: text, Steps: step + 1}, nil
		}
	}

	log.Printf("agent: no answer after %d steps", a.maxSteps)
	return Outcome{Steps: a.maxSteps}, nil
}

// dispatchAll executes calls in order, appending one tool message per call.
// On ask_human it marks the pending request, answers the remaining calls of
// the turn with SkippedContent and stops.
func (a *Agent) dispatchAll(ctx context.Context, conv *Conversation, step int, calls []llm.ToolCall, r Reporter) (string, bool, error) {
	for i, call := range calls {
		a.emit(r, Event{Kind: EventToolStart, Step: step, Tool: call.Name, Text: call.Arguments})

		res := a.dispatcher.Dispatch(ctx, call)
		if res.Suspend {
			if err := conv.MarkPending(call.ID); err != nil {
				return "", false, fmt.Errorf("marking human request: %w", err)
			}
			for _, rest := range calls[i+1:] {
				if err := conv.Append(llm.Message{Role: llm.RoleTool, ToolCallID: rest.ID, Content: SkippedContent}); err != nil {
					return "", false, fmt.Errorf("answering skipped tool call: %w", err)
				}
			}
			log.Printf("agent: waiting for human: %s", truncate(res.Question, 200))
			return res.Question, true, nil
		}

		if res.Err != nil {
			a.emit(r, Event{Kind: EventToolError, Step: step, Tool: call.Name, Text: res.Err.Error()})
		} else {
			a.emit(r, Event{Kind: EventToolResult, Step: step, Tool: call.Name, Text: res.Content})
		}
		if err := conv.Append(llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: res.Content}); err != nil {
			return "", false, fmt.Errorf("appending tool result: %w", err)
		}
	}
	return "", false, nil
}

func (a *Agent) emit(r Reporter, e Event) {
	switch e.Kind {
	case EventStep:
		log.Printf("agent: step %d/%d", e.Step, a.maxSteps)
	case EventToolResult, EventToolError:
		log.Printf("tool %s → %s", e.Tool, truncate(e.Text, 200))
	case EventError:
		log.Printf("agent: %s", e.Text)
	}
	report(r, e)
}

func snapshot(conv *Conversation) string {
	b, _ := json.MarshalIndent(conv, "", "  ") // messages hold only strings
	return string(b)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
