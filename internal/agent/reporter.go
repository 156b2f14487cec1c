package agent

import (
	"fmt"
	"log"
)

type EventKind string

const (
	EventStep       EventKind = "step"
	EventAssistant  EventKind = "assistant"
	EventToolStart  EventKind = "tool_start"
	EventToolResult EventKind = "tool_result"
	EventToolError  EventKind = "tool_error"
	EventError      EventKind = "error"
)

// Event is one narration point of a run.
type Event struct {
	Kind EventKind `json:"kind"`
	Step int       `json:"step"` // 1-based
	Tool string    `json:"tool,omitempty"`
	Text string    `json:"text"`
}

func (e Event) String() string {
	switch e.Kind {
	case EventStep:
		return fmt.Sprintf("Step %d: sending messages to the model:\n%s", e.Step, e.Text)
	case EventAssistant:
		return fmt.Sprintf("Assistant response:\n%s", e.Text)
	case EventToolStart:
		return fmt.Sprintf("Executing tool %s\nArguments: %s", e.Tool, e.Text)
	case EventToolResult:
		return fmt.Sprintf("Tool %s executed successfully\nResponse: %s", e.Tool, e.Text)
	case EventToolError:
		return fmt.Sprintf("Error executing tool %s: %s", e.Tool, e.Text)
	case EventError:
		return fmt.Sprintf("Agent run failed: %s", e.Text)
	}
	return e.Text
}

// Reporter receives narration events. It observes a run and has no say in
// how the run proceeds.
type Reporter interface {
	Report(Event)
}

type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// Discard drops every event.
var Discard Reporter = ReporterFunc(func(Event) {})

// report delivers e to r, swallowing reporter panics.
func report(r Reporter, e Event) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("agent: reporter panicked on %s event: %v", e.Kind, p)
		}
	}()
	r.Report(e)
}
