package llm

import "testing"

func TestMessageText_PlainString(t *testing.T) {
	m := Message{Role: "assistant", Content: "hello"}
	if got := m.Text(); got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestMessageText_FirstTextPart(t *testing.T) {
	m := Message{Role: "assistant", Parts: []ContentPart{
		{Type: "text", Text: "first"},
		{Type: "text", Text: "second"},
	}}
	if got := m.Text(); got != "first" {
		t.Errorf("got %q, want %q", got, "first")
	}
}

func TestMessageText_NonTextPart(t *testing.T) {
	m := Message{Role: "assistant", Parts: []ContentPart{{Type: "image"}}}
	if got := m.Text(); got != `{"type":"image"}` {
		t.Errorf("got %q", got)
	}
}

func TestMessageText_Empty(t *testing.T) {
	if got := (Message{Role: "assistant"}).Text(); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestResponseMessage(t *testing.T) {
	r := &Response{
		Content:   "checking",
		ToolCalls: []ToolCall{{ID: "c1", Name: "get_files_list", Arguments: "{}"}},
	}
	m := r.Message()
	if m.Role != RoleAssistant {
		t.Errorf("role = %q, want assistant", m.Role)
	}
	if len(m.ToolCalls) != 1 || m.ToolCalls[0].ID != "c1" {
		t.Errorf("tool calls not carried over: %+v", m.ToolCalls)
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	if _, err := NewClient(ProviderConfig{Provider: "nope"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewClient_Providers(t *testing.T) {
	for _, p := range []string{"openai", "anthropic", "ollama"} {
		c, err := NewClient(ProviderConfig{Provider: p, APIKey: "k"})
		if err != nil {
			t.Errorf("%s: %v", p, err)
		}
		if c == nil {
			t.Errorf("%s: nil client", p)
		}
	}
}

func TestToOpenAIMessages(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "list files"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "get_files_list", Arguments: "{}"}}},
		{Role: RoleTool, Content: `{"files":[]}`, ToolCallID: "c1"},
		{Role: RoleAssistant, Content: "no files"},
	}
	got := toOpenAIMessages(msgs)
	if len(got) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(got))
	}
	if got[0].OfSystem == nil {
		t.Error("expected system message first")
	}
	if got[2].OfAssistant == nil || len(got[2].OfAssistant.ToolCalls) != 1 {
		t.Error("expected assistant message with one tool call")
	}
	if got[3].OfTool == nil || got[3].OfTool.ToolCallID != "c1" {
		t.Error("expected tool message paired with c1")
	}
}

func TestToAnthropicMessages_FoldsToolResults(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "two things"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "a", Name: "get_files_list", Arguments: "{}"},
			{ID: "b", Name: "get_file_size", Arguments: `{"filename":"x.csv"}`},
		}},
		{Role: RoleTool, Content: `{"files":[]}`, ToolCallID: "a"},
		{Role: RoleTool, Content: `{"size_bytes":1}`, ToolCallID: "b"},
		{Role: RoleUser, Content: "thanks"},
	}
	system, got := toAnthropicMessages(msgs)
	if system != "sys" {
		t.Errorf("system = %q, want %q", system, "sys")
	}
	// user | assistant(2 tool_use) | user(2 tool_result + text)
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}
	if len(got[1].Content) != 2 {
		t.Errorf("assistant turn should carry 2 blocks, got %d", len(got[1].Content))
	}
	if len(got[2].Content) != 3 {
		t.Errorf("user turn should carry 3 blocks, got %d", len(got[2].Content))
	}
}

func TestRequiredList(t *testing.T) {
	got := requiredList([]any{"filename", 3, "content"})
	if len(got) != 2 || got[0] != "filename" || got[1] != "content" {
		t.Errorf("got %v", got)
	}
	if requiredList(nil) != nil {
		t.Error("expected nil for missing required list")
	}
}
