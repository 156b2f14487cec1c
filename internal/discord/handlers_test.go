package discord

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/chris/schemascout/internal/agent"
	"github.com/chris/schemascout/internal/llm"
	"github.com/chris/schemascout/internal/session"
)

// --- stripMention ---

func TestStripMention_Standard(t *testing.T) {
	got := stripMention("<@123456> hello", "123456")
	want := " hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMention_Nickname(t *testing.T) {
	got := stripMention("<@!123456> hello", "123456")
	want := " hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMention_Both(t *testing.T) {
	got := stripMention("<@123> and <@!123>", "123")
	want := " and "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripMention_NoMention(t *testing.T) {
	got := stripMention("just text", "123")
	if got != "just text" {
		t.Errorf("got %q, want %q", got, "just text")
	}
}

func TestStripMention_WrongUser(t *testing.T) {
	input := "<@999> hello"
	got := stripMention(input, "123")
	if got != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestStripMention_Empty(t *testing.T) {
	got := stripMention("", "123")
	if got != "" {
		t.Errorf("got %q, want %q", got, "")
	}
}

// --- splitMessage ---

func TestSplitMessage_Short(t *testing.T) {
	chunks := splitMessage("hello", 2000)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("expected single chunk 'hello', got %v", chunks)
	}
}

func TestSplitMessage_ExactLimit(t *testing.T) {
	s := strings.Repeat("a", 2000)
	chunks := splitMessage(s, 2000)
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplitMessage_SplitsAtNewline(t *testing.T) {
	// 15 chars of "a", then newline, then 15 chars of "b" = 31 chars total
	s := strings.Repeat("a", 15) + "\n" + strings.Repeat("b", 15)
	chunks := splitMessage(s, 20)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	// First chunk should split at the newline (16 chars: 15 a's + newline)
	if chunks[0] != strings.Repeat("a", 15)+"\n" {
		t.Errorf("chunk[0] = %q", chunks[0])
	}
	if chunks[1] != strings.Repeat("b", 15) {
		t.Errorf("chunk[1] = %q", chunks[1])
	}
}

func TestSplitMessage_NoNewlineFallback(t *testing.T) {
	// No newlines, so hard-split at maxLen
	s := strings.Repeat("x", 50)
	chunks := splitMessage(s, 20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != strings.Repeat("x", 20) {
		t.Errorf("chunk[0] length = %d, want 20", len(chunks[0]))
	}
	if chunks[1] != strings.Repeat("x", 20) {
		t.Errorf("chunk[1] length = %d, want 20", len(chunks[1]))
	}
	if chunks[2] != strings.Repeat("x", 10) {
		t.Errorf("chunk[2] length = %d, want 10", len(chunks[2]))
	}
}

func TestSplitMessage_Empty(t *testing.T) {
	chunks := splitMessage("", 2000)
	if len(chunks) != 1 || chunks[0] != "" {
		t.Errorf("expected single empty chunk, got %v", chunks)
	}
}

func TestSplitMessage_MultipleNewlines(t *testing.T) {
	// Should prefer the LAST newline before the limit
	s := "line1\nline2\nline3\nline4"
	chunks := splitMessage(s, 12)

	// "line1\nline2\n" is 12 chars, so split right there
	if chunks[0] != "line1\nline2\n" {
		t.Errorf("chunk[0] = %q, want %q", chunks[0], "line1\nline2\n")
	}
}

func TestSplitMessage_KeepsRunesWhole(t *testing.T) {
	// Each "é" is two bytes, so a 5-byte cut would land mid-rune.
	s := strings.Repeat("é", 6)
	chunks := splitMessage(s, 5)
	if strings.Join(chunks, "") != s {
		t.Fatalf("chunks do not rebuild the input: %q", chunks)
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk[%d] = %q is not valid UTF-8", i, c)
		}
		if len(c) > 5 {
			t.Errorf("chunk[%d] length = %d, want <= 5", i, len(c))
		}
	}
}

// --- respond ---

type fakeRunner struct {
	outcome agent.Outcome
	err     error
	texts   []string
	convs   []*agent.Conversation
}

func (f *fakeRunner) Submit(_ context.Context, conv *agent.Conversation, text string, _ agent.Reporter) (agent.Outcome, error) {
	f.texts = append(f.texts, text)
	f.convs = append(f.convs, conv)
	return f.outcome, f.err
}

type fakeStore struct {
	saved map[string][]string
}

func (f *fakeStore) SaveAnalysis(conversationID, summary string) (int64, error) {
	if f.saved == nil {
		f.saved = make(map[string][]string)
	}
	f.saved[conversationID] = append(f.saved[conversationID], summary)
	return int64(len(f.saved[conversationID])), nil
}

func TestRespond_FinalIsSaved(t *testing.T) {
	runner := &fakeRunner{outcome: agent.Outcome{Kind: agent.OutcomeFinal, Text: "schema: id, name"}}
	store := &fakeStore{}
	b := newBot(runner, session.NewStore(llm.SystemPrompt), store)

	got := b.respond(context.Background(), "chan-1", "describe users.csv")
	if got != "schema: id, name" {
		t.Errorf("got %q", got)
	}
	if len(store.saved["chan-1"]) != 1 {
		t.Errorf("expected one saved analysis, got %v", store.saved)
	}
}

func TestRespond_QuestionNotSaved(t *testing.T) {
	runner := &fakeRunner{outcome: agent.Outcome{Kind: agent.OutcomeQuestion, Text: "Which file?"}}
	store := &fakeStore{}
	b := newBot(runner, session.NewStore("s"), store)

	if got := b.respond(context.Background(), "c", "hi"); got != "Which file?" {
		t.Errorf("got %q", got)
	}
	if len(store.saved) != 0 {
		t.Errorf("questions should not be saved, got %v", store.saved)
	}
}

func TestRespond_NoneUsesFallback(t *testing.T) {
	b := newBot(&fakeRunner{}, session.NewStore("s"), nil)
	if got := b.respond(context.Background(), "c", "hi"); got != agent.FallbackReply {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestRespond_Error(t *testing.T) {
	b := newBot(&fakeRunner{err: errors.New("quota")}, session.NewStore("s"), nil)
	if got := b.respond(context.Background(), "c", "hi"); got != agent.ErrorReply {
		t.Errorf("got %q, want error reply", got)
	}
}

func TestRespond_ConversationPerChannel(t *testing.T) {
	runner := &fakeRunner{}
	b := newBot(runner, session.NewStore("s"), nil)

	b.respond(context.Background(), "a", "one")
	b.respond(context.Background(), "a", "two")
	b.respond(context.Background(), "b", "three")

	if runner.convs[0] != runner.convs[1] {
		t.Error("same channel should reuse its conversation")
	}
	if runner.convs[0] == runner.convs[2] {
		t.Error("different channels should not share a conversation")
	}
}

func TestRespond_Reset(t *testing.T) {
	runner := &fakeRunner{}
	b := newBot(runner, session.NewStore("s"), nil)

	b.respond(context.Background(), "a", "one")
	if got := b.respond(context.Background(), "a", "RESET"); got != resetReply {
		t.Errorf("got %q, want %q", got, resetReply)
	}
	b.respond(context.Background(), "a", "two")

	if len(runner.texts) != 2 {
		t.Fatalf("reset should not reach the runner, got %v", runner.texts)
	}
	if runner.convs[0] == runner.convs[1] {
		t.Error("expected a fresh conversation after reset")
	}
}

func TestRespond_Busy(t *testing.T) {
	sessions := session.NewStore("s")
	_, release, err := sessions.Acquire("a")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	runner := &fakeRunner{}
	b := newBot(runner, sessions, nil)
	if got := b.respond(context.Background(), "a", "hi"); got != busyReply {
		t.Errorf("got %q, want busy reply", got)
	}
	if len(runner.texts) != 0 {
		t.Error("busy conversation should not be submitted")
	}
}
