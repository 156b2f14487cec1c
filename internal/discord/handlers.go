package discord

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/schemascout/internal/agent"
	"github.com/chris/schemascout/internal/session"
)

const (
	maxMessageLen = 2000

	resetCommand = "reset"
	resetReply   = "Conversation cleared."
	busyReply    = "Still working on your last message. Give me a moment."
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages
	if m.Author.ID == s.State.User.ID {
		return
	}

	// Only respond to DMs or when mentioned
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}

	if !isDM && !isMentioned {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	s.ChannelTyping(m.ChannelID)

	reply := b.respond(context.Background(), m.ChannelID, content)
	for _, chunk := range splitMessage(reply, maxMessageLen) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			log.Printf("discord: sending to %s: %v", m.ChannelID, err)
			return
		}
	}
}

// respond runs content against the channel's conversation and returns the
// text to post back. A pending question makes content the human's answer.
func (b *Bot) respond(ctx context.Context, channelID, content string) string {
	if strings.EqualFold(content, resetCommand) {
		if err := b.sessions.Reset(channelID); err != nil {
			return busyReply
		}
		return resetReply
	}

	conv, release, err := b.sessions.Acquire(channelID)
	if errors.Is(err, session.ErrBusy) {
		return busyReply
	}
	if err != nil {
		log.Printf("discord: acquiring conversation %s: %v", channelID, err)
		return agent.ErrorReply
	}
	defer release()

	outcome, err := b.runner.Submit(ctx, conv, content, agent.Discard)
	if err != nil {
		log.Printf("discord: agent error: %v", err)
		return agent.ErrorReply
	}

	if outcome.Kind == agent.OutcomeFinal && b.store != nil {
		if _, err := b.store.SaveAnalysis(channelID, outcome.Text); err != nil {
			log.Printf("discord: saving analysis: %v", err)
		}
	}
	return outcome.Reply()
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end > len(s) {
			end = len(s)
		}
		// Try to split at a newline
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		} else {
			for end > 1 && end < len(s) && !utf8.RuneStart(s[end]) {
				end--
			}
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
