package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/schemascout/internal/agent"
	"github.com/chris/schemascout/internal/session"
)

// Runner feeds a user message into a conversation and runs it to an outcome.
type Runner interface {
	Submit(ctx context.Context, conv *agent.Conversation, text string, r agent.Reporter) (agent.Outcome, error)
}

type AnalysisStore interface {
	SaveAnalysis(conversationID, summary string) (int64, error)
}

type Bot struct {
	session  *discordgo.Session
	runner   Runner
	sessions *session.Store
	store    AnalysisStore
}

func newBot(runner Runner, sessions *session.Store, store AnalysisStore) *Bot {
	return &Bot{runner: runner, sessions: sessions, store: store}
}

func NewBot(token string, runner Runner, sessions *session.Store, store AnalysisStore) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := newBot(runner, sessions, store)
	bot.session = s
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	log.Printf("Discord bot connected as %s", s.State.User.Username)
	return bot, nil
}

func (b *Bot) Close() {
	b.session.Close()
}
