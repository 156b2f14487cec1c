// Package session keeps one conversation per caller for the lifetime of the
// process and makes sure only one run touches a conversation at a time.
package session

import (
	"errors"
	"sync"

	"github.com/chris/schemascout/internal/agent"
)

var ErrBusy = errors.New("conversation is already being processed")

type entry struct {
	conv *agent.Conversation
	busy bool
}

type Store struct {
	systemPrompt string

	mu      sync.Mutex
	entries map[string]*entry
}

func NewStore(systemPrompt string) *Store {
	return &Store{systemPrompt: systemPrompt, entries: make(map[string]*entry)}
}

// Acquire returns the conversation for key, creating it on first use, and
// marks it busy until release is called. A busy key yields ErrBusy.
func (s *Store) Acquire(key string) (*agent.Conversation, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{conv: agent.NewConversation(s.systemPrompt)}
		s.entries[key] = e
	}
	if e.busy {
		return nil, nil, ErrBusy
	}
	e.busy = true

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			e.busy = false
			s.mu.Unlock()
		})
	}
	return e.conv, release, nil
}

// Seed installs conv under key unless key already has a conversation.
// It reports whether conv was installed.
func (s *Store) Seed(key string, conv *agent.Conversation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = &entry{conv: conv}
	return true
}

// Reset drops the conversation for key. A busy conversation is left alone.
func (s *Store) Reset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.busy {
		return ErrBusy
	}
	delete(s.entries, key)
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
