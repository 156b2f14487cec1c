package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/chris/schemascout/internal/agent"
	"github.com/chris/schemascout/internal/llm"
	"github.com/chris/schemascout/internal/session"
	"github.com/google/uuid"
)

type analysisRequest struct {
	ConversationID string        `json:"conversation_id"`
	Message        string        `json:"message"`
	Messages       []llm.Message `json:"messages"` // optional history for a new conversation
}

type stepFrame struct {
	Step string `json:"step"`
}

type messageFrame struct {
	Message        string `json:"message"`
	Kind           string `json:"kind"`
	ConversationID string `json:"conversation_id"`
}

const errorKind = "error"

func (s *Server) handleAnalysisStream(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "No current message provided")
		return
	}

	id := req.ConversationID
	if id == "" {
		id = uuid.NewString()
	}
	if len(req.Messages) > 0 {
		conv, err := agent.FromMessages(req.Messages)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.sessions.Seed(id, conv)
	}

	conv, release, err := s.sessions.Acquire(id)
	if errors.Is(err, session.ErrBusy) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer release()

	st := newStream(w)
	w.WriteHeader(http.StatusOK)

	reporter := agent.ReporterFunc(func(e agent.Event) {
		if err := st.send(stepFrame{Step: e.String()}); err != nil {
			log.Printf("httpapi: sending step: %v", err)
		}
	})

	outcome, err := s.runner.Submit(r.Context(), conv, req.Message, reporter)
	frame := messageFrame{ConversationID: id}
	if err != nil {
		log.Printf("httpapi: conversation %s: %v", id, err)
		frame.Message = agent.ErrorReply
		frame.Kind = errorKind
	} else {
		frame.Message = outcome.Reply()
		frame.Kind = outcome.Kind.String()
		if outcome.Kind == agent.OutcomeFinal {
			if _, err := s.store.SaveAnalysis(id, outcome.Text); err != nil {
				log.Printf("httpapi: saving analysis: %v", err)
			}
		}
	}
	if err := st.send(frame); err != nil {
		log.Printf("httpapi: sending message: %v", err)
	}
}
