// Package httpapi exposes the schema agent and the sample-file sandbox over
// HTTP. Analysis replies are streamed as server-sent events.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/chris/schemascout/internal/agent"
	"github.com/chris/schemascout/internal/db"
	"github.com/chris/schemascout/internal/session"
	"github.com/chris/schemascout/internal/tools"
)

const maxUploadBytes = 32 << 20

type Runner interface {
	Submit(ctx context.Context, conv *agent.Conversation, text string, r agent.Reporter) (agent.Outcome, error)
}

type Store interface {
	RegisterFiles(names []string) (int, error)
	ListFiles() ([]db.File, error)
	SaveAnalysis(conversationID, summary string) (int64, error)
	ListAnalyses(limit int) ([]db.Analysis, error)
}

type Server struct {
	runner    Runner
	sessions  *session.Store
	files     *tools.Files
	store     Store
	uploadDir string
	mux       *http.ServeMux
}

func New(runner Runner, sessions *session.Store, files *tools.Files, store Store, uploadDir string) *Server {
	s := &Server{
		runner:    runner,
		sessions:  sessions,
		files:     files,
		store:     store,
		uploadDir: uploadDir,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/analysis/stream", s.handleAnalysisStream)
	s.mux.HandleFunc("GET /api/files", s.handleListFiles)
	s.mux.HandleFunc("GET /api/files/content", s.handleReadFile)
	s.mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	s.mux.HandleFunc("POST /api/upload", s.handleUpload)
	s.mux.HandleFunc("POST /api/save-file", s.handleSaveFile)
	s.mux.HandleFunc("GET /api/analyses", s.handleListAnalyses)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
