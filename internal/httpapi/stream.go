package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// stream writes server-sent events, one `data:` frame per value.
type stream struct {
	w     io.Writer
	flush func()
	mu    sync.Mutex
}

func newStream(w http.ResponseWriter) *stream {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")

	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	return &stream{w: w, flush: flush}
}

func (s *stream) send(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", body); err != nil {
		return err
	}
	if s.flush != nil {
		s.flush()
	}
	return nil
}
