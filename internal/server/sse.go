package server

import (
	"fmt"
	"net/http"
	"time"
)

// sseKeepAliveInterval is how often an idle reload stream emits a comment
// frame so proxies and browsers keep the connection open.
const sseKeepAliveInterval = 15 * time.Second

// handleReload streams reload events for one workspace over SSE. The
// subscription covers the whole reload bus; events for other workspaces
// are discarded here. The stream ends when the client disconnects or the
// bus closes on shutdown.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := s.service.SubscribeReload()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case workspaceID, open := <-events:
			if !open {
				return
			}
			if workspaceID != id {
				continue
			}
			if _, err := fmt.Fprint(w, "event: reload\ndata: reload\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
