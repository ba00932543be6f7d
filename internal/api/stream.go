package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"devtycoon/internal/engine"
)

const streamHeartbeat = 15 * time.Second

// handleStream serves the live play session as server-sent events. Each
// connection gets its own engine session: the passive-income scheduler
// runs for as long as the stream stays open, and every committed state
// is pushed to the client as a "state" event. Two open streams for the
// same player mean two schedulers ticking the same record; the engine's
// versioned commits keep that safe, if twice as fast.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	session, err := engine.NewSession(r.Context(), s.runner, s.store, user.UserID, s.cfg.TickEvery, s.log)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer session.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.log.Info("stream opened", "player_id", user.UserID)
	defer s.log.Info("stream closed", "player_id", user.UserID)

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case st, open := <-session.Snapshots():
			if !open {
				return
			}
			payload, err := json.Marshal(st)
			if err != nil {
				s.log.Error("encode snapshot", "player_id", user.UserID, "error", err)
				return
			}
			fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
