package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"libretto/internal/log"
)

// handleStatsStream exposes the statistics pipeline as a server-sent event
// stream. Each published result becomes one "stats" event; the subscription
// keeps the pipeline active for the lifetime of the connection.
func (s *Server) handleStatsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	results, cancel := s.statistics.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case res, open := <-results:
			if !open {
				return
			}
			payload, err := json.Marshal(toStatsResponse(res))
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to encode stats event",
					log.FieldError, err.Error())
				continue
			}
			if _, err := fmt.Fprintf(w, "event: stats\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
