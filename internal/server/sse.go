package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/riftrewind/riftrewind/internal/errors"
)

// handleAnalysisEvents streams progress for one analysis as server-sent
// events. The stream ends on the terminal event or client disconnect; either
// way the subscription is dropped so the hub does not accumulate channels.
func (s *Server) handleAnalysisEvents(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysisID")

	if s.deps.Hub == nil {
		HandleError(w, r, apperrors.NewServiceUnavailableError("progress streaming is not configured"))
		return
	}
	if _, known := s.lookupAnalysis(analysisID); !known {
		HandleError(w, r, apperrors.NewNotFoundError("unknown analysis id"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		// httptest.ResponseRecorder doesn't implement Flusher,
		// but we still write the events for testability.
		flusher = nil
	}

	// The stream outlives the server write timeout while waiting on slow
	// pipeline phases, so clear the per-request deadline.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	sub := s.deps.Hub.Subscribe(analysisID)
	defer s.deps.Hub.Unsubscribe(analysisID)

	for {
		ev, err := sub.Next(r.Context())
		if err != nil {
			// Client went away.
			return
		}

		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Step, data); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}

		if ev.Terminal() {
			return
		}
	}
}
