package notify

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/seating/pkg"
)

const keepaliveInterval = 30 * time.Second

// SSEHandler streams every engine event to browsers as Server-Sent Events.
// The SSE event name is the seating channel; the data is the JSON envelope.
type SSEHandler struct {
	broadcaster *Broadcaster
	logger      apt.Logger
	keepalive   time.Duration
}

func NewSSEHandler(broadcaster *Broadcaster, logger apt.Logger) *SSEHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SSEHandler{
		broadcaster: broadcaster,
		logger:      logger,
		keepalive:   keepaliveInterval,
	}
}

func (h *SSEHandler) RegisterRoutes(r chi.Router) {
	r.Get("/events/stream", h.ServeHTTP)
}

// ServeHTTP serves the stream. An optional "channel" query parameter, given
// once or comma separated, limits it to those channels.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wanted := channelFilter(r.URL.Query()["channel"])

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := uuid.New().String()
	events := h.broadcaster.Subscribe(subscriberID)
	defer h.broadcaster.Unsubscribe(subscriberID)

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	flush(w)

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("stream client disconnected", "subscriber_id", subscriberID)
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush(w)

		case msg, ok := <-events:
			if !ok {
				return
			}
			channel := strings.TrimPrefix(msg.Topic, pkg.TopicPrefix)
			if len(wanted) > 0 && !wanted[channel] {
				continue
			}
			fmt.Fprintf(w, "event: %s\n", channel)
			fmt.Fprintf(w, "data: %s\n\n", msg.Data)
			flush(w)
		}
	}
}

func channelFilter(values []string) map[string]bool {
	wanted := map[string]bool{}
	for _, v := range values {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				wanted[c] = true
			}
		}
	}
	return wanted
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
