package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/kalshigym/internal/events"
)

const (
	streamBufferSize   = 100
	streamWriteTimeout = 5 * time.Second
	streamHeartbeat    = 30 * time.Second
)

// StreamHandler pushes dashboard events to websocket clients
type StreamHandler struct {
	bus       *events.Bus
	log       zerolog.Logger
	heartbeat time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(bus *events.Bus, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		bus:       bus,
		log:       log.With().Str("component", "event_stream").Logger(),
		heartbeat: streamHeartbeat,
	}
}

// streamMessage is a control message that is not a bus event
type streamMessage struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ServeHTTP handles GET /api/stream. The optional types query parameter is a
// comma-separated list of event types to receive.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		http.Error(w, "Event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	eventTypes := events.AllTypes()
	if typesFilter := r.URL.Query().Get("types"); typesFilter != "" {
		eventTypes = eventTypes[:0:0]
		for _, t := range strings.Split(typesFilter, ",") {
			eventTypes = append(eventTypes, events.EventType(strings.TrimSpace(t)))
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS is open for the dashboard
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to accept websocket connection")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// Buffer to prevent blocking publishers; events are dropped when full
	eventChan := make(chan *events.Event, streamBufferSize)
	handler := func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	for _, eventType := range eventTypes {
		unsubscribe := h.bus.Subscribe(eventType, handler)
		defer unsubscribe()
	}

	// Clients only receive; CloseRead cancels ctx once the client goes away
	ctx := conn.CloseRead(r.Context())

	h.log.Info().Int("types", len(eventTypes)).Msg("Client connected to event stream")

	if err := h.write(ctx, conn, streamMessage{
		Type:      "connected",
		Message:   "Connected to dashboard event stream",
		Timestamp: time.Now(),
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			if err := h.write(ctx, conn, event); err != nil {
				return
			}

		case <-heartbeat.C:
			if err := h.write(ctx, conn, streamMessage{Type: "heartbeat", Timestamp: time.Now()}); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) write(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()

	if err := wsjson.Write(writeCtx, conn, v); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write to event stream")
		return err
	}
	return nil
}
