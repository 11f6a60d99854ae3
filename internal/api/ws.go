package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/aethergrid/aethergrid/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different origin in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

type streamFrame struct {
	Latest models.TelemetrySample   `json:"latest"`
	Window []models.TelemetrySample `json:"window"`
}

// StreamTelemetry upgrades the connection to a websocket and pushes one frame
// per telemetry tick, starting with the current window. Slow clients get
// frames dropped rather than stalling the tick loop.
func (h *Handlers) StreamTelemetry(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	frames := make(chan streamFrame, 8)
	unsubscribe := h.Scada.Subscribe(func(latest models.TelemetrySample, window []models.TelemetrySample) {
		select {
		case frames <- streamFrame{Latest: latest, Window: window}:
		default:
			// Client is behind, skip this frame
		}
	})
	defer unsubscribe()

	// Reader goroutine only exists to notice the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case frame := <-frames:
			if err := conn.WriteJSON(frame); err != nil {
				log.Debug().Err(err).Msg("Websocket write failed, closing stream")
				return
			}
		}
	}
}
