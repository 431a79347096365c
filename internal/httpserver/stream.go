package httpserver

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/tinytelemetry/odometer/internal/odometer"
)

const wsWriteTimeout = 5 * time.Second

// handleStream upgrades to a websocket and pushes the display's snapshot
// every StreamInterval until the client leaves or the server stops. It is a
// plain net/http handler: the upgrade hijacks the connection, which gin's
// response writer refuses once the 101 status is set.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, err := s.displays.Snapshot(name); err != nil {
		writeHTTPError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		log.Printf("httpserver: stream %s: accept: %v", name, err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	// the stream is write-only; CloseRead notices the client going away
	ctx := conn.CloseRead(r.Context())
	if err := s.streamSnapshots(ctx, conn, name); err != nil {
		if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
			log.Printf("httpserver: stream %s: %v", name, err)
			conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamSnapshots(ctx context.Context, conn *websocket.Conn, name string) error {
	ticker := time.NewTicker(s.cfg.StreamInterval)
	defer ticker.Stop()

	for {
		snap, err := s.displays.Snapshot(name)
		if err != nil {
			return err
		}
		if err := writeSnapshot(ctx, conn, snap); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, snap odometer.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
