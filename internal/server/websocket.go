package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/mdview/mdv/internal/remote"
)

const (
	// Time allowed to write a message or ping to the peer.
	writeWait = 10 * time.Second

	// Send pings to the peer with this period.
	pingPeriod = 54 * time.Second
)

// handleWebSocket upgrades the connection and forwards every command from
// the global command bus to this client, in publish order. The reader
// goroutine exists only to notice the peer closing; inbound frames carry
// no meaning. When the handler returns, the bus subscription is released,
// so no orphaned subscriptions accumulate.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	commands, cancelSub := s.service.SubscribeCommands()
	defer cancelSub()

	go func() {
		defer cancelCtx()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd, open := <-commands:
			if !open {
				return
			}
			data, err := remote.Encode(cmd)
			if err != nil {
				s.log.Error(ctx, err, "cannot encode command")
				continue
			}
			if err := s.write(ctx, conn, data); err != nil {
				return
			}
		case <-pings.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
