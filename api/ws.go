package api

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"board-relay/domain"
	"board-relay/relay"
)

const (
	outboxDepth  = 32
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients send no Origin header
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// relayChannel upgrades the request to a websocket and pumps the event
// channel: inbound envelopes become relay commands, the client outbox
// drains to the socket. The connection is released on any read error.
func relayChannel(rl *relay.Relay, upgrader *websocket.Upgrader, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		client := relay.NewClient(outboxDepth)
		defer func() {
			rl.Release(client)
			ws.Close()
			logger.Debug("connection closed")
		}()

		done := make(chan struct{})
		go writePump(ws, client, done, logger)
		defer close(done)

		ws.SetReadDeadline(time.Now().Add(pongTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debugf("read: %v", err)
				}
				return nil
			}
			var env domain.Envelope
			if err := sonic.ConfigStd.Unmarshal(data, &env); err != nil {
				logger.Warnf("malformed frame: %v", err)
				continue
			}
			cmd, err := domain.DecodeCommand(env)
			if err != nil {
				logger.Warnf("drop frame: %v", err)
				continue
			}
			rl.Dispatch(client, cmd)
		}
	}
}

func writePump(ws *websocket.Conn, client *relay.Client, done <-chan struct{}, logger *log.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg := <-client.Outbox():
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debugf("write: %v", err)
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
