package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/ccooksey/bsi-server/internal/relay"
)

const maxMessageSize = 4096

type hub interface {
	Connect(transport relay.Transport) *relay.Session
	HandleMessage(session *relay.Session, data []byte)
	Pong(session *relay.Session)
	Disconnect(session *relay.Session)
}

type Server struct {
	logger   *slog.Logger
	hub      hub
	upgrader websocket.Upgrader
}

// New creates the realtime endpoint. Browsers from origins outside allowedOrigins are refused;
// a "*" entry allows any origin.
func New(logger *slog.Logger, hub hub, allowedOrigins []string) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		hub:    hub,
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}

	return server
}

// ServeHTTP upgrades the request and pumps inbound messages into the relay until the
// connection drops.
func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	ws, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", "error", err)
		return
	}

	transport := newConn(ws)
	session := that.hub.Connect(transport)

	defer func() {
		that.hub.Disconnect(session)
		_ = transport.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	ws.SetPongHandler(func(string) error {
		that.hub.Pong(session)
		return nil
	})

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket closed unexpectedly", "session", session.ID(), "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		that.hub.HandleMessage(session, data)
	}
}
