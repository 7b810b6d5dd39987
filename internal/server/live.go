package server

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/TobiSchelling/healthcap/internal/logging"
	"github.com/TobiSchelling/healthcap/internal/validation"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 8
)

// Live message types.
const (
	msgSelect = "select"
	msgPing   = "ping"
	msgPong   = "pong"
	msgCharts = "charts"
	msgError  = "error"
)

// clientMessage is a change event from the dropdown.
type clientMessage struct {
	Type  string `json:"type" validate:"required,oneof=select ping"`
	State string `json:"state" validate:"required_if=Type select,max=128"`
}

// serverMessage carries freshly drawn charts, a pong, or an error.
type serverMessage struct {
	Type    string `json:"type"`
	State   string `json:"state,omitempty"`
	Known   *bool  `json:"known,omitempty"`
	Line    string `json:"line,omitempty"`
	Scatter string `json:"scatter,omitempty"`
	Heatmap string `json:"heatmap,omitempty"`
	Error   string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  64 * 1024,
	HandshakeTimeout: 10 * time.Second,
}

// handleLive upgrades to a websocket and serves one session. Change events
// are handled one at a time in arrival order on the reading goroutine, so a
// session never renders concurrently.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.metrics.LiveSessions.Inc()
	defer s.metrics.LiveSessions.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	sess := &session{
		srv:  s,
		conn: conn,
		send: make(chan serverMessage, sendBuffer),
		log:  logging.Ctx(r.Context()),
	}
	sess.log.Debug().Msg("live session opened")

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		sess.writePump(ctx)
	}()

	sess.readLoop(ctx)
	cancel()
	<-done
	sess.log.Debug().Msg("live session closed")
}

type session struct {
	srv  *Server
	conn *websocket.Conn
	send chan serverMessage
	log  *zerolog.Logger
}

// readLoop handles client messages until the connection fails or ctx ends.
func (c *session) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected websocket close")
			}
			return
		}
		if !c.enqueue(ctx, c.handle(data)) {
			return
		}
	}
}

// handle turns one client frame into the reply.
func (c *session) handle(data []byte) serverMessage {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return serverMessage{Type: msgError, Error: "malformed message"}
	}
	if err := validation.Struct(msg); err != nil {
		return serverMessage{Type: msgError, Error: err.Error()}
	}

	switch msg.Type {
	case msgPing:
		return serverMessage{Type: msgPong}
	default:
		start := time.Now()
		ch, set := c.srv.draw(msg.State, sourceLive)
		c.log.Debug().
			Str("state", ch.State).
			Bool("known", ch.Known).
			Dur("elapsed", time.Since(start)).
			Msg("selection rendered")
		return serverMessage{
			Type:    msgCharts,
			State:   set.State,
			Known:   &ch.Known,
			Line:    set.Line,
			Scatter: set.Scatter,
			Heatmap: set.Heatmap,
		}
	}
}

func (c *session) enqueue(ctx context.Context, msg serverMessage) bool {
	select {
	case c.send <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// writePump is the only writer on the connection. It closes the
// connection when ctx ends, which also unblocks readLoop.
func (c *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			body, err := json.Marshal(msg)
			if err != nil {
				c.log.Error().Err(err).Msg("encoding live message")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				c.log.Debug().Err(err).Msg("live write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
