package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/folio/internal/errors"
	"github.com/vango-dev/folio/pkg/middleware"
)

// wsConn is one WebSocket connection of a client.
type wsConn struct {
	conn   *websocket.Conn
	client *Client
	config *Config
	logger *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// HandleWebSocket upgrades the request and attaches the connection to the
// caller's client. The client reports its viewport width and color scheme;
// the server pushes DOM commands and state snapshots.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	client := s.client(w, r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		middleware.RecordWebSocketError("upgrade")
		s.logger.Warn("websocket upgrade failed",
			"client", client.ID,
			"error", errors.New("F402").Wrap(err),
		)
		return
	}

	c := &wsConn{
		conn:   conn,
		client: client,
		config: s.config,
		logger: s.logger.With("client", client.ID),
		send:   make(chan []byte, s.config.SendBuffer),
		done:   make(chan struct{}),
	}

	client.attach(c)
	go c.writeLoop()
	c.readLoop()
}

// readLoop reads client messages until the connection fails or closes.
func (c *wsConn) readLoop() {
	defer func() {
		c.client.detach(c)
		c.close()
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				middleware.RecordWebSocketError("read")
				c.logger.Error("read error", "error", err)
			}
			return
		}

		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		c.client.Touch()

		var in inbound
		if err := json.Unmarshal(msg, &in); err != nil {
			middleware.RecordWebSocketError("decode")
			c.logger.Warn("message decode error", "error", err)
			c.reply(outbound{Type: msgError, Error: errors.New("F401").FormatCompact()})
			continue
		}
		c.handle(in)
	}
}

func (c *wsConn) handle(in inbound) {
	app := c.client.App
	switch in.Type {
	case msgViewport:
		if in.Width < 0 {
			c.logger.Warn("negative viewport width", "width", in.Width)
			return
		}
		app.Signals().SetWidth(in.Width)
		// The first report starts the observer; later ones arrive through
		// the feed.
		app.ObserveViewport()

	case msgScheme:
		app.Signals().SetPrefersDark(in.Dark)

	case msgPing:
		c.reply(outbound{Type: msgPong})

	default:
		middleware.RecordWebSocketError("unknown_message")
		c.logger.Warn("unknown message type", "type", in.Type)
	}
}

func (c *wsConn) reply(msg outbound) {
	frame, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("encode reply", "error", err)
		return
	}
	c.enqueue(frame)
}

// enqueue queues a frame without blocking. A connection that cannot keep
// up is closed; the client resynchronizes from the next state frame after
// reconnecting.
func (c *wsConn) enqueue(frame []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- frame:
	default:
		middleware.RecordWebSocketError("send_buffer_full")
		c.logger.Warn("send buffer full, closing connection")
		c.close()
	}
}

// writeLoop sends queued frames and heartbeats until the connection closes.
func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				middleware.RecordWebSocketError("write")
				c.logger.Error("write error", "error", err)
				c.close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				middleware.RecordWebSocketError("ping")
				c.close()
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.conn.Close()
	})
}
