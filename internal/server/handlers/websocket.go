// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"tokscope/pkg/logging"
)

// EventSource delivers raw event payloads published on a subject
type EventSource interface {
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func(), err error)
}

// NATSSource adapts a NATS connection to EventSource
type NATSSource struct {
	Conn *nats.Conn
}

// Subscribe subscribes to subject on the NATS connection
func (s NATSSource) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	sub, err := s.Conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64

	// Outbound messages buffered per client before events are dropped
	SendBuffer int
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// feedClient is one WebSocket subscriber of the analysis feed
type feedClient struct {
	conn      *websocket.Conn
	send      chan []byte
	config    WebSocketConfig
	logger    logging.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// AnalysisFeedHandler streams completed analysis events to WebSocket clients
func AnalysisFeedHandler(source EventSource, subject string, config WebSocketConfig, logger logging.Logger) http.HandlerFunc {
	defaults := DefaultWebSocketConfig()
	if config.PingPeriod <= 0 || config.PongWait <= 0 || config.WriteWait <= 0 {
		config.WriteWait, config.PongWait, config.PingPeriod = defaults.WriteWait, defaults.PongWait, defaults.PingPeriod
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			http.Error(w, "Event feed is not configured", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("failed to upgrade to WebSocket")
			return
		}

		client := &feedClient{
			conn:   conn,
			send:   make(chan []byte, config.SendBuffer),
			config: config,
			logger: logger,
			done:   make(chan struct{}),
		}

		unsubscribe, err := source.Subscribe(subject, client.enqueue)
		if err != nil {
			logger.WithError(err).WithField("subject", subject).Error("failed to subscribe to analysis events")
			client.closeConnection()
			return
		}

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":    "welcome",
			"subject": subject,
			"time":    time.Now().UTC(),
		})
		client.enqueue(welcome)

		go client.writePump()
		go func() {
			client.readPump()
			unsubscribe()
		}()

		logger.WithField("remote", r.RemoteAddr).Info("analysis feed client connected")
	}
}

// enqueue drops the event when the client is slow or gone
func (c *feedClient) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn("analysis feed client too slow, dropping event")
	}
}

// readPump drains control frames until the peer goes away
func (c *feedClient) readPump() {
	defer c.closeConnection()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Warn("WebSocket error")
			}
			return
		}
	}
}

// writePump pumps events to the WebSocket connection
func (c *feedClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConnection closes the WebSocket connection once
func (c *feedClient) closeConnection() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
		c.logger.Debug("analysis feed client disconnected")
	})
}
