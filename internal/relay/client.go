package relay

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Client bridges a hub to a remote backend over WebSocket: game traffic
// published on the hub is written to the socket and backend messages are
// delivered back to the hub.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	sub    *Subscription
	logger *log.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the backend at rawURL. http and https URLs are mapped to
// ws and wss.
func Dial(ctx context.Context, rawURL string, hub *Hub, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	sub, err := hub.Outgoing(sendBuffer)
	if err != nil {
		return nil, err
	}

	logger = logger.WithPrefix("client")
	logger.Info("connecting to backend", "url", target)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Client{
		conn:   conn,
		hub:    hub,
		sub:    sub,
		logger: logger,
		done:   make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()
	return c, nil
}

func normalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		u.Scheme = "ws"
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", rawURL)
	}
	if u.Path == "" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Done closes when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close ends the connection and its hub subscription.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.sub.Close()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("websocket error", "err", err)
			}
			return
		}
		if !IsInbound(msg.Type) {
			c.logger.Debug("ignoring non-backend message", "type", msg.Type)
			continue
		}
		c.hub.Deliver(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sub.C():
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("failed to write message", "type", msg.Type, "err", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
