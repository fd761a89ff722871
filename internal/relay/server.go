package relay

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Server is a WebSocket backend. Every connection gets its own House.
type Server struct {
	upgrader websocket.Upgrader
	newHouse func() *House
	logger   *log.Logger

	mu    sync.Mutex
	conns map[*serverConn]struct{}
}

// NewServer creates a server that builds a house per connection with newHouse.
func NewServer(newHouse func() *House, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		newHouse: newHouse,
		logger:   logger.WithPrefix("server"),
		conns:    make(map[*serverConn]struct{}),
	}
}

// Handler serves the WebSocket endpoint on /ws and a health check on /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "err", err)
		return
	}

	sc := &serverConn{
		conn:   conn,
		house:  s.newHouse(),
		send:   make(chan Message, sendBuffer),
		done:   make(chan struct{}),
		logger: s.logger.With("remote", conn.RemoteAddr().String()),
	}

	s.mu.Lock()
	s.conns[sc] = struct{}{}
	total := len(s.conns)
	s.mu.Unlock()
	s.logger.Info("client connected", "total", total)

	go sc.writePump()
	sc.readPump()

	s.mu.Lock()
	delete(s.conns, sc)
	total = len(s.conns)
	s.mu.Unlock()
	s.logger.Info("client disconnected", "total", total)
}

// Connections returns the number of open connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close closes every open connection.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*serverConn, 0, len(s.conns))
	for sc := range s.conns {
		conns = append(conns, sc)
	}
	s.mu.Unlock()

	for _, sc := range conns {
		_ = sc.close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

type serverConn struct {
	conn   *websocket.Conn
	house  *House
	send   chan Message
	done   chan struct{}
	logger *log.Logger

	closeOnce sync.Once
}

func (c *serverConn) close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

// enqueue queues msg for writing. A connection that cannot keep up is closed.
func (c *serverConn) enqueue(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.close()
		return false
	}
}

func (c *serverConn) readPump() {
	defer func() { _ = c.close() }()

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
		c.logger.Debug("received message", "type", msg.Type)
		for _, reply := range c.house.Handle(msg) {
			if !c.enqueue(reply) {
				return
			}
		}
	}
}

func (c *serverConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.close()
	}()

	for {
		select {
		case msg := <-c.send:
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
