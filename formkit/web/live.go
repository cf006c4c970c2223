package web

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Message is a browser event sent over the live channel.
type Message struct {
	Type  string `json:"type"`
	Form  string `json:"form"`
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
}

// LiveHandler handles a message from a client of the given session.  The
// returned reply, if not nil, is written back to that client as JSON.
type LiveHandler func(session string, msg Message) (interface{}, error)

type client struct {
	conn    *websocket.Conn
	session string
	wmu     sync.Mutex
}

func (c *client) write(v interface{}) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteJSON(v)
}

// Live manages the WebSocket connections that carry value changes from the
// browser and facet state back to it.
type Live struct {
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	session  func(*http.Request) string
	handle   LiveHandler
	log      *log.Logger
}

// NewLive creates a live channel.  session identifies the session a request
// belongs to; an empty result rejects the connection.
func NewLive(session func(*http.Request) string, handle LiveHandler) *Live {
	return &Live{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		session: session,
		handle:  handle,
		log:     log.New(log.Writer(), log.Prefix(), log.Flags()),
	}
}

// SetLogger replaces the channel's logger.
func (l *Live) SetLogger(logger *log.Logger) {
	l.log = logger
}

// ServeHTTP upgrades the connection and serves messages until the client
// disconnects.
func (l *Live) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sid := l.session(r)
	if sid == "" {
		http.Error(w, "no session", http.StatusForbidden)
		return
	}
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.Printf("Live connection upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, session: sid}

	l.mu.Lock()
	l.clients[c] = true
	l.mu.Unlock()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		reply, err := l.handle(sid, msg)
		if err != nil {
			l.log.Printf("Live %s %s/%s: %v", msg.Type, msg.Form, msg.Field, err)
		}
		if reply == nil {
			continue
		}
		if err := c.write(reply); err != nil {
			break
		}
	}

	l.drop(c)
}

func (l *Live) drop(c *client) {
	l.mu.Lock()
	delete(l.clients, c)
	l.mu.Unlock()
	c.conn.Close()
}

// Push sends v to every client of the given session.
func (l *Live) Push(session string, v interface{}) {
	l.mu.RLock()
	clients := make([]*client, 0, len(l.clients))
	for c := range l.clients {
		if c.session == session {
			clients = append(clients, c)
		}
	}
	l.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(v); err != nil {
			l.drop(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (l *Live) ClientCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

// Close closes all client connections.
func (l *Live) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for c := range l.clients {
		c.conn.Close()
		delete(l.clients, c)
	}
}
