package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	log "github.com/echocat/slf4g"
	"github.com/gorilla/websocket"

	"github.com/ayusman/signvoice/internal/announce"
	"github.com/ayusman/signvoice/internal/display"
	"github.com/ayusman/signvoice/internal/session"
)

const (
	clientBuffer = 16
	writeTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event types sent on /api/events.
const (
	EventLabel   = "label"
	EventNeutral = "neutral"
	EventState   = "state"
	EventMode    = "mode"
)

// Event is one message on the event feed.
type Event struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	State     string `json:"state,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts label, state and mode changes to websocket clients. It is
// a display.Labels sink; consecutive neutral resets are sent once.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	label   string
	state   session.State
	mode    announce.Mode
	closed  bool
}

var _ display.Labels = (*Hub)(nil)

// NewHub creates a Hub showing the neutral label.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		label:   display.Neutral,
		state:   session.StateStopped,
	}
}

// ShowLabel implements display.Labels.
func (h *Hub) ShowLabel(text string) {
	h.mu.Lock()
	h.label = text
	h.mu.Unlock()
	h.broadcast(Event{Type: EventLabel, Text: text})
}

// ShowNeutral implements display.Labels.
func (h *Hub) ShowNeutral() {
	h.mu.Lock()
	if h.label == display.Neutral {
		h.mu.Unlock()
		return
	}
	h.label = display.Neutral
	h.mu.Unlock()
	h.broadcast(Event{Type: EventNeutral})
}

// SetState publishes a session state change.
func (h *Hub) SetState(s session.State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
	h.broadcast(Event{Type: EventState, State: string(s)})
}

// SetMode publishes an announce mode change.
func (h *Hub) SetMode(m announce.Mode) {
	h.mu.Lock()
	h.mode = m
	h.mu.Unlock()
	h.broadcast(Event{Type: EventMode, Mode: m.String()})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests. New clients first receive
// the current state, mode and label.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("WebSocket upgrade failed.")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}

	go h.write(c)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	for c := range clients {
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}

	now := time.Now().UnixMilli()
	snapshot := []Event{{Type: EventState, State: string(h.state), Timestamp: now}}
	if h.mode != "" {
		snapshot = append(snapshot, Event{Type: EventMode, Mode: h.mode.String(), Timestamp: now})
	}
	if h.label == display.Neutral {
		snapshot = append(snapshot, Event{Type: EventNeutral, Timestamp: now})
	} else {
		snapshot = append(snapshot, Event{Type: EventLabel, Text: h.label, Timestamp: now})
	}
	for _, ev := range snapshot {
		msg, _ := json.Marshal(ev)
		c.send <- msg
	}

	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(ev Event) {
	ev.Timestamp = time.Now().UnixMilli()
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.With("event", ev.Type).Debug("Dropping event for slow websocket client.")
		}
	}
}

// write is the only goroutine writing to c.conn.
func (h *Hub) write(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
