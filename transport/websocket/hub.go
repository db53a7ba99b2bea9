package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	defaultHeartbeatInterval = 5 * time.Second
	defaultClientTimeout     = 10 * time.Second
	defaultSweepInterval     = 30 * time.Second
	defaultMailboxSize       = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope of messages the hub produces itself
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SystemNotice is the payload of "system" messages
type SystemNotice struct {
	RoomID  string `json:"room_id"`
	ConnID  string `json:"conn_id"`
	Message string `json:"message"`
}

// Hub tracks live connections, their activity and room memberships.
// Room ids are game ids; connection ids are player ids.
type Hub struct {
	mu          sync.RWMutex
	clients     map[string]*Client
	activity    map[string]time.Time
	rooms       map[string]map[string]bool
	memberships map[string]map[string]bool

	handler GameHandler

	heartbeatInterval time.Duration
	clientTimeout     time.Duration
	sweepInterval     time.Duration
	mailboxSize       int
	now               func() time.Time
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithHeartbeat sets the ping interval and the inactivity timeout
func WithHeartbeat(interval, timeout time.Duration) HubOption {
	return func(h *Hub) {
		h.heartbeatInterval = interval
		h.clientTimeout = timeout
	}
}

// WithSweepInterval sets how often stale connections are swept
func WithSweepInterval(d time.Duration) HubOption {
	return func(h *Hub) { h.sweepInterval = d }
}

// WithMailboxSize sets the outbound buffer size per connection
func WithMailboxSize(n int) HubOption {
	return func(h *Hub) { h.mailboxSize = n }
}

// WithClock replaces time.Now for activity tracking
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// NewHub creates a new WebSocket hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:           make(map[string]*Client),
		activity:          make(map[string]time.Time),
		rooms:             make(map[string]map[string]bool),
		memberships:       make(map[string]map[string]bool),
		heartbeatInterval: defaultHeartbeatInterval,
		clientTimeout:     defaultClientTimeout,
		sweepInterval:     defaultSweepInterval,
		mailboxSize:       defaultMailboxSize,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetHandler sets where inbound game messages are dispatched
func (h *Hub) SetHandler(handler GameHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// Run sweeps stale connections until ctx is cancelled
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case <-ticker.C:
			if removed := h.Sweep(h.clientTimeout); len(removed) > 0 {
				log.Printf("[hub] swept %d stale connections", len(removed))
			}
		}
	}
}

// ServeWS upgrades the request and starts the connection's pumps
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, connID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[hub] upgrade failed for %s: %v", connID, err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.mailboxSize),
		id:   connID,
	}
	h.Register(client)

	go client.writePump()
	go client.readPump()
}

// Register stores the client's mailbox under its id. A client already
// registered under the same id is superseded and its mailbox closed.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	old := h.clients[c.id]
	h.clients[c.id] = c
	h.activity[c.id] = h.now()
	if h.memberships[c.id] == nil {
		h.memberships[c.id] = make(map[string]bool)
	}
	if old != nil && old != c {
		close(old.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if old != nil && old != c {
		log.Printf("[hub] %s reconnected, previous connection closed", c.id)
	}
	log.Printf("[hub] registered %s (total connections: %d)", c.id, total)
}

// UpdateActivity records inbound traffic from a connection
func (h *Hub) UpdateActivity(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connID]; ok {
		h.activity[connID] = h.now()
	}
}

// JoinRoom adds a registered connection to a room. It returns true only
// when the connection was newly added; the other members then get a
// system notice.
func (h *Hub) JoinRoom(roomID, connID string) bool {
	h.mu.Lock()
	if _, ok := h.clients[connID]; !ok {
		h.mu.Unlock()
		return false
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	if h.rooms[roomID][connID] {
		h.mu.Unlock()
		return false
	}
	h.rooms[roomID][connID] = true
	h.memberships[connID][roomID] = true
	h.mu.Unlock()

	h.BroadcastToRoom(roomID, systemMessage(roomID, connID, "joined"), connID)
	return true
}

// LeaveRoom removes a connection from a room, deleting the room when it
// becomes empty. Remaining members get a system notice.
func (h *Hub) LeaveRoom(roomID, connID string) bool {
	h.mu.Lock()
	left := h.leaveLocked(roomID, connID)
	h.mu.Unlock()

	if left {
		h.BroadcastToRoom(roomID, systemMessage(roomID, connID, "left"), connID)
	}
	return left
}

func (h *Hub) leaveLocked(roomID, connID string) bool {
	members, ok := h.rooms[roomID]
	if !ok || !members[connID] {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
	delete(h.memberships[connID], roomID)
	return true
}

func systemMessage(roomID, connID, verb string) Message {
	return Message{Type: "system", Data: SystemNotice{
		RoomID:  roomID,
		ConnID:  connID,
		Message: fmt.Sprintf("player %s %s the room", connID, verb),
	}}
}

// BroadcastToRoom delivers event to every member of the room except skip.
// A member whose mailbox is full misses the event.
func (h *Hub) BroadcastToRoom(roomID string, event any, skip string) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[hub] failed to marshal broadcast for room %s: %v", roomID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[roomID] {
		if connID == skip {
			continue
		}
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		select {
		case client.send <- data:
		default:
			log.Printf("[hub] mailbox full for %s, dropped message for room %s", connID, roomID)
		}
	}
}

// SendTo delivers event to one connection. It returns false when the
// connection is unknown or its mailbox is full.
func (h *Hub) SendTo(connID string, event any) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[hub] failed to marshal message for %s: %v", connID, err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[connID]
	if !ok {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		log.Printf("[hub] mailbox full for %s, dropped private message", connID)
		return false
	}
}

// Remove drops a connection: it leaves every room, its mailbox is closed
// and its activity entry deleted
func (h *Hub) Remove(connID string) bool {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return h.removeClient(client)
}

// removeClient removes c only if it is still the registered client for
// its id, so a superseded connection cannot remove its replacement
func (h *Hub) removeClient(c *Client) bool {
	h.mu.Lock()
	if h.clients[c.id] != c {
		h.mu.Unlock()
		return false
	}
	delete(h.clients, c.id)
	delete(h.activity, c.id)
	var rooms []string
	for roomID := range h.memberships[c.id] {
		if h.leaveLocked(roomID, c.id) {
			rooms = append(rooms, roomID)
		}
	}
	delete(h.memberships, c.id)
	close(c.send)
	remaining := len(h.clients)
	h.mu.Unlock()

	for _, roomID := range rooms {
		h.BroadcastToRoom(roomID, systemMessage(roomID, c.id, "left"), c.id)
	}
	log.Printf("[hub] removed %s (remaining connections: %d)", c.id, remaining)
	return true
}

// Sweep removes every connection idle for longer than timeout and returns
// their ids
func (h *Hub) Sweep(timeout time.Duration) []string {
	now := h.now()
	h.mu.RLock()
	var stale []string
	for connID, last := range h.activity {
		if now.Sub(last) > timeout {
			stale = append(stale, connID)
		}
	}
	h.mu.RUnlock()

	removed := stale[:0]
	for _, connID := range stale {
		if h.Remove(connID) {
			removed = append(removed, connID)
		}
	}
	sort.Strings(removed)
	return removed
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		h.Remove(id)
	}
}

// RoomMembers returns the sorted connection ids in a room
func (h *Hub) RoomMembers(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]string, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		members = append(members, id)
	}
	sort.Strings(members)
	return members
}

// Stats reports the number of live connections and rooms
func (h *Hub) Stats() (connections, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients), len(h.rooms)
}
