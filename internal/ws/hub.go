// Package ws is the WebSocket transport: it accepts connections, decodes
// inbound event envelopes, and fans outbound events out to single sockets,
// room groups, or everyone. Delivery is best effort.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Envelope is the JSON frame exchanged over the WebSocket: a wire event
// name plus its payload.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Hub groups live connections into room broadcast groups. A connection
// belongs to at most one room group at a time. Hub implements the
// broadcaster interface the chat router fans out through.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*Client            // by connection ID
	rooms    map[string]map[string]*Client // room -> connection ID -> client
	memberOf map[string]string             // connection ID -> current room
	mgr      *ConnManager
}

// NewHub creates an empty Hub.
func NewHub(opts ...ConnManagerOption) *Hub {
	return &Hub{
		conns:    make(map[string]*Client),
		rooms:    make(map[string]map[string]*Client),
		memberOf: make(map[string]string),
		mgr:      NewConnManager(opts...),
	}
}

// ConnMgr returns the connection manager for this hub.
func (h *Hub) ConnMgr() *ConnManager {
	return h.mgr
}

// Add registers a connection and starts its write pump. The returned
// context is cancelled when the connection is removed or the hub shuts
// down.
func (h *Hub) Add(c *Client) context.Context {
	ctx := h.mgr.Add(c)

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	return ctx
}

// Remove unregisters a connection, dropping it from its room group and
// stopping its write pump.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	delete(h.conns, c.id)
	if room, ok := h.memberOf[c.id]; ok {
		h.dropFromRoom(c.id, room)
	}
	h.mu.Unlock()

	h.mgr.Remove(c)
}

// JoinRoom adds the connection to a room's broadcast group, replacing any
// previous group membership.
func (h *Hub) JoinRoom(id, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok {
		return
	}
	if prev, ok := h.memberOf[id]; ok {
		h.dropFromRoom(id, prev)
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][id] = c
	h.memberOf[id] = room
}

// LeaveRoom removes the connection from a room's broadcast group.
func (h *Hub) LeaveRoom(id, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.memberOf[id] == room {
		h.dropFromRoom(id, room)
	}
}

// dropFromRoom removes id from a room group, deleting the group when it
// empties. Must be called while holding mu.
func (h *Hub) dropFromRoom(id, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.memberOf, id)
}

// ToConn delivers an event to a single connection.
func (h *Hub) ToConn(id, event string, payload any) {
	data, ok := encodeEnvelope(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	c := h.conns[id]
	h.mu.RUnlock()

	if c != nil {
		h.mgr.Send(c, data)
	}
}

// ToRoom delivers an event to every member of a room's group.
func (h *Hub) ToRoom(room, event string, payload any) {
	h.fanOut(room, "", event, payload)
}

// ToOthersInRoom delivers an event to every member of a room's group
// except the named connection.
func (h *Hub) ToOthersInRoom(room, exceptID, event string, payload any) {
	h.fanOut(room, exceptID, event, payload)
}

// ToAll delivers an event to every connected socket, joined or not.
func (h *Hub) ToAll(event string, payload any) {
	data, ok := encodeEnvelope(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.mgr.Send(c, data)
	}
}

// RoomSize returns the number of connections in a room's group.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Shutdown closes every connection and stops all write pumps.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.conns = make(map[string]*Client)
	h.rooms = make(map[string]map[string]*Client)
	h.memberOf = make(map[string]string)
	h.mu.Unlock()

	h.mgr.Shutdown()
}

// fanOut marshals once and sends to the room group, skipping exceptID
// when non-empty. The member set is copied so the lock is released
// before any send.
func (h *Hub) fanOut(room, exceptID, event string, payload any) {
	data, ok := encodeEnvelope(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	members := h.rooms[room]
	targets := make([]*Client, 0, len(members))
	for id, c := range members {
		if id == exceptID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.mgr.Send(c, data)
	}
}

func encodeEnvelope(event string, payload any) ([]byte, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: failed to marshal %s payload: %v", event, err)
		return nil, false
	}
	data, err := json.Marshal(Envelope{Event: event, Payload: raw})
	if err != nil {
		log.Printf("ws: failed to marshal %s envelope: %v", event, err)
		return nil, false
	}
	return data, true
}
