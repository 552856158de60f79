// Package chat implements the event router: it reacts to connection
// lifecycle and inbound chat events by updating the membership registry
// and fanning out notices, rosters, and room lists over a Broadcaster.
package chat

import (
	"sync"
	"time"

	"github.com/danielhooper/roomrelay/internal/registry"
)

// Broadcaster is the transport seam the router fans out through. Delivery
// is best effort: implementations must not block the caller, acknowledge,
// or retry. A payload is marshaled by the implementation.
type Broadcaster interface {
	// JoinRoom adds the connection to a room's broadcast group.
	JoinRoom(id, room string)
	// LeaveRoom removes the connection from a room's broadcast group.
	LeaveRoom(id, room string)
	// ToConn delivers an event to a single connection.
	ToConn(id, event string, payload any)
	// ToRoom delivers an event to every member of a room's group.
	ToRoom(room, event string, payload any)
	// ToOthersInRoom delivers an event to every member of a room's group
	// except the named connection.
	ToOthersInRoom(room, exceptID, event string, payload any)
	// ToAll delivers an event to every connected socket.
	ToAll(event string, payload any)
}

// Router owns the per-connection chat lifecycle. A single mutex serializes
// every handler, so registry reads, writes, and broadcast-scope decisions
// never interleave across connections.
type Router struct {
	mu  sync.Mutex
	reg *registry.Registry
	bc  Broadcaster
	now func() time.Time
}

// NewRouter creates a Router over the given registry and broadcaster.
func NewRouter(reg *registry.Registry, bc Broadcaster) *Router {
	return &Router{
		reg: reg,
		bc:  bc,
		now: time.Now,
	}
}

// HandleConnect greets a newly connected socket. The registry is untouched:
// a connection stays invisible to roster queries until its first enterRoom.
func (rt *Router) HandleConnect(id string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.bc.ToConn(id, EventMessage, rt.notice("Welcome to the chat app!"))
}

// HandleEnterRoom joins the connection to a room, leaving its previous room
// first when it had one. Joining the room the user is already in replays
// the full leave/join fan-out; last write wins either way.
func (rt *Router) HandleEnterRoom(id string, p EnterRoomPayload) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	prev, hadRoom := rt.reg.Lookup(id)
	user := rt.reg.Activate(id, p.Name, p.Room)

	if hadRoom {
		rt.bc.LeaveRoom(id, prev.Room)
		// The notice carries the name from the enterRoom payload, so a
		// user renaming mid-switch departs under the new name.
		rt.bc.ToRoom(prev.Room, EventMessage, rt.notice(user.Name+" has left the room"))
		rt.bc.ToRoom(prev.Room, EventUserList, UserList{Users: rt.reg.UsersInRoom(prev.Room)})
	}

	rt.bc.JoinRoom(id, user.Room)
	rt.bc.ToConn(id, EventMessage, rt.notice("You have joined the "+user.Room+" chat room"))
	rt.bc.ToOthersInRoom(user.Room, id, EventMessage, rt.notice(user.Name+" has joined the room"))
	rt.bc.ToRoom(user.Room, EventUserList, UserList{Users: rt.reg.UsersInRoom(user.Room)})
	rt.bc.ToAll(EventRoomList, RoomList{Rooms: rt.reg.ActiveRooms()})
}

// HandleMessage relays a chat message to everyone in the sender's room,
// sender included. A sender with no room is dropped silently.
func (rt *Router) HandleMessage(id string, p MessagePayload) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	user, ok := rt.reg.Lookup(id)
	if !ok {
		return
	}
	rt.bc.ToRoom(user.Room, EventMessage, rt.buildMessage(p.Name, p.Text))
}

// HandleActivity relays a typing notice to everyone in the sender's room
// except the sender. A sender with no room is dropped silently.
func (rt *Router) HandleActivity(id, name string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	user, ok := rt.reg.Lookup(id)
	if !ok {
		return
	}
	rt.bc.ToOthersInRoom(user.Room, id, EventActivity, name)
}

// HandleDisconnect removes the connection's record and, when one existed,
// tells the former room and refreshes the global room list. A connection
// that never joined a room disconnects without any broadcast.
func (rt *Router) HandleDisconnect(id string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	user, ok := rt.reg.Lookup(id)
	rt.reg.Deactivate(id)
	if !ok {
		return
	}

	rt.bc.ToRoom(user.Room, EventMessage, rt.notice(user.Name+" has left the room"))
	rt.bc.ToRoom(user.Room, EventUserList, UserList{Users: rt.reg.UsersInRoom(user.Room)})
	rt.bc.ToAll(EventRoomList, RoomList{Rooms: rt.reg.ActiveRooms()})
}

// buildMessage stamps a chat payload with the local wall-clock time.
func (rt *Router) buildMessage(name, text string) Message {
	return Message{
		Name: name,
		Text: text,
		Time: rt.now().Format("15:04:05"),
	}
}

func (rt *Router) notice(text string) Message {
	return rt.buildMessage(AdminName, text)
}
