// Package registry tracks which connection is in which room. It is the
// single source of truth for roster and room-list queries; rooms have no
// entity of their own and exist exactly while at least one user record
// points at them.
package registry

import (
	"sort"
	"sync"
)

// User is the membership record for one live connection.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Room string `json:"room"`
}

// Registry maps connection IDs to membership records. At most one record
// exists per connection ID. All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	users map[string]User
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		users: make(map[string]User),
	}
}

// Activate records that the connection is now named name and assigned to
// room, replacing any previous record for the same ID (last write wins).
// It always succeeds and returns the stored record.
func (r *Registry) Activate(id, name, room string) User {
	u := User{ID: id, Name: name, Room: room}
	r.mu.Lock()
	r.users[id] = u
	r.mu.Unlock()
	return u
}

// Deactivate removes the record for id. Removing an unknown ID is a no-op.
func (r *Registry) Deactivate(id string) {
	r.mu.Lock()
	delete(r.users, id)
	r.mu.Unlock()
}

// Lookup returns the record for id, if one exists.
func (r *Registry) Lookup(id string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	return u, ok
}

// UsersInRoom returns every user currently assigned to room, sorted by
// name for stable output. The slice is never nil.
func (r *Registry) UsersInRoom(room string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]User, 0)
	for _, u := range r.users {
		if u.Room == room {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// ActiveRooms returns the distinct room names held by any current user,
// sorted. A room with no members never appears. The slice is never nil.
func (r *Registry) ActiveRooms() []string {
	r.mu.RLock()
	seen := make(map[string]struct{})
	for _, u := range r.users {
		seen[u.Room] = struct{}{}
	}
	r.mu.RUnlock()

	rooms := make([]string, 0, len(seen))
	for room := range seen {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
