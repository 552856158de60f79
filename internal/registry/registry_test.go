package registry

import (
	"testing"
)

func TestActivateAndLookup(t *testing.T) {
	r := New()
	u := r.Activate("conn1", "alice", "lobby")

	if u.ID != "conn1" || u.Name != "alice" || u.Room != "lobby" {
		t.Fatalf("unexpected user returned: %+v", u)
	}

	got, ok := r.Lookup("conn1")
	if !ok {
		t.Fatal("expected to find conn1")
	}
	if got != u {
		t.Errorf("expected %+v, got %+v", u, got)
	}
}

func TestActivateLastWriteWins(t *testing.T) {
	r := New()
	r.Activate("conn1", "alice", "lobby")
	r.Activate("conn1", "alice", "general")
	r.Activate("conn1", "alicia", "random")

	got, ok := r.Lookup("conn1")
	if !ok {
		t.Fatal("expected to find conn1")
	}
	if got.Name != "alicia" || got.Room != "random" {
		t.Errorf("expected most recent record, got %+v", got)
	}
	if r.Count() != 1 {
		t.Errorf("expected a single record, got %d", r.Count())
	}
}

func TestDeactivate(t *testing.T) {
	r := New()
	r.Activate("conn1", "alice", "lobby")
	r.Deactivate("conn1")

	if _, ok := r.Lookup("conn1"); ok {
		t.Error("expected conn1 to be gone after Deactivate")
	}
	if len(r.UsersInRoom("lobby")) != 0 {
		t.Error("expected conn1 to be excluded from its former room")
	}
}

func TestDeactivateUnknownIsNoOp(t *testing.T) {
	r := New()
	r.Deactivate("ghost")

	if r.Count() != 0 {
		t.Errorf("expected empty registry, got %d records", r.Count())
	}
}

func TestLookupAbsent(t *testing.T) {
	r := New()
	if _, ok := r.Lookup("nope"); ok {
		t.Error("expected absent lookup to report false")
	}
}

func TestUsersInRoomFiltersByRoom(t *testing.T) {
	r := New()
	r.Activate("conn1", "alice", "lobby")
	r.Activate("conn2", "bob", "lobby")
	r.Activate("conn3", "carol", "general")

	users := r.UsersInRoom("lobby")
	if len(users) != 2 {
		t.Fatalf("expected 2 users in lobby, got %d", len(users))
	}
	for _, u := range users {
		if u.Room != "lobby" {
			t.Errorf("UsersInRoom returned user from %q", u.Room)
		}
	}
}

func TestUsersInRoomUnknownRoomIsEmpty(t *testing.T) {
	r := New()
	r.Activate("conn1", "alice", "lobby")

	users := r.UsersInRoom("nowhere")
	if users == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(users) != 0 {
		t.Errorf("expected no users, got %d", len(users))
	}
}

func TestActiveRoomsDistinct(t *testing.T) {
	r := New()
	r.Activate("conn1", "alice", "lobby")
	r.Activate("conn2", "bob", "lobby")
	r.Activate("conn3", "carol", "general")

	rooms := r.ActiveRooms()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %v", rooms)
	}
	if rooms[0] != "general" || rooms[1] != "lobby" {
		t.Errorf("expected [general lobby], got %v", rooms)
	}
}

func TestActiveRoomsEmptyRegistry(t *testing.T) {
	r := New()
	rooms := r.ActiveRooms()
	if rooms == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(rooms) != 0 {
		t.Errorf("expected no rooms, got %v", rooms)
	}
}

func TestRoomDisappearsWithLastMember(t *testing.T) {
	r := New()
	r.Activate("conn1", "alice", "lobby")
	r.Activate("conn1", "alice", "general")

	if len(r.UsersInRoom("lobby")) != 0 {
		t.Error("expected lobby to be empty after switch")
	}
	users := r.UsersInRoom("general")
	if len(users) != 1 || users[0].Name != "alice" {
		t.Errorf("expected alice in general, got %v", users)
	}

	rooms := r.ActiveRooms()
	if len(rooms) != 1 || rooms[0] != "general" {
		t.Errorf("expected lobby to vanish, got %v", rooms)
	}
}

func TestPermissiveNames(t *testing.T) {
	r := New()
	// Empty names and rooms are accepted as-is.
	u := r.Activate("conn1", "", "")

	if u.Name != "" || u.Room != "" {
		t.Errorf("expected empty fields preserved, got %+v", u)
	}
	if len(r.UsersInRoom("")) != 1 {
		t.Error("expected the empty-string room to be queryable")
	}
}
