package chat

import "github.com/danielhooper/roomrelay/internal/registry"

// Wire event names. Clients match on these strings exactly, so they must
// not drift.
const (
	EventEnterRoom = "enterRoom"
	EventMessage   = "message"
	EventActivity  = "activity"
	EventUserList  = "userList"
	EventRoomList  = "roomList"
)

// AdminName is the sender attached to server-generated notices.
const AdminName = "Admin"

// EnterRoomPayload is the inbound enterRoom payload.
type EnterRoomPayload struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// MessagePayload is the inbound message payload.
type MessagePayload struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Message is the outbound chat/notice payload. Time is stamped by the
// server at broadcast time.
type Message struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// UserList is the outbound roster payload for one room.
type UserList struct {
	Users []registry.User `json:"users"`
}

// RoomList is the outbound list of rooms that currently have members.
type RoomList struct {
	Rooms []string `json:"rooms"`
}
