package app

import (
	"studysync-service/internal/domain"
)

// SessionMap tracks live connections and which room each is bound to.
//
// It only holds back-references; rooms and participants belong to the registry. Every
// participant removal goes through Unbind so the two never disagree. SessionMap is owned by
// the dispatcher loop and is not safe for concurrent use.
type SessionMap struct {
	registry RoomRegistry
	conns    map[string]Sender
	order    []string
	bindings map[string]string
	members  map[string][]string
}

func NewSessionMap(registry RoomRegistry) *SessionMap {
	return &SessionMap{
		registry: registry,
		conns:    make(map[string]Sender),
		bindings: make(map[string]string),
		members:  make(map[string][]string),
	}
}

// Connect registers a live connection.
func (m *SessionMap) Connect(conn Sender) {
	if _, ok := m.conns[conn.ID()]; ok {
		return
	}
	m.conns[conn.ID()] = conn
	m.order = append(m.order, conn.ID())
}

// Disconnect unbinds the connection and forgets it.
func (m *SessionMap) Disconnect(connID string) (string, bool) {
	roomID, ok := m.Unbind(connID)
	if _, known := m.conns[connID]; known {
		delete(m.conns, connID)
		m.order = removeID(m.order, connID)
	}
	return roomID, ok
}

// Bind associates the connection with a room. A connection is bound to at most one room;
// binding elsewhere first unbinds it and returns the previous room.
func (m *SessionMap) Bind(connID, roomID string) (string, bool) {
	current, bound := m.bindings[connID]
	if bound && current == roomID {
		return "", false
	}
	var previous string
	var moved bool
	if bound {
		previous, moved = m.Unbind(connID)
	}
	m.bindings[connID] = roomID
	m.members[roomID] = append(m.members[roomID], connID)
	return previous, moved
}

// SetParticipantName creates or renames the connection's participant in roomID.
func (m *SessionMap) SetParticipantName(connID, roomID, name string) error {
	if m.bindings[connID] != roomID {
		return domain.ErrNotInRoom
	}
	room, ok := m.registry.GetRoom(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.SetParticipantName(connID, name)
	return nil
}

// Unbind removes the connection's participant from its room and returns that room.
func (m *SessionMap) Unbind(connID string) (string, bool) {
	roomID, ok := m.bindings[connID]
	if !ok {
		return "", false
	}
	delete(m.bindings, connID)
	remaining := removeID(m.members[roomID], connID)
	if len(remaining) == 0 {
		delete(m.members, roomID)
	} else {
		m.members[roomID] = remaining
	}
	if room, ok := m.registry.GetRoom(roomID); ok {
		room.RemoveParticipant(connID)
	}
	return roomID, true
}

// RoomOf returns the room the connection is bound to.
func (m *SessionMap) RoomOf(connID string) (string, bool) {
	roomID, ok := m.bindings[connID]
	return roomID, ok
}

// MemberCount returns the number of connections bound to a room.
func (m *SessionMap) MemberCount(roomID string) int {
	return len(m.members[roomID])
}

// Members returns the connections bound to a room in bind order.
func (m *SessionMap) Members(roomID string) []Sender {
	ids := m.members[roomID]
	out := make([]Sender, 0, len(ids))
	for _, id := range ids {
		if conn, ok := m.conns[id]; ok {
			out = append(out, conn)
		}
	}
	return out
}

// All returns every live connection.
func (m *SessionMap) All() []Sender {
	out := make([]Sender, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.conns[id])
	}
	return out
}

// Sender looks up a live connection.
func (m *SessionMap) Sender(connID string) (Sender, bool) {
	conn, ok := m.conns[connID]
	return conn, ok
}

// DropRoom forgets every binding to roomID once the room is destroyed.
func (m *SessionMap) DropRoom(roomID string) {
	for _, id := range m.members[roomID] {
		delete(m.bindings, id)
	}
	delete(m.members, roomID)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
