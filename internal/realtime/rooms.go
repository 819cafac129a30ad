package realtime

import (
	"sync"
)

// Room identifiers are plain strings; ticket threads use "ticket:<id>" and
// support staff share a single inbox room for cross-ticket alerts.
const SupportInboxRoom = "support:inbox"

func TicketRoom(ticketID string) string {
	return "ticket:" + ticketID
}

// Rooms groups connections for scoped broadcasts. Membership is independent
// of the per-user presence mapping: one room usually spans several users
// (all participants of a support ticket). Authorization for joining a room
// is the caller's concern.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Conn
	// joined tracks room memberships per connection for cheap cleanup on
	// disconnect.
	joined map[string]map[string]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms:  make(map[string]map[string]Conn),
		joined: make(map[string]map[string]struct{}),
	}
}

// Join adds the connection to the room; joining twice is a no-op.
func (r *Rooms) Join(roomID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]Conn)
		r.rooms[roomID] = members
	}
	members[conn.ID()] = conn

	rooms, ok := r.joined[conn.ID()]
	if !ok {
		rooms = make(map[string]struct{})
		r.joined[conn.ID()] = rooms
	}
	rooms[roomID] = struct{}{}
}

// Leave removes the connection from the room; leaving a room it never
// joined is a no-op. Empty rooms are dropped.
func (r *Rooms) Leave(roomID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(roomID, connID)
}

func (r *Rooms) leaveLocked(roomID, connID string) {
	if members, ok := r.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
	if rooms, ok := r.joined[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.joined, connID)
		}
	}
}

// LeaveAll removes the connection from every room it joined; called on
// disconnect.
func (r *Rooms) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.joined[connID] {
		r.leaveLocked(roomID, connID)
	}
}

// Broadcast sends the event to every connection currently in the room.
// Delivery is best effort: a connection that closed between the snapshot
// and the write is skipped silently.
func (r *Rooms) Broadcast(roomID, event string, data any) {
	r.mu.RLock()
	members := r.rooms[roomID]
	conns := make([]Conn, 0, len(members))
	for _, c := range members {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		_ = c.WriteEvent(event, data)
	}
}

// MemberCount reports current room membership, mostly for tests and the
// health surface.
func (r *Rooms) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
