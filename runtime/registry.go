// Package runtime keeps the in-memory state of the live connections.
package runtime

import (
	"dm-lab/contract"
	"dm-lab/domain"
	"sync"
)

type Set[K comparable] map[K]struct{}

// Registry maps live connections to the rooms they joined.
// Membership is connection scoped: one user with two connections holds two entries in its personal room.
type Registry struct {
	mu              sync.RWMutex
	sessions        map[string]contract.EventSink // connection -> sink
	connectionRooms map[string]Set[domain.RoomID] // connection -> rooms
	roomMembers     map[domain.RoomID]Set[string] // room -> connections
}

type Stats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:        make(map[string]contract.EventSink),
		connectionRooms: make(map[string]Set[domain.RoomID]),
		roomMembers:     make(map[domain.RoomID]Set[string]),
	}
}

// Register makes the connection addressable. It joins no room.
func (r *Registry) Register(connectionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connectionID] = sink
	if _, ok := r.connectionRooms[connectionID]; !ok {
		r.connectionRooms[connectionID] = make(Set[domain.RoomID])
	}
}

// Unregister drops the connection and every membership it held.
// Rooms left empty are removed.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.connectionRooms[connectionID] {
		r.leave(connectionID, roomID)
	}
	delete(r.connectionRooms, connectionID)
	delete(r.sessions, connectionID)
}

// Join returns false when the connection is not registered.
func (r *Registry) Join(connectionID string, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.connectionRooms[connectionID]
	if !ok {
		return false
	}
	rooms[roomID] = struct{}{}
	if _, ok = r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set[string])
	}
	r.roomMembers[roomID][connectionID] = struct{}{}
	return true
}

func (r *Registry) Leave(connectionID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leave(connectionID, roomID)
}

func (r *Registry) leave(connectionID string, roomID domain.RoomID) {
	if rooms, ok := r.connectionRooms[connectionID]; ok {
		delete(rooms, roomID)
	}
	if members, ok := r.roomMembers[roomID]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
}

// GetSinksForRoom returns a snapshot of the sinks of a room, nil for an unknown room.
// Callers deliver outside of the lock.
func (r *Registry) GetSinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(members))
	for connectionID := range members {
		if sink, exists := r.sessions[connectionID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// Rooms lists the rooms joined by a connection.
func (r *Registry) Rooms(connectionID string) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]domain.RoomID, 0, len(r.connectionRooms[connectionID]))
	for roomID := range r.connectionRooms[connectionID] {
		rooms = append(rooms, roomID)
	}
	return rooms
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{Connections: len(r.sessions), Rooms: len(r.roomMembers)}
}
