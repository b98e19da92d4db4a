package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/JockeTS/mazerunner/game/maze"
)

// State is the traversal state of a session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateMapSelected   State = "map_selected"
	StateInRoom        State = "in_room"
)

// Session is one player's play-through. The exported mutex methods serialize
// state changes; the map and room accessors must be called with the lock held.
type Session struct {
	ID        string
	CreatedAt time.Time

	// unix nanoseconds, updated without the session lock
	lastAccessedAt atomic.Int64

	mu          sync.Mutex
	graph       *maze.RoomGraph
	lastRoom    maze.RoomID
	hasLastRoom bool
}

func newSession(id string, now time.Time) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: now,
	}
	s.touch(now)
	return s
}

func (s *Session) touch(now time.Time) {
	s.lastAccessedAt.Store(now.UnixNano())
}

// LastAccessedAt reports when the session was last used.
func (s *Session) LastAccessedAt() time.Time {
	return time.Unix(0, s.lastAccessedAt.Load())
}

// Lock acquires the session for one state-changing operation.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// State derives the traversal state from the bound map and last room.
func (s *Session) State() State {
	switch {
	case s.graph == nil:
		return StateUninitialized
	case !s.hasLastRoom:
		return StateMapSelected
	default:
		return StateInRoom
	}
}

// Graph returns the bound map, or nil while uninitialized.
func (s *Session) Graph() *maze.RoomGraph {
	return s.graph
}

// MapName returns the bound map's catalog name, or "".
func (s *Session) MapName() string {
	if s.graph == nil {
		return ""
	}
	return s.graph.Name()
}

// Bind attaches a map to the session.
func (s *Session) Bind(graph *maze.RoomGraph) {
	s.graph = graph
	s.lastRoom = ""
	s.hasLastRoom = false
}

// LastRoom returns the id of the most recently entered room.
func (s *Session) LastRoom() (maze.RoomID, bool) {
	return s.lastRoom, s.hasLastRoom
}

// SetLastRoom records a validly entered room.
func (s *Session) SetLastRoom(id maze.RoomID) {
	s.lastRoom = id
	s.hasLastRoom = true
}

// Snapshot is a point-in-time copy of a session safe to hand to other layers.
type Snapshot struct {
	ID             string
	MapName        string
	State          State
	LastRoom       maze.RoomID
	HasLastRoom    bool
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Snapshot copies the session's state. It acquires the session lock itself.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:             s.ID,
		MapName:        s.MapName(),
		State:          s.State(),
		LastRoom:       s.lastRoom,
		HasLastRoom:    s.hasLastRoom,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt(),
	}
}
