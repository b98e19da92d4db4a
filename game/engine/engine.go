package engine

import (
	"errors"
	"fmt"

	"github.com/JockeTS/mazerunner/game/catalog"
	"github.com/JockeTS/mazerunner/game/maze"
	"github.com/JockeTS/mazerunner/game/session"
)

// SessionStore is the session lookup the engine needs
type SessionStore interface {
	Get(id string) (*session.Session, error)
	UpdateLastAccessed(id string) error
}

// MapCatalog is the map source the engine needs
type MapCatalog interface {
	List() ([]string, error)
	Load(name string) (*maze.RoomGraph, error)
}

// Engine advances sessions through their bound maps
type Engine struct {
	sessions SessionStore
	maps     MapCatalog
}

// NewEngine creates an engine over a session store and a map catalog
func NewEngine(sessions SessionStore, maps MapCatalog) *Engine {
	return &Engine{
		sessions: sessions,
		maps:     maps,
	}
}

// SelectMap binds mapName to an unbound session
func (e *Engine) SelectMap(sessionID, mapName string) error {
	sess, err := e.acquire(sessionID)
	if err != nil {
		return err
	}
	defer sess.Unlock()

	if sess.Graph() != nil {
		return newError(KindSessionAlreadyBound,
			fmt.Sprintf("session %s already plays map %s", sessionID, sess.MapName()))
	}

	names, err := e.maps.List()
	if err != nil {
		return wrapError(KindInternal, "failed to list maps", err)
	}
	if len(names) == 0 {
		return newError(KindMapCatalogEmpty, "no maps available")
	}

	graph, err := e.maps.Load(mapName)
	if err != nil {
		if errors.Is(err, catalog.ErrMapNotFound) {
			return wrapError(KindMapNotFound, fmt.Sprintf("map %s not found", mapName), err)
		}
		return wrapError(KindInternal, fmt.Sprintf("failed to load map %s", mapName), err)
	}

	sess.Bind(graph)
	return nil
}

// EnterStart places the player in the entry room. Repeated calls return the
// same room.
func (e *Engine) EnterStart(sessionID string) (maze.Room, error) {
	sess, graph, err := e.acquireBound(sessionID)
	if err != nil {
		return maze.Room{}, err
	}
	defer sess.Unlock()

	entry := graph.Entry()
	sess.SetLastRoom(entry.ID)
	return entry, nil
}

// EnterRoom returns any room of the bound map by id. It does not check
// adjacency and does not change the player's last room.
func (e *Engine) EnterRoom(sessionID string, roomID maze.RoomID) (maze.Room, error) {
	sess, graph, err := e.acquireBound(sessionID)
	if err != nil {
		return maze.Room{}, err
	}
	defer sess.Unlock()

	room, ok := graph.Room(roomID)
	if !ok {
		return maze.Room{}, newError(KindRoomNotFound, fmt.Sprintf("room %s not found", roomID))
	}
	return room, nil
}

// Move leaves roomID through direction and returns the room reached. On any
// failure the session's last room is left untouched.
func (e *Engine) Move(sessionID string, roomID maze.RoomID, direction string) (maze.Room, error) {
	sess, graph, err := e.acquireBound(sessionID)
	if err != nil {
		return maze.Room{}, err
	}
	defer sess.Unlock()

	current, ok := graph.Room(roomID)
	if !ok {
		return maze.Room{}, newError(KindRoomNotFound, fmt.Sprintf("room %s not found", roomID))
	}

	targetID, ok := current.Target(direction)
	if !ok {
		return maze.Room{}, roomError(KindDirectionNotAllowed,
			fmt.Sprintf("direction %q not allowed from room %s", direction, roomID), current)
	}

	target, ok := graph.Room(targetID)
	if !ok {
		return maze.Room{}, roomError(KindPathNotExist,
			fmt.Sprintf("direction %q from room %s leads to unknown room %q", direction, roomID, targetID), current)
	}

	sess.SetLastRoom(target.ID)
	return target, nil
}

// acquire marks a session accessed, looks it up and locks it. The caller must
// Unlock. Touching first keeps an expiry sweep from removing the session
// between the lookup and the operation.
func (e *Engine) acquire(sessionID string) (*session.Session, error) {
	if err := e.sessions.UpdateLastAccessed(sessionID); err != nil {
		return nil, lookupError(sessionID, err)
	}

	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, lookupError(sessionID, err)
	}

	sess.Lock()
	return sess, nil
}

func lookupError(sessionID string, err error) *Error {
	if errors.Is(err, session.ErrSessionNotFound) {
		return wrapError(KindSessionNotFound, fmt.Sprintf("session %s not found", sessionID), err)
	}
	return wrapError(KindInternal, "failed to look up session", err)
}

// acquireBound is acquire plus the bound-map precondition.
func (e *Engine) acquireBound(sessionID string) (*session.Session, *maze.RoomGraph, error) {
	sess, err := e.acquire(sessionID)
	if err != nil {
		return nil, nil, err
	}

	graph := sess.Graph()
	if graph == nil {
		sess.Unlock()
		return nil, nil, newError(KindSessionUninitialized,
			fmt.Sprintf("session %s has no map selected", sessionID))
	}
	return sess, graph, nil
}
