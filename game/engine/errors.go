package engine

import (
	"errors"

	"github.com/JockeTS/mazerunner/game/maze"
)

// Kind classifies a traversal failure.
type Kind string

const (
	KindSessionNotFound      Kind = "session_not_found"
	KindSessionUninitialized Kind = "session_uninitialized"
	KindSessionAlreadyBound  Kind = "session_already_bound"
	KindMapCatalogEmpty      Kind = "map_catalog_empty"
	KindMapNotFound          Kind = "map_not_found"
	KindRoomNotFound         Kind = "room_not_found"
	KindDirectionNotAllowed  Kind = "direction_not_allowed"
	KindPathNotExist         Kind = "path_not_exist"
	KindInternal             Kind = "internal"
)

// Error is the engine's error type. Room is set for move failures and holds
// the room the player tried to leave.
type Error struct {
	Kind    Kind
	Message string
	Room    *maze.Room
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrSessionNotFound      = &Error{Kind: KindSessionNotFound, Message: "session not found"}
	ErrSessionUninitialized = &Error{Kind: KindSessionUninitialized, Message: "session has no map selected"}
	ErrSessionAlreadyBound  = &Error{Kind: KindSessionAlreadyBound, Message: "session already has a map"}
	ErrMapCatalogEmpty      = &Error{Kind: KindMapCatalogEmpty, Message: "no maps available"}
	ErrMapNotFound          = &Error{Kind: KindMapNotFound, Message: "map not found"}
	ErrRoomNotFound         = &Error{Kind: KindRoomNotFound, Message: "room not found"}
	ErrDirectionNotAllowed  = &Error{Kind: KindDirectionNotAllowed, Message: "direction not allowed"}
	ErrPathNotExist         = &Error{Kind: KindPathNotExist, Message: "path does not exist"}
)

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func roomError(kind Kind, message string, room maze.Room) *Error {
	return &Error{Kind: kind, Message: message, Room: &room}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
