// Package engine implements the maze traversal state machine.
//
// A session moves through three states:
//
//	Uninitialized --SelectMap--> MapSelected --EnterStart/Move--> InRoom
//
// There is no terminal state. A session stays traversable until it expires,
// and its map can only be chosen once.
//
// Operations:
//   - SelectMap binds a catalog map to an unbound session
//   - EnterStart places the player in the map's entry room (idempotent)
//   - EnterRoom inspects any room by id without moving the player
//   - Move leaves a room through a named direction
//
// Move is the only operation that advances the player's last room, and it does
// so all-or-nothing: a failed move leaves the session exactly as it was.
//
// Errors:
//
// Every failure is an *Error carrying a Kind. Callers branch with errors.Is
// against the exported sentinels:
//
//	room, err := eng.Move(id, "0", "north")
//	if errors.Is(err, engine.ErrDirectionNotAllowed) {
//		var e *engine.Error
//		errors.As(err, &e) // e.Room is the room the player tried to leave
//	}
//
// Concurrency:
//
// The engine holds the session's own lock for the whole of each operation, so
// concurrent requests for one game are serialized while different games proceed
// independently.
package engine
