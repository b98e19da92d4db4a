// Package websocket pushes maze game events to subscribed clients.
//
// Clients connect to /ws?gameid=<id> and receive one JSON text frame per
// service.GameEvent published for that game: "map_selected" after a map is
// bound and "room_entered" after the player enters the maze or moves. The
// connection is receive-only; anything the client sends is discarded.
//
// A single Hub goroutine owns registration and fan-out. Publish never
// blocks the caller, and a client whose buffer is full is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	svc := service.NewGameService(sessions, maps, hub, logger)
package websocket
