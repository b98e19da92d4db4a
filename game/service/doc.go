// Package service provides the business logic layer of the maze game.
//
// GameService sits between the transports (HTTP, WebSocket, MCP) and the
// traversal engine. It creates sessions, lists and binds maps, and drives the
// engine, converting rooms into RoomView values for the transports.
//
// Every operation opens an OpenTelemetry span named "GameService.<Op>" and
// records the engine error kind on failure. Successful map selections and
// room entries are published as GameEvent values to an optional
// EventPublisher, which the WebSocket hub implements.
//
// Usage:
//
//	sessions := session.NewManager(logger)
//	maps, err := catalog.NewManager("maps", logger)
//	if err != nil {
//		return err
//	}
//	svc := service.NewGameService(sessions, maps, hub, logger)
//
//	game, err := svc.NewGame(ctx)
//	_, err = svc.SelectMap(ctx, game.GameID, "sample")
//	room, err := svc.EnterMaze(ctx, game.GameID)
//	room, err = svc.Move(ctx, game.GameID, room.ID, "north")
//
// Errors are *engine.Error values; use errors.Is against the engine sentinels
// or engine.KindOf to classify them.
package service
