package service

import (
	"context"

	"github.com/JockeTS/mazerunner/game/maze"
	"github.com/JockeTS/mazerunner/game/session"
)

// Reply texts shown to players
const (
	NewGameText     = "New game initialized."
	MapSelectedText = "New map selected."
	GameEndedText   = "Game ended."
)

// GameService defines all maze game operations
type GameService interface {
	// Session lifecycle
	NewGame(ctx context.Context) (*NewGameInfo, error)
	GetGame(ctx context.Context, gameID string) (*GameInfo, error)
	ListGames(ctx context.Context) ([]*GameInfo, error)
	EndGame(ctx context.Context, gameID string) (*Message, error)

	// Maps
	ListMaps(ctx context.Context) ([]string, error)
	SelectMap(ctx context.Context, gameID, mapName string) (*Message, error)

	// Traversal
	EnterMaze(ctx context.Context, gameID string) (*RoomView, error)
	LookRoom(ctx context.Context, gameID, roomID string) (*RoomView, error)
	Move(ctx context.Context, gameID, roomID, direction string) (*RoomView, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create() (*session.Session, error)
	Get(id string) (*session.Session, error)
	List() []*session.Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// MapCatalog defines map lookup operations
type MapCatalog interface {
	List() ([]string, error)
	Load(name string) (*maze.RoomGraph, error)
}

// EventPublisher receives game events for push delivery
type EventPublisher interface {
	Publish(event GameEvent)
}
