package service

import (
	"time"

	"github.com/JockeTS/mazerunner/game/maze"
	"github.com/JockeTS/mazerunner/game/session"
)

// NewGameInfo is returned when a game is created
type NewGameInfo struct {
	Text   string `json:"text"`
	GameID string `json:"gameid"`
}

// Message is a plain acknowledgement
type Message struct {
	Text string `json:"text"`
}

// RoomView is a room as shown to the player
type RoomView struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Directions map[string]string `json:"directions"`
}

// GameInfo describes a live game session
type GameInfo struct {
	GameID         string        `json:"gameid"`
	Map            string        `json:"map,omitempty"`
	State          session.State `json:"state"`
	LastRoom       string        `json:"last_room,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
}

// Event types pushed to game subscribers
const (
	EventMapSelected = "map_selected"
	EventRoomEntered = "room_entered"
)

// GameEvent is a state change pushed to subscribers of one game
type GameEvent struct {
	Type      string    `json:"type"`
	GameID    string    `json:"gameid"`
	Map       string    `json:"map,omitempty"`
	Room      *RoomView `json:"room,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRoomView converts a maze room for display
func NewRoomView(room maze.Room) *RoomView {
	directions := make(map[string]string, len(room.Directions))
	for label, target := range room.Directions {
		directions[label] = string(target)
	}
	return &RoomView{
		ID:         string(room.ID),
		Text:       room.Text,
		Directions: directions,
	}
}

func newGameInfo(snap session.Snapshot) *GameInfo {
	info := &GameInfo{
		GameID:         snap.ID,
		Map:            snap.MapName,
		State:          snap.State,
		CreatedAt:      snap.CreatedAt,
		LastAccessedAt: snap.LastAccessedAt,
	}
	if snap.HasLastRoom {
		info.LastRoom = string(snap.LastRoom)
	}
	return info
}
