package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/JockeTS/mazerunner/game/engine"
	"github.com/JockeTS/mazerunner/game/service"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Text string `json:"text"`
	Hint string `json:"hint"`
	Code string `json:"code"`
}

// roomErrorResponse is a failed move: the room the player tried to leave,
// with its text replaced by the failure marker.
type roomErrorResponse struct {
	service.RoomView
	Hint string `json:"hint"`
	Code string `json:"code"`
}

type errorEntry struct {
	status int
	text   string
	hint   string
}

// errorTable maps each failure kind to its response. Several kinds share an
// HTTP status (404 covers unknown games, maps, rooms and paths); the code
// field is the value that tells every kind apart.
var errorTable = map[engine.Kind]errorEntry{
	engine.KindSessionNotFound: {
		status: http.StatusNotFound,
		text:   "Gameid not found.",
		hint:   "Start a new game at /.",
	},
	engine.KindSessionUninitialized: {
		status: http.StatusPreconditionFailed,
		text:   "Gameid not initialized correctly.",
		hint:   "Select a map first with /{gameid}/map/{map}.",
	},
	engine.KindSessionAlreadyBound: {
		status: http.StatusConflict,
		text:   "Gameid already has a map.",
		hint:   "Start a new game at / to play another map.",
	},
	engine.KindMapCatalogEmpty: {
		status: http.StatusServiceUnavailable,
		text:   "Maps are not initialized.",
		hint:   "Add map files to the server's maps directory.",
	},
	engine.KindMapNotFound: {
		status: http.StatusNotFound,
		text:   "Map not found.",
		hint:   "List the available maps at /map.",
	},
	engine.KindRoomNotFound: {
		status: http.StatusNotFound,
		text:   "Room not found.",
		hint:   "Enter the maze at /{gameid}/maze.",
	},
	engine.KindDirectionNotAllowed: {
		status: http.StatusBadRequest,
		text:   "Direction not allowed",
		hint:   "Use one of the directions listed for this room.",
	},
	engine.KindPathNotExist: {
		status: http.StatusNotFound,
		text:   "Path dont exist",
		hint:   "This exit leads nowhere, try another direction.",
	},
	engine.KindInternal: {
		status: http.StatusInternalServerError,
		text:   "Internal error.",
		hint:   "Try again later.",
	},
}

// respondError translates a service error into its status and body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := engine.KindOf(err)
	entry, ok := errorTable[kind]
	if !ok {
		kind = engine.KindInternal
		entry = errorTable[engine.KindInternal]
	}

	if kind == engine.KindInternal {
		s.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}

	var engErr *engine.Error
	if errors.As(err, &engErr) && engErr.Room != nil {
		view := service.NewRoomView(*engErr.Room)
		view.Text = entry.text
		respond(w, r, entry.status, roomErrorResponse{
			RoomView: *view,
			Hint:     entry.hint,
			Code:     string(kind),
		})
		return
	}

	respond(w, r, entry.status, errorResponse{
		Text: entry.text,
		Hint: entry.hint,
		Code: string(kind),
	})
}
