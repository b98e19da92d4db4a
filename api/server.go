package api

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/JockeTS/mazerunner/game/service"
	"github.com/JockeTS/mazerunner/transport/websocket"
)

// Server represents the maze HTTP API
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server. hub may be nil, which disables /ws.
func NewServer(gameService service.GameService, hub *websocket.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter().UseEncodedPath(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// pathVars returns the route variables with percent-escapes decoded. Routes
// match the escaped path, so an encoded "/" stays inside one variable and
// room ids or direction labels may contain it.
func pathVars(r *http.Request) map[string]string {
	raw := mux.Vars(r)
	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		if decoded, err := url.PathUnescape(v); err == nil {
			v = decoded
		}
		vars[k] = v
	}
	return vars
}

// setupRoutes configures all routes. Fixed paths are registered before the
// {gameid} patterns.
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/", s.handleNewGame).Methods(http.MethodGet)
	s.router.HandleFunc("/map", s.handleListMaps).Methods(http.MethodGet)

	// Session inspection
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/games", s.handleListGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{gameid}", s.handleGetGame).Methods(http.MethodGet)
	api.HandleFunc("/games/{gameid}", s.handleEndGame).Methods(http.MethodDelete)

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	// Game play
	s.router.HandleFunc("/{gameid}/map/{map}", s.handleSelectMap).Methods(http.MethodGet)
	s.router.HandleFunc("/{gameid}/maze", s.handleEnterMaze).Methods(http.MethodGet)
	s.router.HandleFunc("/{gameid}/maze/{roomId}", s.handleLookRoom).Methods(http.MethodGet)
	s.router.HandleFunc("/{gameid}/maze/{roomId}/{direction}", s.handleMove).Methods(http.MethodGet)

	s.router.NotFoundHandler = s.logRequests(http.HandlerFunc(s.handleNotFound))
	s.router.MethodNotAllowedHandler = s.logRequests(http.HandlerFunc(s.handleMethodNotAllowed))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Session handlers

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.NewGame(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, info)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, gameList{Count: len(games), Games: games})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.service.GetGame(r.Context(), pathVars(r)["gameid"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, game)
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	msg, err := s.service.EndGame(r.Context(), pathVars(r)["gameid"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, msg)
}

// Map handlers

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.service.ListMaps(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, maps)
}

func (s *Server) handleSelectMap(w http.ResponseWriter, r *http.Request) {
	vars := pathVars(r)

	msg, err := s.service.SelectMap(r.Context(), vars["gameid"], vars["map"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, msg)
}

// Traversal handlers

func (s *Server) handleEnterMaze(w http.ResponseWriter, r *http.Request) {
	room, err := s.service.EnterMaze(r.Context(), pathVars(r)["gameid"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, room)
}

func (s *Server) handleLookRoom(w http.ResponseWriter, r *http.Request) {
	vars := pathVars(r)

	room, err := s.service.LookRoom(r.Context(), vars["gameid"], vars["roomId"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, room)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	vars := pathVars(r)

	room, err := s.service.Move(r.Context(), vars["gameid"], vars["roomId"], vars["direction"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, room)
}

// WebSocket handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameid")
	if gameID == "" {
		respond(w, r, http.StatusBadRequest, errorResponse{
			Text: "Missing gameid.",
			Hint: "Connect to /ws?gameid=<gameid>.",
			Code: "missing_gameid",
		})
		return
	}

	if s.hub == nil {
		respond(w, r, http.StatusServiceUnavailable, errorResponse{
			Text: "Event stream disabled.",
			Hint: "Poll the maze routes instead.",
			Code: "websocket_disabled",
		})
		return
	}

	if _, err := s.service.GetGame(r.Context(), gameID); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.hub.ServeWS(w, r, gameID)
}

// Fallbacks

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusNotFound, errorResponse{
		Text: "Route not found.",
		Hint: "Start a new game at /.",
		Code: "route_not_found",
	})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusMethodNotAllowed, errorResponse{
		Text: "Method not allowed.",
		Hint: "Game routes use GET; ending a game uses DELETE on /api/games/{gameid}.",
		Code: "method_not_allowed",
	})
}
