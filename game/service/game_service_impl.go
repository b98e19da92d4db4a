package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JockeTS/mazerunner/game/engine"
	"github.com/JockeTS/mazerunner/game/maze"
)

var tracer = otel.Tracer("github.com/JockeTS/mazerunner/game/service")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	maps      MapCatalog
	engine    *engine.Engine
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewGameService creates a new game service instance. publisher may be nil.
func NewGameService(sessions SessionManager, maps MapCatalog, publisher EventPublisher, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions:  sessions,
		maps:      maps,
		engine:    engine.NewEngine(sessions, maps),
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// NewGame creates an unbound session
func (s *gameServiceImpl) NewGame(ctx context.Context) (info *NewGameInfo, err error) {
	_, span := tracer.Start(ctx, "GameService.NewGame")
	defer func() { endSpan(span, err) }()

	sess, err := s.sessions.Create()
	if err != nil {
		return nil, &engine.Error{Kind: engine.KindInternal, Message: "failed to create game", Cause: err}
	}

	span.SetAttributes(attribute.String("game.id", sess.ID))
	s.logger.Info("Created new game", zap.String("gameid", sess.ID))

	return &NewGameInfo{Text: NewGameText, GameID: sess.ID}, nil
}

// GetGame describes one session
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID string) (info *GameInfo, err error) {
	_, span := startGameSpan(ctx, "GameService.GetGame", gameID)
	defer func() { endSpan(span, err) }()

	sess, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, &engine.Error{
			Kind:    engine.KindSessionNotFound,
			Message: fmt.Sprintf("session %s not found", gameID),
			Cause:   err,
		}
	}

	return newGameInfo(sess.Snapshot()), nil
}

// ListGames returns all live sessions, oldest first
func (s *gameServiceImpl) ListGames(ctx context.Context) (games []*GameInfo, err error) {
	_, span := tracer.Start(ctx, "GameService.ListGames")
	defer func() { endSpan(span, err) }()

	sessions := s.sessions.List()
	games = make([]*GameInfo, 0, len(sessions))
	for _, sess := range sessions {
		games = append(games, newGameInfo(sess.Snapshot()))
	}

	slices.SortFunc(games, func(a, b *GameInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.GameID, b.GameID)
	})

	span.SetAttributes(attribute.Int("game.count", len(games)))
	return games, nil
}

// EndGame removes a session; its id stops resolving immediately
func (s *gameServiceImpl) EndGame(ctx context.Context, gameID string) (msg *Message, err error) {
	_, span := startGameSpan(ctx, "GameService.EndGame", gameID)
	defer func() { endSpan(span, err) }()

	if err := s.sessions.Delete(gameID); err != nil {
		return nil, &engine.Error{
			Kind:    engine.KindSessionNotFound,
			Message: fmt.Sprintf("session %s not found", gameID),
			Cause:   err,
		}
	}

	s.logger.Info("Ended game", zap.String("gameid", gameID))
	return &Message{Text: GameEndedText}, nil
}

// ListMaps returns the catalog's map names
func (s *gameServiceImpl) ListMaps(ctx context.Context) (names []string, err error) {
	_, span := tracer.Start(ctx, "GameService.ListMaps")
	defer func() { endSpan(span, err) }()

	names, err = s.maps.List()
	if err != nil {
		return nil, &engine.Error{Kind: engine.KindInternal, Message: "failed to list maps", Cause: err}
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// SelectMap binds a map to a session
func (s *gameServiceImpl) SelectMap(ctx context.Context, gameID, mapName string) (msg *Message, err error) {
	_, span := startGameSpan(ctx, "GameService.SelectMap", gameID)
	span.SetAttributes(attribute.String("map.name", mapName))
	defer func() { endSpan(span, err) }()

	if err := s.engine.SelectMap(gameID, mapName); err != nil {
		return nil, err
	}

	s.logger.Debug("Map selected",
		zap.String("gameid", gameID),
		zap.String("map", maze.NormalizeName(mapName)))
	s.publish(GameEvent{
		Type:   EventMapSelected,
		GameID: gameID,
		Map:    maze.NormalizeName(mapName),
	})

	return &Message{Text: MapSelectedText}, nil
}

// EnterMaze places the player in the entry room
func (s *gameServiceImpl) EnterMaze(ctx context.Context, gameID string) (view *RoomView, err error) {
	_, span := startGameSpan(ctx, "GameService.EnterMaze", gameID)
	defer func() { endSpan(span, err) }()

	room, err := s.engine.EnterStart(gameID)
	if err != nil {
		return nil, err
	}

	view = NewRoomView(room)
	s.publish(GameEvent{Type: EventRoomEntered, GameID: gameID, Room: view})
	return view, nil
}

// LookRoom shows a room without moving the player
func (s *gameServiceImpl) LookRoom(ctx context.Context, gameID, roomID string) (view *RoomView, err error) {
	_, span := startGameSpan(ctx, "GameService.LookRoom", gameID)
	span.SetAttributes(attribute.String("room.id", roomID))
	defer func() { endSpan(span, err) }()

	room, err := s.engine.EnterRoom(gameID, maze.RoomID(roomID))
	if err != nil {
		return nil, err
	}
	return NewRoomView(room), nil
}

// Move leaves roomID through direction
func (s *gameServiceImpl) Move(ctx context.Context, gameID, roomID, direction string) (view *RoomView, err error) {
	_, span := startGameSpan(ctx, "GameService.Move", gameID)
	span.SetAttributes(
		attribute.String("room.id", roomID),
		attribute.String("move.direction", direction),
	)
	defer func() { endSpan(span, err) }()

	room, err := s.engine.Move(gameID, maze.RoomID(roomID), direction)
	if err != nil {
		return nil, err
	}

	view = NewRoomView(room)
	s.publish(GameEvent{Type: EventRoomEntered, GameID: gameID, Room: view})
	return view, nil
}

func (s *gameServiceImpl) publish(event GameEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = s.now()
	s.publisher.Publish(event)
}

func startGameSpan(ctx context.Context, name, gameID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("game.id", gameID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(engine.KindOf(err)))
	}
	span.End()
}
