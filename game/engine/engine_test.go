package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/JockeTS/mazerunner/game/catalog"
	"github.com/JockeTS/mazerunner/game/maze"
	"github.com/JockeTS/mazerunner/game/session"
)

// memoryCatalog serves graphs built in the test.
type memoryCatalog struct {
	names  []string
	graphs map[string]*maze.RoomGraph
	err    error
}

func (c *memoryCatalog) List() ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.names, nil
}

func (c *memoryCatalog) Load(name string) (*maze.RoomGraph, error) {
	if c.err != nil {
		return nil, c.err
	}
	g, ok := c.graphs[maze.NormalizeName(name)]
	if !ok {
		return nil, catalog.ErrMapNotFound
	}
	return g, nil
}

// fixtureT is satisfied by *testing.T and *rapid.T.
type fixtureT interface {
	require.TestingT
	Helper()
}

// expiredStore models a session removed by an expiry sweep after the caller
// obtained its pointer.
type expiredStore struct {
	sess *session.Session
}

func (s expiredStore) Get(id string) (*session.Session, error) {
	return s.sess, nil
}

func (s expiredStore) UpdateLastAccessed(id string) error {
	return session.ErrSessionNotFound
}

func testGraph(t fixtureT) *maze.RoomGraph {
	t.Helper()
	g, err := maze.NewRoomGraph("sample.json", []maze.Room{
		{ID: "0", Text: "Entrance hall.", Directions: map[string]maze.RoomID{"north": "1", "east": "9"}},
		{ID: "1", Text: "Corridor.", Directions: map[string]maze.RoomID{"south": "0", "west": "2"}},
		{ID: "2", Text: "Dead end.", Directions: map[string]maze.RoomID{"east": "1"}},
	})
	require.NoError(t, err)
	return g
}

func newTestEngine(t fixtureT) (*Engine, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(zap.NewNop())
	maps := &memoryCatalog{
		names:  []string{"sample.json"},
		graphs: map[string]*maze.RoomGraph{"sample.json": testGraph(t)},
	}
	return NewEngine(sessions, maps), sessions
}

func newBoundSession(t fixtureT, e *Engine, sessions *session.Manager) string {
	t.Helper()
	sess, err := sessions.Create()
	require.NoError(t, err)
	require.NoError(t, e.SelectMap(sess.ID, "sample"))
	return sess.ID
}

func TestEngine_SelectMap(t *testing.T) {
	e, sessions := newTestEngine(t)

	t.Run("unknown session", func(t *testing.T) {
		err := e.SelectMap("missing", "sample")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.Equal(t, KindSessionNotFound, KindOf(err))
	})

	t.Run("select once then already bound", func(t *testing.T) {
		sess, err := sessions.Create()
		require.NoError(t, err)

		require.NoError(t, e.SelectMap(sess.ID, "sample"))
		assert.Equal(t, session.StateMapSelected, sess.Snapshot().State)
		assert.Equal(t, "sample.json", sess.Snapshot().MapName)

		err = e.SelectMap(sess.ID, "sample.json")
		assert.ErrorIs(t, err, ErrSessionAlreadyBound)
		assert.Equal(t, "sample.json", sess.Snapshot().MapName)
	})

	t.Run("unknown map", func(t *testing.T) {
		sess, err := sessions.Create()
		require.NoError(t, err)

		err = e.SelectMap(sess.ID, "nowhere")
		assert.ErrorIs(t, err, ErrMapNotFound)
		assert.ErrorIs(t, err, catalog.ErrMapNotFound)
		assert.Equal(t, session.StateUninitialized, sess.Snapshot().State)
	})

	t.Run("empty catalog", func(t *testing.T) {
		empty := NewEngine(sessions, &memoryCatalog{})
		sess, err := sessions.Create()
		require.NoError(t, err)

		err = empty.SelectMap(sess.ID, "sample")
		assert.ErrorIs(t, err, ErrMapCatalogEmpty)
	})

	t.Run("catalog failure is internal", func(t *testing.T) {
		broken := NewEngine(sessions, &memoryCatalog{err: errors.New("disk gone")})
		sess, err := sessions.Create()
		require.NoError(t, err)

		err = broken.SelectMap(sess.ID, "sample")
		require.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Contains(t, err.Error(), "disk gone")
	})
}

func TestEngine_EnterStart(t *testing.T) {
	e, sessions := newTestEngine(t)

	t.Run("uninitialized session", func(t *testing.T) {
		sess, err := sessions.Create()
		require.NoError(t, err)

		_, err = e.EnterStart(sess.ID)
		assert.ErrorIs(t, err, ErrSessionUninitialized)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := e.EnterStart("missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("returns entry room and is idempotent", func(t *testing.T) {
		id := newBoundSession(t, e, sessions)

		first, err := e.EnterStart(id)
		require.NoError(t, err)
		assert.Equal(t, maze.RoomID("0"), first.ID)

		second, err := e.EnterStart(id)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		sess, err := sessions.Get(id)
		require.NoError(t, err)
		snap := sess.Snapshot()
		assert.Equal(t, session.StateInRoom, snap.State)
		assert.Equal(t, maze.RoomID("0"), snap.LastRoom)
	})
}

func TestEngine_EnterRoom(t *testing.T) {
	e, sessions := newTestEngine(t)
	id := newBoundSession(t, e, sessions)

	t.Run("any room without adjacency", func(t *testing.T) {
		room, err := e.EnterRoom(id, "2")
		require.NoError(t, err)
		assert.Equal(t, "Dead end.", room.Text)

		sess, err := sessions.Get(id)
		require.NoError(t, err)
		assert.False(t, sess.Snapshot().HasLastRoom)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, err := e.EnterRoom(id, "42")
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})
}

func TestEngine_Move(t *testing.T) {
	e, sessions := newTestEngine(t)
	id := newBoundSession(t, e, sessions)
	_, err := e.EnterStart(id)
	require.NoError(t, err)

	lastRoom := func() maze.RoomID {
		sess, err := sessions.Get(id)
		require.NoError(t, err)
		return sess.Snapshot().LastRoom
	}

	t.Run("valid move", func(t *testing.T) {
		room, err := e.Move(id, "0", "north")
		require.NoError(t, err)
		assert.Equal(t, maze.RoomID("1"), room.ID)
		assert.Equal(t, maze.RoomID("1"), lastRoom())
	})

	t.Run("direction not allowed carries current room", func(t *testing.T) {
		_, err := e.Move(id, "1", "up")
		require.ErrorIs(t, err, ErrDirectionNotAllowed)

		var engErr *Error
		require.True(t, errors.As(err, &engErr))
		require.NotNil(t, engErr.Room)
		assert.Equal(t, maze.RoomID("1"), engErr.Room.ID)
		assert.Equal(t, "Corridor.", engErr.Room.Text)
		assert.Equal(t, maze.RoomID("1"), lastRoom())
	})

	t.Run("dangling edge is path not exist", func(t *testing.T) {
		_, err := e.Move(id, "0", "east")
		require.ErrorIs(t, err, ErrPathNotExist)

		var engErr *Error
		require.True(t, errors.As(err, &engErr))
		require.NotNil(t, engErr.Room)
		assert.Equal(t, maze.RoomID("0"), engErr.Room.ID)
		assert.Equal(t, maze.RoomID("1"), lastRoom())
	})

	t.Run("unknown room id", func(t *testing.T) {
		_, err := e.Move(id, "42", "north")
		assert.ErrorIs(t, err, ErrRoomNotFound)
		assert.Equal(t, maze.RoomID("1"), lastRoom())
	})

	t.Run("direction labels are case sensitive", func(t *testing.T) {
		_, err := e.Move(id, "1", "West")
		assert.ErrorIs(t, err, ErrDirectionNotAllowed)
	})

	t.Run("move does not require being in the room", func(t *testing.T) {
		room, err := e.Move(id, "2", "east")
		require.NoError(t, err)
		assert.Equal(t, maze.RoomID("1"), room.ID)
	})

	t.Run("uninitialized session", func(t *testing.T) {
		sess, err := sessions.Create()
		require.NoError(t, err)
		_, err = e.Move(sess.ID, "0", "north")
		assert.ErrorIs(t, err, ErrSessionUninitialized)
	})
}

func TestEngine_ExpiredSessionIsNotFound(t *testing.T) {
	sessions := session.NewManager(zap.NewNop())
	sess, err := sessions.Create()
	require.NoError(t, err)

	maps := &memoryCatalog{
		names:  []string{"sample.json"},
		graphs: map[string]*maze.RoomGraph{"sample.json": testGraph(t)},
	}
	e := NewEngine(expiredStore{sess: sess}, maps)

	err = e.SelectMap(sess.ID, "sample")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, session.StateUninitialized, sess.Snapshot().State, "an expired session must not be bound")

	_, err = e.EnterStart(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = e.Move(sess.ID, "0", "north")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEngine_FailedMoveKeepsLastRoom(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e, sessions := newTestEngine(rt)
		id := newBoundSession(rt, e, sessions)
		_, err := e.EnterStart(id)
		require.NoError(rt, err)

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			sess, err := sessions.Get(id)
			require.NoError(rt, err)
			before := sess.Snapshot().LastRoom

			room := rapid.SampledFrom([]maze.RoomID{"0", "1", "2", "3"}).Draw(rt, "room")
			direction := rapid.SampledFrom([]string{"north", "south", "east", "west", "up"}).Draw(rt, "direction")

			got, err := e.Move(id, room, direction)
			after := sess.Snapshot().LastRoom
			if err != nil {
				if after != before {
					rt.Fatalf("failed move %s/%s changed last room %s -> %s", room, direction, before, after)
				}
				continue
			}
			if after != got.ID {
				rt.Fatalf("successful move to %s recorded last room %s", got.ID, after)
			}
		}
	})
}

func TestEngine_ConcurrentMoves(t *testing.T) {
	e, sessions := newTestEngine(t)
	id := newBoundSession(t, e, sessions)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = e.Move(id, "0", "north")
			} else {
				_, _ = e.Move(id, "1", "south")
			}
		}(i)
	}
	wg.Wait()

	sess, err := sessions.Get(id)
	require.NoError(t, err)
	last := sess.Snapshot().LastRoom
	assert.Contains(t, []maze.RoomID{"0", "1"}, last)
}

func TestEngine_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	sample := `[
  {"id": 0, "text": "You are in the entrance.", "directions": {"north": 1}},
  {"id": 1, "text": "You are in a narrow corridor.", "directions": {"south": 0}}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.json"), []byte(sample), 0644))

	maps, err := catalog.NewManager(dir, zap.NewNop())
	require.NoError(t, err)
	sessions := session.NewManager(zap.NewNop())
	e := NewEngine(sessions, maps)

	sess, err := sessions.Create()
	require.NoError(t, err)

	names, err := maps.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"sample.json"}, names)

	require.NoError(t, e.SelectMap(sess.ID, "sample"))

	start, err := e.EnterStart(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, maze.RoomID("0"), start.ID)

	next, err := e.Move(sess.ID, start.ID, "north")
	require.NoError(t, err)
	assert.Equal(t, maze.RoomID("1"), next.ID)

	_, err = e.Move(sess.ID, next.ID, "west")
	assert.ErrorIs(t, err, ErrDirectionNotAllowed)
	assert.Equal(t, maze.RoomID("1"), sess.Snapshot().LastRoom)
}
