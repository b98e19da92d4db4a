package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/JockeTS/mazerunner/game/maze"
)

func testGraph(t *testing.T) *maze.RoomGraph {
	t.Helper()
	g, err := maze.NewRoomGraph("sample.json", []maze.Room{
		{ID: "0", Text: "Hall", Directions: map[string]maze.RoomID{"north": "1"}},
		{ID: "1", Text: "Corridor"},
	})
	require.NoError(t, err)
	return g
}

func TestManager_Create(t *testing.T) {
	manager := NewManager(nil)

	t.Run("new session is uninitialized", func(t *testing.T) {
		sess, err := manager.Create()
		require.NoError(t, err)
		assert.NotEmpty(t, sess.ID)

		snap := sess.Snapshot()
		assert.Equal(t, StateUninitialized, snap.State)
		assert.Empty(t, snap.MapName)
		assert.False(t, snap.HasLastRoom)
	})

	t.Run("ID is a 36-character UUID", func(t *testing.T) {
		sess, err := manager.Create()
		require.NoError(t, err)
		assert.Len(t, sess.ID, 36)
	})
}

func TestManager_CreateUniqueIDs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		manager := NewManager(nil)
		n := rapid.IntRange(1, 200).Draw(t, "n")

		seen := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			sess, err := manager.Create()
			if err != nil {
				t.Fatalf("create %d: %v", i, err)
			}
			if seen[sess.ID] {
				t.Fatalf("duplicate session ID %q after %d creations", sess.ID, i)
			}
			seen[sess.ID] = true
		}
		if manager.Count() != n {
			t.Fatalf("expected %d sessions, got %d", n, manager.Count())
		}
	})
}

func TestManager_CreateRerollsCollisions(t *testing.T) {
	manager := NewManager(nil)
	ids := []string{"same", "same", "same", "other"}
	manager.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	first, err := manager.Create()
	require.NoError(t, err)
	assert.Equal(t, "same", first.ID)

	second, err := manager.Create()
	require.NoError(t, err)
	assert.Equal(t, "other", second.ID)
}

func TestManager_CreateGivesUp(t *testing.T) {
	manager := NewManager(nil)
	manager.newID = func() (string, error) { return "stuck", nil }

	_, err := manager.Create()
	require.NoError(t, err)

	_, err = manager.Create()
	assert.Error(t, err)
	assert.Equal(t, 1, manager.Count())
}

func TestManager_CreateEntropyFailure(t *testing.T) {
	manager := NewManager(nil)
	manager.newID = func() (string, error) { return "", errors.New("no entropy") }

	_, err := manager.Create()
	assert.Error(t, err)
	assert.Zero(t, manager.Count())
}

func TestManager_Get(t *testing.T) {
	manager := NewManager(nil)
	created, err := manager.Create()
	require.NoError(t, err)

	t.Run("existing session", func(t *testing.T) {
		sess, err := manager.Get(created.ID)
		require.NoError(t, err)
		assert.Same(t, created, sess)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := manager.Get("missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("get does not create", func(t *testing.T) {
		_, _ = manager.Get("ghost")
		assert.Equal(t, 1, manager.Count())
	})
}

func TestManager_MutationsVisibleThroughGet(t *testing.T) {
	manager := NewManager(nil)
	created, err := manager.Create()
	require.NoError(t, err)

	created.Lock()
	created.Bind(testGraph(t))
	created.SetLastRoom("1")
	created.Unlock()

	fetched, err := manager.Get(created.ID)
	require.NoError(t, err)
	snap := fetched.Snapshot()
	assert.Equal(t, StateInRoom, snap.State)
	assert.Equal(t, "sample.json", snap.MapName)
	assert.Equal(t, maze.RoomID("1"), snap.LastRoom)
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager(nil)
	sess, err := manager.Create()
	require.NoError(t, err)

	require.NoError(t, manager.Delete(sess.ID))
	assert.ErrorIs(t, manager.Delete(sess.ID), ErrSessionNotFound)
	assert.Zero(t, manager.Count())
}

func TestManager_List(t *testing.T) {
	manager := NewManager(nil)
	for i := 0; i < 3; i++ {
		_, err := manager.Create()
		require.NoError(t, err)
	}
	assert.Len(t, manager.List(), 3)
}

func TestManager_CleanupExpiredSessions(t *testing.T) {
	manager := NewManager(nil)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return clock }

	stale, err := manager.Create()
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	fresh, err := manager.Create()
	require.NoError(t, err)

	t.Run("removes only idle sessions", func(t *testing.T) {
		removed := manager.CleanupExpiredSessions(time.Hour)
		assert.Equal(t, 1, removed)

		_, err := manager.Get(stale.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = manager.Get(fresh.ID)
		assert.NoError(t, err)
	})

	t.Run("access keeps a session alive", func(t *testing.T) {
		clock = clock.Add(50 * time.Minute)
		require.NoError(t, manager.UpdateLastAccessed(fresh.ID))

		clock = clock.Add(50 * time.Minute)
		assert.Zero(t, manager.CleanupExpiredSessions(time.Hour))
		assert.True(t, fresh.LastAccessedAt().Equal(clock.Add(-50*time.Minute)))
	})

	t.Run("unknown session", func(t *testing.T) {
		assert.ErrorIs(t, manager.UpdateLastAccessed("missing"), ErrSessionNotFound)
	})
}

func TestManager_ConcurrentCreate(t *testing.T) {
	manager := NewManager(nil)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool)
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := manager.Create()
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[sess.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 50)
	assert.Equal(t, 50, manager.Count())
}

func TestSession_State(t *testing.T) {
	sess := newSession("s", time.Now())
	assert.Equal(t, StateUninitialized, sess.State())
	assert.Nil(t, sess.Graph())

	sess.Bind(testGraph(t))
	assert.Equal(t, StateMapSelected, sess.State())
	_, ok := sess.LastRoom()
	assert.False(t, ok)

	sess.SetLastRoom("0")
	assert.Equal(t, StateInRoom, sess.State())
	id, ok := sess.LastRoom()
	assert.True(t, ok)
	assert.Equal(t, maze.RoomID("0"), id)
}
