// Package session provides the in-memory session store for maze games.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Collision-free session ID generation
//   - Per-session locking for state changes
//   - Idle-session expiry
//
// Core Types:
//
// Manager owns every Session for the life of the process. Session records the
// map a player has selected and the last room they validly entered.
//
// Session Identifiers:
//
// IDs are random UUIDv4 strings. Create re-rolls any ID that is already live, so
// uniqueness among live sessions holds by construction rather than by chance.
//
// Concurrency:
//
// The manager guards its index with a read-write mutex. Each Session also carries
// its own mutex; callers that change a session's state (the traversal engine)
// hold it for the duration of one operation so concurrent requests on the same
// game cannot lose updates.
//
// Usage:
//
//	manager := session.NewManager(logger)
//
//	sess, err := manager.Create()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// Sessions are never destroyed by gameplay. CleanupExpiredSessions removes the
// ones that have been idle longer than a given age; main runs it on a ticker.
package session
