// Package state holds the client's local view of the tracker session.
//
// # Overview
//
// The Store is the single place where connection status, registration status
// and the two tracker-mirrored collections (participants and resources) live.
// The session loop is the only writer; renderers and the headless watcher read
// snapshots or subscribe to change notifications.
//
// # Core Types
//
// Store:
//   - sync.RWMutex protected snapshot
//   - one writer (the session loop), many readers
//   - observers notified synchronously after each write, outside the lock
//
// Snapshot:
//   - immutable copy of the state at a point in time
//   - collections are cloned on the way out
//
// # Update Semantics
//
// Collections are never merged. Each tracker snapshot event replaces the
// whole list:
//
//	store.ReplaceParticipants(2, []wire.ParticipantRecord{a, b})
//	store.ReplaceParticipants(0, nil)
//	→ snapshot.Participants = nil
//
// Connection and registration are coupled by one rule, enforced here so no
// snapshot can show it violated: registration may only be Registering or
// Registered while the connection is Connected. SetConnection with any other
// state resets registration to Unregistered in the same write, and
// SetRegistration refuses to move forward while not connected.
//
// # Observers
//
// Observers must not block. The TUI forwards changes into its program with a
// non-blocking send; the headless watcher logs them.
//
//	cancel := store.Subscribe(func(c state.Change) {
//		if c.Kind == state.ParticipantsReplaced {
//			log.Printf("%d peers", c.Count)
//		}
//	})
//	defer cancel()
//
// Nothing in the store is persisted; it lives for the process lifetime.
package state
