// Package session runs the tracker session: connection lifecycle,
// registration, inbound event routing and outbound commands.
//
// # Architecture
//
// Four collaborators share one goroutine, the one executing Client.Run:
//
//   - ConnectionManager: owns the single live transport.Conn and the
//     connection state machine, including the reconnection budget
//   - Coordinator: registration state machine, auto-registers on every
//     transition to Connected and resets on every transition away from it
//   - Issuer: outbound commands, each gated on Connected
//   - Router: the single entry point for transport events
//
// Transport goroutines and reconnection timers never touch state directly;
// they post closures into the client's inbox. Public Client methods do the
// same and wait for the result, so every state transition is serialized.
//
// # Session Identity
//
// Each transport session carries an id. The router drops any event whose id
// is not the current session's, which covers late callbacks from a session
// that was replaced by a manual Connect or lost before its events drained.
// Reconnection timers are guarded by a generation counter for the same
// reason.
//
// # Reconnection
//
// After a loss or failed open the manager asks its backoff policy for the
// next delay (constant by default, optionally exponential) and schedules an
// attempt. When the policy is spent the state becomes ReconnectExhausted and
// stays there until a manual Connect, which resets the attempt counter.
package session
