package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/wire"
)

// ConnectionState is owned by the connection manager.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	ReconnectExhausted
	Errored
)

func (c ConnectionState) String() string {
	switch c {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case ReconnectExhausted:
		return "reconnect-exhausted"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("connection(%d)", int(c))
	}
}

// RegistrationState is owned by the session coordinator.
type RegistrationState int

const (
	Unregistered RegistrationState = iota
	Registering
	Registered
)

func (r RegistrationState) String() string {
	switch r {
	case Unregistered:
		return "unregistered"
	case Registering:
		return "registering"
	case Registered:
		return "registered"
	default:
		return fmt.Sprintf("registration(%d)", int(r))
	}
}

// ErrRegistrationWithoutConnection is returned when a write would leave the
// store registered (or registering) while not connected.
var ErrRegistrationWithoutConnection = errors.New("registration requires a connected session")

// ChangeKind says which part of the snapshot a Change touched.
type ChangeKind int

const (
	ConnectionChanged ChangeKind = iota
	RegistrationChanged
	ParticipantsReplaced
	ResourcesReplaced
	PingSent
)

// Change is delivered to observers after every store write.
type Change struct {
	Kind         ChangeKind
	Connection   ConnectionState
	Registration RegistrationState
	// Count is the tracker-reported count for ParticipantsReplaced and ResourcesReplaced.
	Count int
}

// Observer is called synchronously after a write, outside the store lock.
type Observer func(Change)

// Snapshot is a copy of the client's view at a point in time.
type Snapshot struct {
	Identity     string
	Connection   ConnectionState
	Registration RegistrationState
	SessionID    string
	Attempts     int
	// LastReason is the most recent close or failure reason.
	LastReason string

	Participants     []wire.ParticipantRecord
	ParticipantCount int
	Resources        []wire.ResourceRecord
	ResourceCount    int

	LastPingAt  time.Time
	LastUpdated time.Time
}

// IsOnline reports whether the session is connected.
func (s Snapshot) IsOnline() bool {
	return s.Connection == Connected
}

// Store holds the authoritative in-client snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// NewStore creates an empty store for identity: disconnected, unregistered,
// no participants or resources.
func NewStore(identity string) *Store {
	return &Store{snapshot: Snapshot{Identity: identity}}
}

// SetConnection records a connection transition. Leaving Connected forces the
// registration back to Unregistered in the same write.
func (s *Store) SetConnection(conn ConnectionState, sessionID string, attempts int, reason string) {
	s.mu.Lock()
	s.snapshot.Connection = conn
	s.snapshot.SessionID = sessionID
	s.snapshot.Attempts = attempts
	if reason != "" {
		s.snapshot.LastReason = reason
	}
	if conn != Connected {
		s.snapshot.Registration = Unregistered
	}
	s.snapshot.LastUpdated = time.Now()
	change := Change{Kind: ConnectionChanged, Connection: conn, Registration: s.snapshot.Registration}
	s.mu.Unlock()

	s.notify(change)
}

// SetRegistration records a registration transition. Anything but
// Unregistered is refused unless the store is connected.
func (s *Store) SetRegistration(reg RegistrationState) error {
	s.mu.Lock()
	if reg != Unregistered && s.snapshot.Connection != Connected {
		s.mu.Unlock()
		return ErrRegistrationWithoutConnection
	}
	if s.snapshot.Registration == reg {
		s.mu.Unlock()
		return nil
	}
	s.snapshot.Registration = reg
	s.snapshot.LastUpdated = time.Now()
	change := Change{Kind: RegistrationChanged, Connection: s.snapshot.Connection, Registration: reg}
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// ReplaceParticipants swaps the participant collection wholesale.
func (s *Store) ReplaceParticipants(count int, peers []wire.ParticipantRecord) {
	s.mu.Lock()
	s.snapshot.Participants = cloneSlice(peers)
	s.snapshot.ParticipantCount = count
	s.snapshot.LastUpdated = time.Now()
	change := Change{Kind: ParticipantsReplaced, Connection: s.snapshot.Connection, Registration: s.snapshot.Registration, Count: count}
	s.mu.Unlock()

	s.notify(change)
}

// ReplaceResources swaps the resource collection wholesale.
func (s *Store) ReplaceResources(count int, resources []wire.ResourceRecord) {
	s.mu.Lock()
	s.snapshot.Resources = cloneSlice(resources)
	s.snapshot.ResourceCount = count
	s.snapshot.LastUpdated = time.Now()
	change := Change{Kind: ResourcesReplaced, Connection: s.snapshot.Connection, Registration: s.snapshot.Registration, Count: count}
	s.mu.Unlock()

	s.notify(change)
}

// MarkPing records when the last diagnostic ping left the client.
func (s *Store) MarkPing(at time.Time) {
	s.mu.Lock()
	s.snapshot.LastPingAt = at
	change := Change{Kind: PingSent, Connection: s.snapshot.Connection, Registration: s.snapshot.Registration}
	s.mu.Unlock()

	s.notify(change)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Participants = cloneSlice(s.snapshot.Participants)
	snap.Resources = cloneSlice(s.snapshot.Resources)
	return snap
}

// Subscribe registers fn for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	if s.observers == nil {
		s.observers = make(map[int]Observer)
	}
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) notify(change Change) {
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(change)
	}
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
