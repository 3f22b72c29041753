package session

import (
	"errors"
	"fmt"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/state"
)

var (
	// ErrNotConnected matches every *NotConnectedError.
	ErrNotConnected = errors.New("not connected")
	// ErrClientClosed is returned by Client methods once Run has returned.
	ErrClientClosed = errors.New("client closed")
	// ErrNoUploader is returned by AnnounceResource when no upload collaborator is wired.
	ErrNoUploader = errors.New("no uploader configured")
)

// NotConnectedError refuses a command issued while the connection is not
// Connected. Nothing was written to the transport.
type NotConnectedError struct {
	Command string
	State   state.ConnectionState
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("%s refused: not connected (%s)", e.Command, e.State)
}

func (e *NotConnectedError) Is(target error) bool {
	return target == ErrNotConnected
}
