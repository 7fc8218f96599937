package passivetree

import (
	"errors"
	"fmt"
)

var (
	// ErrSocketNotFound matches any SocketNotFoundError.
	ErrSocketNotFound = errors.New("socket not found")

	// ErrInvalidNodeID indicates a node key that is not an unsigned 32-bit integer.
	ErrInvalidNodeID = errors.New("invalid node id")

	// ErrDuplicateNode is returned by NewGraph when two nodes share an id.
	ErrDuplicateNode = errors.New("duplicate node id")
)

// SocketNotFoundError reports a socket id absent from the graph.
type SocketNotFoundError struct {
	SocketID uint32
}

func (e *SocketNotFoundError) Error() string {
	return fmt.Sprintf("socket %d not found in passive tree", e.SocketID)
}

func (e *SocketNotFoundError) Is(target error) bool {
	return target == ErrSocketNotFound
}
