package thunk

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShared is returned by sole-owner operations (TryUnwrap, GetMut) on a
// shared handle whose underlying cell is still referenced by other clones.
var ErrShared = errors.New("thunk: cell is shared by other handles")

// PoisonError is the terminal failure a poisoned cell reports. It is
// produced when the cell's computation panicked before publishing a result:
// the forcing goroutine sees the original panic, every other forcer gets a
// *PoisonError carrying the recovered panic value.
type PoisonError struct {
	// Cause is the value the computation panicked with.
	Cause any
}

func (e *PoisonError) Error() string {
	return fmt.Sprintf("thunk: computation panicked: %v", e.Cause)
}
