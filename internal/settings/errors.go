package settings

import (
	"errors"
	"fmt"
)

// ErrLocked matches every LockedError via errors.Is.
var ErrLocked = errors.New("data source mode is locked")

// LockedError is returned when a mode change conflicts with the forced mode.
// Unlock (SetForced(ForcedNone)) before switching.
type LockedError struct {
	Requested Mode
	Forced    ForcedMode
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("cannot switch to %s: mode is locked to %s", e.Requested, e.Forced)
}

// Is reports whether target is ErrLocked.
func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}
