package connectivity

import (
	"time"

	"github.com/harborline/harbormaster/internal/settings"
)

// State is the prober's view of the back office.
type State int

const (
	StateUnknown State = iota
	StateOnline
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Transition names the edge a probe crossed, if any.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionOnline
	TransitionOffline
)

func (t Transition) String() string {
	switch t {
	case TransitionOnline:
		return "online"
	case TransitionOffline:
		return "offline"
	default:
		return "none"
	}
}

// Snapshot is the result of the latest settled probe. It is a value type;
// holders never observe later changes. LastSync and NextSync are what the
// back office reported; the console's own sync schedule is in state.Snapshot.
type Snapshot struct {
	Online              bool
	State               State
	Mode                settings.Mode
	Simulated           bool
	Source              string
	LastCheckedAt       time.Time
	LastSync            time.Time
	NextSync            time.Time
	Latency             time.Duration
	P95Latency          time.Duration
	ConsecutiveFailures int
	Err                 string
}

// Observation is what one call to Probe reports.
type Observation struct {
	Snapshot   Snapshot
	Previous   State
	Transition Transition
	// Restored is set only on the Offline to Online edge.
	Restored bool
}

// CameOnline reports whether the probe moved the state to Online from
// anything else, including Unknown.
func (o Observation) CameOnline() bool {
	return o.Transition == TransitionOnline
}

// WentOffline reports whether the probe moved the state from Online to
// Offline.
func (o Observation) WentOffline() bool {
	return o.Transition == TransitionOffline && o.Previous == StateOnline
}

func transition(prev, next State) Transition {
	if prev == next {
		return TransitionNone
	}
	switch next {
	case StateOnline:
		return TransitionOnline
	case StateOffline:
		return TransitionOffline
	}
	return TransitionNone
}
