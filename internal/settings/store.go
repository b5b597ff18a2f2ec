package settings

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harborline/harbormaster/internal/broadcast"
)

// EventKind identifies which setting changed.
type EventKind int

const (
	ModeChanged EventKind = iota
	ForcedModeChanged
	FrequencyChanged
	SimulationChanged
	ThemeChanged
	Reset
)

func (k EventKind) String() string {
	switch k {
	case ModeChanged:
		return "mode"
	case ForcedModeChanged:
		return "forced_mode"
	case FrequencyChanged:
		return "frequency"
	case SimulationChanged:
		return "simulation"
	case ThemeChanged:
		return "theme"
	case Reset:
		return "reset"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is broadcast after a mutation has been persisted. Values is the full
// state after the change.
type Event struct {
	Kind   EventKind
	Values Values
}

// Store is the process-wide settings container. All mutations are persisted
// synchronously and then broadcast to subscribers.
type Store struct {
	mu      sync.Mutex
	values  Values
	persist Persistence
	hub     *broadcast.Hub[Event]
	log     zerolog.Logger
}

// Open loads settings from p. Load failures are logged and defaults used.
func Open(p Persistence, log zerolog.Logger) *Store {
	log = log.With().Str("component", "settings").Logger()
	values, err := p.Load()
	if err != nil {
		log.Warn().Err(err).Msg("settings unreadable, using defaults")
	}
	return &Store{
		values:  values.normalize(),
		persist: p,
		hub:     broadcast.New[Event]("settings", log),
		log:     log,
	}
}

// Values returns a copy of the current settings.
func (s *Store) Values() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// Mode returns the current data source mode.
func (s *Store) Mode() Mode {
	return s.Values().Mode
}

// Forced returns the current forced mode.
func (s *Store) Forced() ForcedMode {
	return s.Values().Forced
}

// SimulatedOffline reports whether the offline simulation switch is on.
func (s *Store) SimulatedOffline() bool {
	return s.Values().SimulateOffline
}

// Frequency returns the connection-check interval.
func (s *Store) Frequency() time.Duration {
	return s.Values().Frequency()
}

// Theme returns the persisted UI theme name.
func (s *Store) Theme() string {
	return s.Values().Theme
}

// SetMode selects the data source. It fails with *LockedError when a forced
// mode pins a different selection.
func (s *Store) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}
	return s.update(ModeChanged, func(v *Values) error {
		if pinned, ok := v.Forced.Mode(); ok && pinned != m {
			return &LockedError{Requested: m, Forced: v.Forced}
		}
		v.Mode = m
		return nil
	})
}

// SetForced applies or clears the lock. A lock also switches the mode to the
// pinned value.
func (s *Store) SetForced(f ForcedMode) error {
	if !f.Valid() {
		return fmt.Errorf("%w: forced %q", ErrInvalidMode, f)
	}
	return s.update(ForcedModeChanged, func(v *Values) error {
		v.Forced = f
		if pinned, ok := f.Mode(); ok {
			v.Mode = pinned
		}
		return nil
	})
}

// SetSimulatedOffline flips the offline simulation switch.
func (s *Store) SetSimulatedOffline(on bool) error {
	return s.update(SimulationChanged, func(v *Values) error {
		v.SimulateOffline = on
		return nil
	})
}

// SetFrequency sets the connection-check interval in seconds.
func (s *Store) SetFrequency(seconds int) error {
	if !validFrequency(seconds) {
		return fmt.Errorf("%w: %ds (allowed %v)", ErrInvalidFrequency, seconds, AllowedFrequencies)
	}
	return s.update(FrequencyChanged, func(v *Values) error {
		v.FrequencySeconds = seconds
		return nil
	})
}

// SetTheme stores the UI theme name.
func (s *Store) SetTheme(name string) error {
	return s.update(ThemeChanged, func(v *Values) error {
		v.Theme = name
		*v = v.normalize()
		return nil
	})
}

// Reset clears the lock, selects mock mode, turns simulation off and restores
// the default frequency. The theme is kept.
func (s *Store) Reset() error {
	return s.update(Reset, func(v *Values) error {
		theme := v.Theme
		*v = Defaults()
		v.Theme = theme
		return nil
	})
}

// Subscribe registers for change events. Call the returned function to stop.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	return s.hub.Subscribe(buffer)
}

// Close ends all subscriptions.
func (s *Store) Close() {
	s.hub.Close()
}

func (s *Store) update(kind EventKind, mutate func(*Values) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.values
	if err := mutate(&next); err != nil {
		return err
	}
	if err := s.persist.Save(next); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	changed := next != s.values
	s.values = next
	if changed || kind == Reset {
		s.log.Info().
			Str("change", kind.String()).
			Str("mode", string(next.Mode)).
			Str("forced", string(next.Forced)).
			Int("frequency_s", next.FrequencySeconds).
			Bool("simulate_offline", next.SimulateOffline).
			Msg("settings updated")
		s.hub.Publish(Event{Kind: kind, Values: next})
	}
	return nil
}
