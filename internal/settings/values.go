package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Mode selects where reads and writes go: the embedded demo dataset or the
// live back office.
type Mode string

const (
	ModeMock     Mode = "mock"
	ModeDatabase Mode = "database"
)

// ForcedMode pins the Mode when it is not ForcedNone.
type ForcedMode string

const (
	ForcedNone     ForcedMode = "none"
	ForcedMock     ForcedMode = "mock"
	ForcedDatabase ForcedMode = "database"
)

const (
	defaultFrequencySeconds = 5
	defaultTheme            = "Nightfox"
)

// AllowedFrequencies lists the connection-check intervals, in seconds, an
// operator may choose.
var AllowedFrequencies = []int{5, 10, 30, 60, 300}

var (
	ErrInvalidMode      = errors.New("invalid data source mode")
	ErrInvalidFrequency = errors.New("invalid check frequency")
)

// ParseMode converts a persisted or user-supplied value into a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeMock:
		return ModeMock, nil
	case ModeDatabase:
		return ModeDatabase, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, value)
}

// ParseForcedMode converts a persisted or user-supplied value into a ForcedMode.
// An empty value means ForcedNone.
func ParseForcedMode(value string) (ForcedMode, error) {
	switch ForcedMode(strings.ToLower(strings.TrimSpace(value))) {
	case ForcedNone, "":
		return ForcedNone, nil
	case ForcedMock:
		return ForcedMock, nil
	case ForcedDatabase:
		return ForcedDatabase, nil
	}
	return "", fmt.Errorf("%w: forced %q", ErrInvalidMode, value)
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeMock || m == ModeDatabase
}

// Label returns the operator-facing name of the mode.
func (m Mode) Label() string {
	if m == ModeDatabase {
		return "Production"
	}
	return "Demo"
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeDatabase {
		return ModeMock
	}
	return ModeDatabase
}

// Valid reports whether f is a known forced mode.
func (f ForcedMode) Valid() bool {
	return f == ForcedNone || f == ForcedMock || f == ForcedDatabase
}

// Mode returns the mode f pins, and false for ForcedNone.
func (f ForcedMode) Mode() (Mode, bool) {
	switch f {
	case ForcedMock:
		return ModeMock, true
	case ForcedDatabase:
		return ModeDatabase, true
	}
	return "", false
}

// Next cycles none → mock → database → none.
func (f ForcedMode) Next() ForcedMode {
	switch f {
	case ForcedNone:
		return ForcedMock
	case ForcedMock:
		return ForcedDatabase
	}
	return ForcedNone
}

// Values is the persisted settings record.
type Values struct {
	Mode             Mode
	Forced           ForcedMode
	FrequencySeconds int
	SimulateOffline  bool
	Theme            string
}

// Defaults returns the state restored by Reset (apart from the theme).
func Defaults() Values {
	return Values{
		Mode:             ModeMock,
		Forced:           ForcedNone,
		FrequencySeconds: defaultFrequencySeconds,
		Theme:            defaultTheme,
	}
}

// Frequency returns the check frequency as a duration.
func (v Values) Frequency() time.Duration {
	return time.Duration(v.FrequencySeconds) * time.Second
}

// Locked reports whether a forced mode pins the selection.
func (v Values) Locked() bool {
	return v.Forced != ForcedNone
}

// normalize repairs invalid fields and re-applies the lock.
func (v Values) normalize() Values {
	if !v.Mode.Valid() {
		v.Mode = ModeMock
	}
	if !v.Forced.Valid() {
		v.Forced = ForcedNone
	}
	if !validFrequency(v.FrequencySeconds) {
		v.FrequencySeconds = defaultFrequencySeconds
	}
	if strings.TrimSpace(v.Theme) == "" {
		v.Theme = defaultTheme
	}
	if pinned, ok := v.Forced.Mode(); ok {
		v.Mode = pinned
	}
	return v
}

func validFrequency(seconds int) bool {
	return slices.Contains(AllowedFrequencies, seconds)
}

// NextFrequency returns the allowed frequency after seconds, wrapping around.
func NextFrequency(seconds int) int {
	idx := slices.Index(AllowedFrequencies, seconds)
	return AllowedFrequencies[(idx+1)%len(AllowedFrequencies)]
}
