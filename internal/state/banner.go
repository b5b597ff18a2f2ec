package state

import "github.com/harborline/harbormaster/internal/connectivity"

// Banner is the persistent connectivity banner the UI shows.
type Banner int

const (
	BannerNone Banner = iota
	BannerDegraded
	BannerAggregate
	BannerOffline
	BannerSimulated
)

func (b Banner) String() string {
	switch b {
	case BannerDegraded:
		return "Some feeds are unavailable, showing placeholder data"
	case BannerAggregate:
		return "System may be offline"
	case BannerOffline:
		return "Back office offline"
	case BannerSimulated:
		return "SIMULATED OFFLINE"
	default:
		return ""
	}
}

// Banner picks the most severe banner for the snapshot.
func (s Snapshot) Banner() Banner {
	switch {
	case s.HasConnectivity && s.Connectivity.Simulated && s.Connectivity.State == connectivity.StateOffline:
		return BannerSimulated
	case s.IsOffline():
		return BannerOffline
	case s.Tick != nil && s.Tick.Err != nil:
		return BannerAggregate
	case s.Tick != nil && s.Tick.Degraded():
		return BannerDegraded
	}
	return BannerNone
}
