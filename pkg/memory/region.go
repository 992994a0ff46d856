package memory

import "github.com/google/uuid"

// State is a region's position in the lifecycle state machine from
// spec §4.5. It is not load-bearing for the counter algorithm itself
// (which is purely edge-triggered) but makes the machine observable for
// diagnostics and tests.
type State uint8

const (
	StateActive State = iota
	StatePendingCollect
	StateCollected
)

func (s State) String() string {
	switch s {
	case StatePendingCollect:
		return "pending-collect"
	case StateCollected:
		return "collected"
	default:
		return "active"
	}
}

// Region is a disjoint partition of mutable objects sharing a
// reclamation fate. LRC/PRC/SBRC are the local/parent/sub-region
// reference counts from spec §3; CombinedLRC gates collectability.
type Region struct {
	ID uuid.UUID

	LRC  uint64
	PRC  uint64
	SBRC uint64

	Parent *Region
	Bridge *Object

	Members map[*Object]struct{}

	State State
}

func newRegion() *Region {
	return &Region{
		ID:      uuid.New(),
		Members: make(map[*Object]struct{}),
		State:   StateActive,
	}
}

// CombinedLRC is LRC+SBRC, the quantity that gates whether a region is
// reachable from the local region (directly, or through a descendant).
func (r *Region) CombinedLRC() uint64 { return r.LRC + r.SBRC }
