package navvolume

// State is the phase a construction run is in.
type State int32

// A run moves Idle, Constructing, Reducing, Done in order, or to Failed from any phase.
const (
	Idle State = iota
	Constructing
	Reducing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Constructing:
		return "Constructing"
	case Reducing:
		return "Reducing"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// Terminal reports whether a run in this state will not change state again.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
