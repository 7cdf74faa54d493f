package scheduler

// State is the scheduler lifecycle state
type State int

const (
	StateIdle State = iota
	StateAwaitingFirstAnalysis
	StatePlaying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstAnalysis:
		return "awaiting_first_analysis"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
