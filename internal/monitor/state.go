package monitor

// State is the monitor's position in the analysis cycle.
type State int32

const (
	StateIdle State = iota
	StateAnalyzing
	StateNoAction
	StateValidating
	StateSuggestCheckpoint
	StateSuggestRollback
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StateNoAction:
		return "no_action"
	case StateValidating:
		return "validating"
	case StateSuggestCheckpoint:
		return "suggest_checkpoint"
	case StateSuggestRollback:
		return "suggest_rollback"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
