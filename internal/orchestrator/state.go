package orchestrator

// State is a phase of one orchestration run
type State int

const (
	AwaitingModel State = iota
	ExecutingTools
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingModel:
		return "AWAITING_MODEL"
	case ExecutingTools:
		return "EXECUTING_TOOLS"
	case Done:
		return "DONE"
	case Failed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
