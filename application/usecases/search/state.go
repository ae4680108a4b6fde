package search

// State is the lifecycle of the text index as seen by the engine. Ready may move to Unavailable;
// Unavailable is never left for the life of the process.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	default:
		return "uninitialized"
	}
}
