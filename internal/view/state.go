package view

// State is the lifecycle position of a LiveView.
type State int

const (
	StateUnbound State = iota
	StateSubscribing
	StateLive
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
