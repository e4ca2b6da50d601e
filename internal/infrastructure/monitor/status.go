package monitor

import "time"

type Status struct {
	Components map[string]bool `json:"components"`
	Tasks      int             `json:"tasks,omitempty"`
	LastCheck  time.Time       `json:"last_check"`
}

// Healthy reports whether every component passed its last check.
func (s Status) Healthy() bool {
	if s.LastCheck.IsZero() {
		return false
	}
	for _, ok := range s.Components {
		if !ok {
			return false
		}
	}
	return true
}
