package domain

import "strings"

// Mode selects whether a view tracks one day or the whole week around it.
type Mode string

const (
	ModeDay  Mode = "day"
	ModeWeek Mode = "week"
)

// ParseMode maps the wire value to a Mode; empty means day.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeDay:
		return ModeDay, nil
	case ModeWeek:
		return ModeWeek, nil
	default:
		return "", NewError(ErrCodeInvalid, "mode must be day or week")
	}
}

// Selector identifies which tasks a live view tracks.
type Selector struct {
	OwnerID string `json:"ownerId"`
	Mode    Mode   `json:"mode"`
	Anchor  Date   `json:"anchorDate"`
}

func (s Selector) Validate() error {
	if strings.TrimSpace(s.OwnerID) == "" {
		return NewError(ErrCodeInvalid, "selector owner must not be empty")
	}
	if s.Mode != ModeDay && s.Mode != ModeWeek {
		return NewError(ErrCodeInvalid, "mode must be day or week")
	}
	if s.Anchor.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
