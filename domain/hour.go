package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// HoursPerDay is the number of schedulable slots in a day.
const HoursPerDay = 24

// Hour is one of the 24 hour-of-day slots. It renders as "HH:00".
type Hour int

// ParseHour accepts "HH:00" (the wire format) and the bare "HH" form.
// Minute precision is not supported.
func ParseHour(value string) (Hour, error) {
	raw := strings.TrimSpace(value)
	hh, mm, found := strings.Cut(raw, ":")
	if found && mm != "00" {
		return 0, ErrInvalidHour
	}
	if len(hh) == 0 || len(hh) > 2 {
		return 0, ErrInvalidHour
	}
	for i := 0; i < len(hh); i++ {
		if hh[i] < '0' || hh[i] > '9' {
			return 0, ErrInvalidHour
		}
	}
	n, err := strconv.Atoi(hh)
	if err != nil {
		return 0, ErrInvalidHour
	}
	h := Hour(n)
	if !h.Valid() {
		return 0, ErrInvalidHour
	}
	return h, nil
}

// Hours lists all slots in ascending order.
func Hours() []Hour {
	out := make([]Hour, HoursPerDay)
	for i := range out {
		out[i] = Hour(i)
	}
	return out
}

func (h Hour) Valid() bool {
	return h >= 0 && h < HoursPerDay
}

// Minutes returns the slot start as minutes since midnight.
func (h Hour) Minutes() int {
	return int(h) * 60
}

func (h Hour) String() string {
	return fmt.Sprintf("%02d:00", int(h))
}

func (h Hour) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, ErrInvalidHour
	}
	return []byte(h.String()), nil
}

func (h *Hour) UnmarshalText(text []byte) error {
	parsed, err := ParseHour(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
