package domain

import (
	"encoding/json"
	"strings"
)

// UserProfile is the public identity attached to a schedule owner. It is
// saved wholesale and read by views only to label whose schedule is shown.
type UserProfile struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	IsPublic bool   `json:"isPublic"`
	Email    string `json:"email"`
}

// NewUserProfile returns a profile with the default visibility applied.
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{UserID: userID, IsPublic: true}
}

// DisplayName falls back to "User" when no username was saved.
func (p *UserProfile) DisplayName() string {
	if p == nil || strings.TrimSpace(p.Username) == "" {
		return "User"
	}
	return p.Username
}

// Initial is the upper-cased first rune of the username, or "?".
func (p *UserProfile) Initial() string {
	if p == nil {
		return "?"
	}
	for _, r := range strings.TrimSpace(p.Username) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// UnmarshalJSON treats a missing isPublic field as true; only an explicit
// false hides the schedule.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type wire struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Bio      string `json:"bio"`
		IsPublic *bool  `json:"isPublic"`
		Email    string `json:"email"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = UserProfile{
		UserID:   w.UserID,
		Username: w.Username,
		Bio:      w.Bio,
		IsPublic: w.IsPublic == nil || *w.IsPublic,
		Email:    w.Email,
	}
	return nil
}
