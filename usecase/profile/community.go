package profile

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Member is one entry of the community directory.
type Member struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Initial     string `json:"initial"`
	Bio         string `json:"bio,omitempty"`
}

// Community lists public profiles other than viewerID whose username
// contains query, ignoring case. An empty query matches everyone.
func (uc *UseCase) Community(ctx context.Context, viewerID, query string) ([]Member, error) {
	profiles, err := uc.profiles.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))

	members := make([]Member, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		if p.UserID == viewerID || !p.IsPublic {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(p.Username), needle) {
			continue
		}
		members = append(members, Member{
			UserID:      p.UserID,
			Username:    p.Username,
			DisplayName: p.DisplayName(),
			Initial:     p.Initial(),
			Bio:         p.Bio,
		})
	}

	sort.SliceStable(members, func(i, j int) bool {
		return fold.String(members[i].DisplayName) < fold.String(members[j].DisplayName)
	})
	return members, nil
}
