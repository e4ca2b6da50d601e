package profile

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

// lookupTimeout bounds the shared store read, which is detached from any
// single caller's cancellation.
const lookupTimeout = 5 * time.Second

// Resolver collapses concurrent lookups of the same profile into one store
// read. Nothing is cached between calls.
type Resolver struct {
	profiles repository.ProfileRepository
	group    singleflight.Group
}

func NewResolver(profiles repository.ProfileRepository) *Resolver {
	return &Resolver{profiles: profiles}
}

// GetOnce returns a private copy of the profile; domain.ErrProfileNotFound on
// a miss. Cancelling ctx abandons only this caller's wait.
func (r *Resolver) GetOnce(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ch := r.group.DoChan(userID, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return r.profiles.GetOnce(shared, userID)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	profile, ok := res.Val.(*domain.UserProfile)
	if !ok || profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	out := *profile
	return &out, nil
}

// Forget drops an in-flight lookup so the next call observes a fresh write.
func (r *Resolver) Forget(userID string) {
	r.group.Forget(userID)
}
