package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

// SaveInput carries the editable profile fields.
type SaveInput struct {
	Username string
	Bio      string
	// IsPublic defaults to true when omitted.
	IsPublic *bool
	Email    string
}

type UseCase struct {
	profiles repository.ProfileRepository
	resolver *Resolver
	logger   *zap.Logger
}

func New(profiles repository.ProfileRepository, resolver *Resolver, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = NewResolver(profiles)
	}
	return &UseCase{
		profiles: profiles,
		resolver: resolver,
		logger:   logger,
	}
}

// GetOwnProfile returns the caller's profile, or an unsaved default one.
func (uc *UseCase) GetOwnProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	profile, err := uc.resolver.GetOnce(ctx, userID)
	if domain.IsNotFound(err) {
		return domain.NewUserProfile(userID), nil
	}
	return profile, err
}

// GetPublicProfile returns another user's profile if it is visible to viewerID.
func (uc *UseCase) GetPublicProfile(ctx context.Context, viewerID, userID string) (*domain.UserProfile, error) {
	profile, err := uc.resolver.GetOnce(ctx, userID)
	if err != nil {
		return nil, err
	}
	if viewerID != userID && !profile.IsPublic {
		return nil, domain.ErrForbidden
	}
	return profile, nil
}

// SaveProfile overwrites the caller's profile document.
func (uc *UseCase) SaveProfile(ctx context.Context, userID string, in SaveInput) (*domain.UserProfile, error) {
	profile := domain.NewUserProfile(userID)
	profile.Username = strings.TrimSpace(in.Username)
	profile.Bio = strings.TrimSpace(in.Bio)
	profile.Email = strings.TrimSpace(in.Email)
	if in.IsPublic != nil {
		profile.IsPublic = *in.IsPublic
	}

	if err := uc.profiles.Save(ctx, profile); err != nil {
		uc.logger.Error("save profile failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	uc.resolver.Forget(userID)
	return profile, nil
}

// CanView reports whether viewerID may watch ownerID's schedule. A missing
// profile counts as public.
func (uc *UseCase) CanView(ctx context.Context, viewerID, ownerID string) error {
	if viewerID == ownerID {
		return nil
	}
	profile, err := uc.resolver.GetOnce(ctx, ownerID)
	switch {
	case domain.IsNotFound(err):
		return nil
	case err != nil:
		return err
	case !profile.IsPublic:
		return domain.ErrForbidden
	}
	return nil
}

// Resolver exposes the resolver for components that only need lookups.
func (uc *UseCase) Resolver() *Resolver {
	return uc.resolver
}
