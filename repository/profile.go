package repository

import (
	"context"

	"github.com/fastygo/planner/domain"
)

// ProfileRepository stores user profiles as whole documents.
type ProfileRepository interface {
	// GetOnce performs a one-shot lookup. A miss returns domain.ErrProfileNotFound.
	GetOnce(ctx context.Context, userID string) (*domain.UserProfile, error)
	// Save overwrites the profile document.
	Save(ctx context.Context, profile *domain.UserProfile) error
	// ListPublic returns every profile with IsPublic set.
	ListPublic(ctx context.Context) ([]domain.UserProfile, error)
}
