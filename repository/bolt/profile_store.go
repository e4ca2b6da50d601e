package bolt

import (
	"context"
	"encoding/json"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type profileStore struct {
	db *DB
}

// NewProfileStore returns a Bolt-backed ProfileRepository.
func NewProfileStore(db *DB) repository.ProfileRepository {
	return &profileStore{db: db}
}

func (s *profileStore) GetOnce(_ context.Context, userID string) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, domain.ErrProfileNotFound
	}
	var profile *domain.UserProfile
	err := s.db.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketProfiles).Get([]byte(userID))
		if raw == nil {
			return domain.ErrProfileNotFound
		}
		profile = &domain.UserProfile{}
		return json.Unmarshal(raw, profile)
	})
	if err != nil {
		return nil, domain.StoreError("get profile", err)
	}
	return profile, nil
}

func (s *profileStore) Save(_ context.Context, profile *domain.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	err = s.db.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProfiles).Put([]byte(profile.UserID), payload)
	})
	return domain.StoreError("save profile", err)
}

func (s *profileStore) ListPublic(_ context.Context) ([]domain.UserProfile, error) {
	profiles := []domain.UserProfile{}
	err := s.db.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProfiles).ForEach(func(_, v []byte) error {
			var profile domain.UserProfile
			if err := json.Unmarshal(v, &profile); err != nil {
				return nil
			}
			if profile.IsPublic {
				profiles = append(profiles, profile)
			}
			return nil
		})
	})
	if err != nil {
		return nil, domain.StoreError("list public profiles", err)
	}
	return profiles, nil
}
