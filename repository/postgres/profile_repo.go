package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates a Postgres-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetOnce(ctx context.Context, userID string) (*domain.UserProfile, error) {
	const query = `
		SELECT user_id, username, bio, is_public, email
		FROM user_profiles
		WHERE user_id = $1
	`
	profile, err := scanProfile(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, domain.StoreError("get profile", err)
	}
	return profile, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO user_profiles (user_id, username, bio, is_public, email, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET username = EXCLUDED.username,
		bio = EXCLUDED.bio,
		is_public = EXCLUDED.is_public,
		email = EXCLUDED.email,
		updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query,
		profile.UserID,
		profile.Username,
		profile.Bio,
		profile.IsPublic,
		profile.Email,
	); err != nil {
		return domain.StoreError("save profile", err)
	}
	return nil
}

func (r *profileRepository) ListPublic(ctx context.Context) ([]domain.UserProfile, error) {
	const query = `
		SELECT user_id, username, bio, is_public, email
		FROM user_profiles
		WHERE is_public
		ORDER BY username, user_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, domain.StoreError("list public profiles", err)
	}
	defer rows.Close()

	profiles := []domain.UserProfile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, domain.StoreError("list public profiles", err)
		}
		profiles = append(profiles, *profile)
	}
	return profiles, rows.Err()
}

func scanProfile(row interface {
	Scan(dest ...interface{}) error
}) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := row.Scan(
		&profile.UserID,
		&profile.Username,
		&profile.Bio,
		&profile.IsPublic,
		&profile.Email,
	); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}
