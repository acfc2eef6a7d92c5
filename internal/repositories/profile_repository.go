package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/gitarch/poap-service/internal/models"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByWalletAddress(ctx context.Context, address string) (*models.Profile, error)
}

type profileRepo struct {
	db DB
}

func NewProfileRepository(db DB) ProfileRepository {
	return &profileRepo{db: db}
}

func baseSelectProfile() string {
	return `
		SELECT
			id, username, bio, university, avatar_url, wallet_address, created_at
		FROM profiles
	`
}

func (r *profileRepo) scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.Username, &p.Bio, &p.University, &p.AvatarURL, &p.WalletAddress, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	row := r.db.QueryRow(ctx, baseSelectProfile()+" WHERE id=$1", id)
	return r.scanProfile(row)
}

func (r *profileRepo) GetByWalletAddress(ctx context.Context, address string) (*models.Profile, error) {
	row := r.db.QueryRow(ctx, baseSelectProfile()+" WHERE wallet_address=$1 LIMIT 1", address)
	return r.scanProfile(row)
}
