package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/gitarch/poap-service/internal/models"
)

type PoapRepository interface {
	Create(ctx context.Context, p *models.Poap) error
	CreateIfAbsent(ctx context.Context, p *models.Poap) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Poap, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.Poap, error)
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Poap, error)
	ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error)
}

type poapRepo struct {
	db DB
}

func NewPoapRepository(db DB) PoapRepository {
	return &poapRepo{db: db}
}

func baseSelectPoap() string {
	return `
		SELECT
			id, user_id, project_id, transaction_hash, metadata_uri,
			token_id, contract_address, is_simulated, created_at
		FROM poaps
	`
}

func (r *poapRepo) scanPoap(row pgx.Row) (*models.Poap, error) {
	var p models.Poap
	err := row.Scan(
		&p.ID, &p.UserID, &p.ProjectID, &p.TransactionHash, &p.MetadataURI,
		&p.TokenID, &p.ContractAddress, &p.IsSimulated, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the record. No uniqueness on (user_id, project_id): a user
// re-minting, or several users attesting the same project, each get a row.
func (r *poapRepo) Create(ctx context.Context, p *models.Poap) error {
	q := `
		INSERT INTO poaps (
			id, user_id, project_id, transaction_hash, metadata_uri,
			token_id, contract_address, is_simulated, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, q,
		p.ID, p.UserID, p.ProjectID, p.TransactionHash, p.MetadataURI,
		p.TokenID, p.ContractAddress, p.IsSimulated, p.CreatedAt,
	)
	return err
}

// CreateIfAbsent is the reconciliation path: queue redelivery may retry an
// insert that already landed, so collisions on id are ignored. created_at is
// bound from the model so a replayed record keeps its mint time, not the
// repair time.
func (r *poapRepo) CreateIfAbsent(ctx context.Context, p *models.Poap) error {
	q := `
		INSERT INTO poaps (
			id, user_id, project_id, transaction_hash, metadata_uri,
			token_id, contract_address, is_simulated, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, q,
		p.ID, p.UserID, p.ProjectID, p.TransactionHash, p.MetadataURI,
		p.TokenID, p.ContractAddress, p.IsSimulated, p.CreatedAt,
	)
	return err
}

func (r *poapRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Poap, error) {
	row := r.db.QueryRow(ctx, baseSelectPoap()+" WHERE id=$1", id)
	return r.scanPoap(row)
}

func (r *poapRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.Poap, error) {
	return r.findWhere(ctx, " WHERE user_id=$1 ORDER BY created_at DESC", userID)
}

func (r *poapRepo) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Poap, error) {
	return r.findWhere(ctx, " WHERE project_id=$1 ORDER BY created_at DESC", projectID)
}

func (r *poapRepo) findWhere(ctx context.Context, where string, args ...interface{}) ([]*models.Poap, error) {
	rows, err := r.db.Query(ctx, baseSelectPoap()+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poaps []*models.Poap
	for rows.Next() {
		p, err := r.scanPoap(rows)
		if err != nil {
			return nil, err
		}
		poaps = append(poaps, p)
	}
	return poaps, rows.Err()
}

func (r *poapRepo) ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM poaps WHERE project_id=$1)`, projectID,
	).Scan(&exists)
	return exists, err
}
