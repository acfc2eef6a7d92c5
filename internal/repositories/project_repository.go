package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/gitarch/poap-service/internal/models"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	MarkPoapGenerated(ctx context.Context, id uuid.UUID) error
	FindUnflaggedWithPoaps(ctx context.Context) ([]uuid.UUID, error)
}

type projectRepo struct {
	db DB
}

func NewProjectRepository(db DB) ProjectRepository {
	return &projectRepo{db: db}
}

func baseSelectProject() string {
	return `
		SELECT
			id, owner_id, title, description, image_urls, category,
			university, tags, poap_generated, created_at
		FROM projects
	`
}

func (r *projectRepo) scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.ImageURLs, &p.Category,
		&p.University, &p.Tags, &p.PoapGenerated, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	row := r.db.QueryRow(ctx, baseSelectProject()+" WHERE id=$1", id)
	return r.scanProject(row)
}

func (r *projectRepo) MarkPoapGenerated(ctx context.Context, id uuid.UUID) error {
	q := `
		UPDATE projects
		SET poap_generated = TRUE
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

// FindUnflaggedWithPoaps returns projects whose poap_generated flag is stale:
// a poaps row exists but the flag is still false. The flag is best-effort, so
// the reconciler recomputes it from record existence.
func (r *projectRepo) FindUnflaggedWithPoaps(ctx context.Context) ([]uuid.UUID, error) {
	q := `
		SELECT DISTINCT p.id
		FROM projects p
		JOIN poaps pp ON pp.project_id = p.id
		WHERE p.poap_generated = FALSE
	`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
