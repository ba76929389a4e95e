package resources

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaid/paisaid-cms/internal/platform/db"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectResource = `
SELECT r.id, r.name, r.slug, COALESCE(r.description, ''), r.is_active, r.created_at, r.updated_at
FROM resources r`

func scanResource(row pgx.Row) (Resource, error) {
	var res Resource
	err := row.Scan(&res.ID, &res.Name, &res.Slug, &res.Description, &res.IsActive, &res.CreatedAt, &res.UpdatedAt)
	return res, err
}

// List returns resources whose name or slug matches params.Query.
func (r *Repository) List(ctx context.Context, params shared.ListParams) ([]Resource, int, error) {
	where := ""
	args := []any{}
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		where = ` WHERE r.name ILIKE $1 OR r.slug ILIKE $1`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM resources r`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	meta := shared.NewPageMeta(params, total)

	query := selectResource + where + ` ORDER BY r.id`
	if meta.Limit > 0 {
		args = append(args, meta.Limit, meta.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Resource, error) {
		return scanResource(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches a resource with the actions of the permissions that guard it.
func (r *Repository) Get(ctx context.Context, id int64) (Resource, error) {
	res, err := scanResource(r.pool.QueryRow(ctx, selectResource+` WHERE r.id = $1`, id))
	if err != nil {
		return Resource{}, db.MapError("resource", err)
	}
	rows, err := r.pool.Query(ctx, `SELECT action FROM permissions WHERE resource_id = $1 ORDER BY action`, id)
	if err != nil {
		return Resource{}, err
	}
	if res.Permissions, err = pgx.CollectRows(rows, pgx.RowTo[string]); err != nil {
		return Resource{}, err
	}
	return res, nil
}

// Create inserts a resource.
func (r *Repository) Create(ctx context.Context, res Resource) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO resources (name, slug, description, is_active) VALUES ($1, $2, NULLIF($3, ''), $4)
RETURNING id`, res.Name, res.Slug, res.Description, res.IsActive).Scan(&id)
	if err != nil {
		return 0, db.MapError("resource", err)
	}
	return id, nil
}

// Update rewrites a resource.
func (r *Repository) Update(ctx context.Context, res Resource) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE resources SET name = $2, slug = $3, description = NULLIF($4, ''), is_active = $5, updated_at = NOW()
WHERE id = $1`, res.ID, res.Name, res.Slug, res.Description, res.IsActive)
	if err != nil {
		return db.MapError("resource", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: resource not found", shared.ErrNotFound)
	}
	return nil
}

// Delete removes a resource. Permissions pointing at it are detached.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return db.MapError("resource", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: resource not found", shared.ErrNotFound)
	}
	return nil
}

// BulkDelete removes every listed resource and reports how many existed.
func (r *Repository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, db.MapError("resource", err)
	}
	return tag.RowsAffected(), nil
}
