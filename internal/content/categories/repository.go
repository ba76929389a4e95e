package categories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

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

const selectCategory = `
SELECT c.id, c.name, c.slug, COALESCE(c.description, ''), c.parent_id, c.is_active,
       (SELECT COUNT(*) FROM posts p WHERE p.category_id = c.id), c.created_at, c.updated_at
FROM categories c`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.IsActive, &c.PostCount, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns categories ordered by name.
func (r *Repository) List(ctx context.Context, params shared.ListParams, filter Filter) ([]Category, int, error) {
	var clauses []string
	args := []any{}
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		clauses = append(clauses, `c.name ILIKE $`+strconv.Itoa(len(args)))
	}
	switch {
	case filter.TopLevel:
		clauses = append(clauses, `c.parent_id IS NULL`)
	case filter.ParentID > 0:
		args = append(args, filter.ParentID)
		clauses = append(clauses, `c.parent_id = $`+strconv.Itoa(len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = ` WHERE ` + strings.Join(clauses, ` AND `)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories c`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	meta := shared.NewPageMeta(params, total)

	query := selectCategory + where + ` ORDER BY c.name`
	if meta.Limit > 0 {
		args = append(args, meta.Limit, meta.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		return scanCategory(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches a category with its parent and children. When withPosts is set
// the five most recent posts are attached.
func (r *Repository) Get(ctx context.Context, id int64, withPosts bool) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, selectCategory+` WHERE c.id = $1`, id))
	if err != nil {
		return Category{}, db.MapError("category", err)
	}
	if c.ParentID != nil {
		var parent Ref
		err := r.pool.QueryRow(ctx, `SELECT id, name, slug FROM categories WHERE id = $1`, *c.ParentID).
			Scan(&parent.ID, &parent.Name, &parent.Slug)
		switch {
		case err == nil:
			c.Parent = &parent
		case !errors.Is(err, pgx.ErrNoRows):
			return Category{}, err
		}
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM categories WHERE parent_id = $1 ORDER BY name`, id)
	if err != nil {
		return Category{}, err
	}
	if c.Children, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Ref]); err != nil {
		return Category{}, err
	}
	if withPosts {
		rows, err := r.pool.Query(ctx, `
SELECT id::text, title, slug FROM posts WHERE category_id = $1 ORDER BY created_at DESC LIMIT 5`, id)
		if err != nil {
			return Category{}, err
		}
		if c.RecentPosts, err = pgx.CollectRows(rows, pgx.RowToStructByPos[PostRef]); err != nil {
			return Category{}, err
		}
	}
	return c, nil
}

// Exists reports whether a category id is present.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, c Category) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO categories (name, slug, description, parent_id, is_active)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
RETURNING id`, c.Name, c.Slug, c.Description, c.ParentID, c.IsActive).Scan(&id)
	if err != nil {
		return 0, db.MapError("category", err)
	}
	return id, nil
}

// Update rewrites a category.
func (r *Repository) Update(ctx context.Context, c Category) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE categories SET name = $2, slug = $3, description = NULLIF($4, ''), parent_id = $5,
       is_active = $6, updated_at = NOW()
WHERE id = $1`, c.ID, c.Name, c.Slug, c.Description, c.ParentID, c.IsActive)
	if err != nil {
		return db.MapError("category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category not found", shared.ErrNotFound)
	}
	return nil
}

// Delete removes a category.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return db.MapError("category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category not found", shared.ErrNotFound)
	}
	return nil
}
