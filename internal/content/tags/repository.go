package tags

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

const selectTag = `
SELECT t.id, t.name, t.slug, (SELECT COUNT(*) FROM post_tags pt WHERE pt.tag_id = t.id), t.created_at, t.updated_at
FROM tags t`

func scanTag(row pgx.Row) (Tag, error) {
	var t Tag
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.PostCount, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// List returns tags ordered by name.
func (r *Repository) List(ctx context.Context, params shared.ListParams) ([]Tag, int, error) {
	where := ""
	args := []any{}
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		where = ` WHERE t.name ILIKE $1`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tags t`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	meta := shared.NewPageMeta(params, total)

	query := selectTag + where + ` ORDER BY t.name`
	if meta.Limit > 0 {
		args = append(args, meta.Limit, meta.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Tag, error) {
		return scanTag(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get fetches a tag. When withPosts is set the five most recent posts are attached.
func (r *Repository) Get(ctx context.Context, id int64, withPosts bool) (Tag, error) {
	t, err := scanTag(r.pool.QueryRow(ctx, selectTag+` WHERE t.id = $1`, id))
	if err != nil {
		return Tag{}, db.MapError("tag", err)
	}
	if withPosts {
		rows, err := r.pool.Query(ctx, `
SELECT p.id::text, p.title, p.slug
FROM posts p
JOIN post_tags pt ON pt.post_id = p.id
WHERE pt.tag_id = $1
ORDER BY p.created_at DESC
LIMIT 5`, id)
		if err != nil {
			return Tag{}, err
		}
		if t.RecentPosts, err = pgx.CollectRows(rows, pgx.RowToStructByPos[PostRef]); err != nil {
			return Tag{}, err
		}
	}
	return t, nil
}

// Create inserts a tag.
func (r *Repository) Create(ctx context.Context, t Tag) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id`, t.Name, t.Slug).Scan(&id)
	if err != nil {
		return 0, db.MapError("tag", err)
	}
	return id, nil
}

// Update renames a tag.
func (r *Repository) Update(ctx context.Context, t Tag) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tags SET name = $2, slug = $3, updated_at = NOW() WHERE id = $1`, t.ID, t.Name, t.Slug)
	if err != nil {
		return db.MapError("tag", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: tag not found", shared.ErrNotFound)
	}
	return nil
}

// Delete removes a tag. The post_tags foreign key refuses tags still in use.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return db.MapError("tag", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: tag not found", shared.ErrNotFound)
	}
	return nil
}
