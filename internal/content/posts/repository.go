package posts

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
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

const selectPost = `
SELECT p.id, p.title, p.slug, p.content, p.status,
       c.id, c.name, c.slug, u.id, u.username, u.name,
       COALESCE(p.price_range, ''), COALESCE(p.address, ''), COALESCE(p.city, ''), COALESCE(p.country, ''),
       p.latitude, p.longitude, COALESCE(p.phone, ''), COALESCE(p.website, ''), COALESCE(p.opening_hours, ''),
       p.view_count, p.published_at, p.created_at, p.updated_at
FROM posts p
JOIN categories c ON c.id = p.category_id
JOIN users u ON u.id = p.author_id`

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Status,
		&p.Category.ID, &p.Category.Name, &p.Category.Slug, &p.Author.ID, &p.Author.Username, &p.Author.Name,
		&p.PriceRange, &p.Address, &p.City, &p.Country,
		&p.Latitude, &p.Longitude, &p.Phone, &p.Website, &p.OpeningHours,
		&p.ViewCount, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type whereClause struct {
	parts []string
	args  []any
}

// add appends a condition. Each "$?" in cond is bound to arg.
func (w *whereClause) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.parts = append(w.parts, strings.ReplaceAll(cond, "$?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereClause) raw(cond string) {
	w.parts = append(w.parts, cond)
}

func (w *whereClause) String() string {
	if len(w.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.parts, " AND ")
}

func (w *whereClause) paginate(meta shared.PageMeta) string {
	if meta.Limit <= 0 {
		return ""
	}
	w.args = append(w.args, meta.Limit, meta.Offset())
	return " LIMIT $" + strconv.Itoa(len(w.args)-1) + " OFFSET $" + strconv.Itoa(len(w.args))
}

// List returns posts matching params and filter.
func (r *Repository) List(ctx context.Context, params shared.ListParams, filter Filter) ([]Post, int, error) {
	var w whereClause
	switch {
	case filter.PublishedOnly:
		w.add("p.status = $?", StatusPublished)
	case filter.Status != "":
		w.add("p.status = $?", filter.Status)
	}
	if params.Query != "" {
		w.add("p.title ILIKE $?", "%"+params.Query+"%")
	}
	if filter.CategoryID > 0 {
		w.add("p.category_id = $?", filter.CategoryID)
	}
	if len(filter.TagIDs) > 0 {
		w.add("EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = ANY($?))", filter.TagIDs)
	}
	if filter.City != "" {
		w.add("p.city ILIKE $?", "%"+filter.City+"%")
	}
	if filter.Country != "" {
		w.add("p.country ILIKE $?", "%"+filter.Country+"%")
	}
	if filter.PriceRange != "" {
		w.add("p.price_range = $?", filter.PriceRange)
	}
	order := " ORDER BY p.created_at DESC, p.id"
	if filter.Sort == SortViewCount {
		order = " ORDER BY p.view_count DESC, p.created_at DESC, p.id"
	}
	return r.page(ctx, params, &w, order)
}

// Trending returns published posts ordered by views, optionally limited to
// posts created since the given time.
func (r *Repository) Trending(ctx context.Context, params shared.ListParams, since *time.Time) ([]Post, int, error) {
	var w whereClause
	w.add("p.status = $?", StatusPublished)
	if since != nil {
		w.add("p.created_at >= $?", *since)
	}
	return r.page(ctx, params, &w, " ORDER BY p.view_count DESC, p.created_at DESC, p.id")
}

func (r *Repository) page(ctx context.Context, params shared.ListParams, w *whereClause, order string) ([]Post, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts p`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := selectPost + w.String() + order
	query += w.paginate(shared.NewPageMeta(params, total))
	posts, err := r.query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Nearby returns published posts inside a bounding box around origin.
func (r *Repository) Nearby(ctx context.Context, origin Post, deltaDegrees float64, limit int) ([]Post, error) {
	if origin.Latitude == nil || origin.Longitude == nil {
		return []Post{}, nil
	}
	lat, lng := *origin.Latitude, *origin.Longitude
	return r.query(ctx, selectPost+`
WHERE p.status = $1 AND p.id <> $2
  AND p.latitude BETWEEN $3 AND $4
  AND p.longitude BETWEEN $5 AND $6
ORDER BY p.view_count DESC, p.id
LIMIT $7`, StatusPublished, origin.ID.String(), lat-deltaDegrees, lat+deltaDegrees, lng-deltaDegrees, lng+deltaDegrees, limit)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Post, error) {
		return scanPost(row)
	})
	if err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *Repository) attachTags(ctx context.Context, posts []Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	index := make(map[uuid.UUID]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID.String()
		index[posts[i].ID] = i
		posts[i].Tags = []TagRef{}
	}
	rows, err := r.pool.Query(ctx, `
SELECT pt.post_id, t.id, t.name, t.slug
FROM post_tags pt
JOIN tags t ON t.id = pt.tag_id
WHERE pt.post_id = ANY($1::uuid[])
ORDER BY t.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postID uuid.UUID
		var tag TagRef
		if err := rows.Scan(&postID, &tag.ID, &tag.Name, &tag.Slug); err != nil {
			return err
		}
		if i, ok := index[postID]; ok {
			posts[i].Tags = append(posts[i].Tags, tag)
		}
	}
	return rows.Err()
}

// Get fetches a post by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Post, error) {
	return r.getOne(ctx, `p.id = $1`, id.String())
}

// GetBySlug fetches a post by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (Post, error) {
	return r.getOne(ctx, `p.slug = $1`, slug)
}

func (r *Repository) getOne(ctx context.Context, cond string, arg any) (Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, selectPost+` WHERE `+cond, arg))
	if err != nil {
		return Post{}, db.MapError("post", err)
	}
	posts := []Post{p}
	if err := r.attachTags(ctx, posts); err != nil {
		return Post{}, err
	}
	return posts[0], nil
}

// Create inserts a post and its tags in one transaction.
func (r *Repository) Create(ctx context.Context, p Post, tagIDs []int64) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO posts (id, title, slug, content, status, category_id, author_id, price_range, address, city, country,
                   latitude, longitude, phone, website, opening_hours, published_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''),
        $12, $13, NULLIF($14, ''), NULLIF($15, ''), NULLIF($16, ''), $17, $18, $18)`,
			p.ID.String(), p.Title, p.Slug, p.Content, p.Status, p.Category.ID, p.Author.ID, p.PriceRange, p.Address, p.City, p.Country,
			p.Latitude, p.Longitude, p.Phone, p.Website, p.OpeningHours, p.PublishedAt, p.CreatedAt)
		if err != nil {
			return err
		}
		return replaceTags(ctx, tx, p.ID, tagIDs)
	})
	return db.MapError("post", err)
}

// Update rewrites a post. A nil tagIDs keeps the current tags.
func (r *Repository) Update(ctx context.Context, p Post, tagIDs []int64) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE posts SET title = $2, slug = $3, content = $4, status = $5, category_id = $6,
       price_range = NULLIF($7, ''), address = NULLIF($8, ''), city = NULLIF($9, ''), country = NULLIF($10, ''),
       latitude = $11, longitude = $12, phone = NULLIF($13, ''), website = NULLIF($14, ''),
       opening_hours = NULLIF($15, ''), published_at = $16, updated_at = $17
WHERE id = $1`,
			p.ID.String(), p.Title, p.Slug, p.Content, p.Status, p.Category.ID, p.PriceRange, p.Address, p.City, p.Country,
			p.Latitude, p.Longitude, p.Phone, p.Website, p.OpeningHours, p.PublishedAt, p.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: post not found", shared.ErrNotFound)
		}
		if tagIDs == nil {
			return nil
		}
		return replaceTags(ctx, tx, p.ID, tagIDs)
	})
	return db.MapError("post", err)
}

func replaceTags(ctx context.Context, tx pgx.Tx, postID uuid.UUID, tagIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID.String()); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
INSERT INTO post_tags (post_id, tag_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING`, postID.String(), tagIDs)
	return err
}

// SetStatus changes a post's status. publishedAt is only written when the post
// has never been published.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE posts SET status = $2,
       published_at = CASE WHEN $2 = 'PUBLISHED' THEN COALESCE(published_at, $3) ELSE published_at END,
       updated_at = $3
WHERE id = $1`, id.String(), status, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	return nil
}

// IncrementViews adds one to a post's view counter.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id = $1`, id.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	return nil
}

// Delete removes a post.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	return nil
}

// BulkDelete removes every listed post in one transaction and reports how
// many existed.
func (r *Repository) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	var deleted int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = ANY($1::uuid[])`, raw)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	return deleted, err
}
