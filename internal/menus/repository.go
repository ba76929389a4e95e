package menus

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

const selectMenu = `
SELECT m.id, m.name, m.slug, COALESCE(m.path, ''), COALESCE(m.icon, ''), m.parent_id,
       m.is_active, m.sort_order, m.created_at, m.updated_at
FROM menus m`

func scanMenu(row pgx.Row) (Menu, error) {
	var m Menu
	err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.Path, &m.Icon, &m.ParentID,
		&m.IsActive, &m.Order, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// List returns menus ordered for display with their roles attached.
func (r *Repository) List(ctx context.Context, params shared.ListParams) ([]Menu, int, error) {
	where := ""
	args := []any{}
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		where = ` WHERE m.name ILIKE $1 OR m.slug ILIKE $1`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM menus m`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	meta := shared.NewPageMeta(params, total)

	query := selectMenu + where + ` ORDER BY m.sort_order, m.id`
	if meta.Limit > 0 {
		args = append(args, meta.Limit, meta.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	menus, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Menu, error) {
		return scanMenu(row)
	})
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachRoles(ctx, menus); err != nil {
		return nil, 0, err
	}
	return menus, total, nil
}

func (r *Repository) attachRoles(ctx context.Context, menus []Menu) error {
	if len(menus) == 0 {
		return nil
	}
	ids := make([]int64, len(menus))
	index := make(map[int64]int, len(menus))
	for i, m := range menus {
		ids[i] = m.ID
		index[m.ID] = i
		menus[i].Roles = []RoleRef{}
	}
	rows, err := r.pool.Query(ctx, `
SELECT rm.menu_id, ro.id, ro.name
FROM role_menus rm JOIN roles ro ON ro.id = rm.role_id
WHERE rm.menu_id = ANY($1)
ORDER BY ro.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var menuID int64
		var role RoleRef
		if err := rows.Scan(&menuID, &role.ID, &role.Name); err != nil {
			return err
		}
		i := index[menuID]
		menus[i].Roles = append(menus[i].Roles, role)
	}
	return rows.Err()
}

// Get fetches a menu by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Menu, error) {
	m, err := scanMenu(r.pool.QueryRow(ctx, selectMenu+` WHERE m.id = $1`, id))
	if err != nil {
		return Menu{}, db.MapError("menu", err)
	}
	menus := []Menu{m}
	if err := r.attachRoles(ctx, menus); err != nil {
		return Menu{}, err
	}
	return menus[0], nil
}

// Create inserts a menu and its role assignments.
func (r *Repository) Create(ctx context.Context, m Menu, roleIDs []int64) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
INSERT INTO menus (name, slug, path, icon, parent_id, is_active, sort_order)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
RETURNING id`, m.Name, m.Slug, m.Path, m.Icon, m.ParentID, m.IsActive, m.Order).Scan(&id)
		if err != nil {
			return err
		}
		return replaceRoles(ctx, tx, id, roleIDs)
	})
	if err != nil {
		return 0, db.MapError("menu", err)
	}
	return id, nil
}

// Update rewrites a menu. A nil roleIDs keeps the current assignments.
func (r *Repository) Update(ctx context.Context, m Menu, roleIDs []int64) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE menus SET name = $2, slug = $3, path = NULLIF($4, ''), icon = NULLIF($5, ''),
       parent_id = $6, is_active = $7, sort_order = $8, updated_at = NOW()
WHERE id = $1`, m.ID, m.Name, m.Slug, m.Path, m.Icon, m.ParentID, m.IsActive, m.Order)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		if roleIDs == nil {
			return nil
		}
		return replaceRoles(ctx, tx, m.ID, roleIDs)
	})
	return db.MapError("menu", err)
}

func replaceRoles(ctx context.Context, tx pgx.Tx, menuID int64, roleIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM role_menus WHERE menu_id = $1`, menuID); err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
INSERT INTO role_menus (role_id, menu_id)
SELECT unnest($2::bigint[]), $1
ON CONFLICT DO NOTHING`, menuID, roleIDs)
	return err
}

// Delete removes a menu.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		return db.MapError("menu", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: menu not found", shared.ErrNotFound)
	}
	return nil
}

// Reorder applies every position in one transaction. An unknown id aborts the
// whole batch.
func (r *Repository) Reorder(ctx context.Context, positions []Position) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range positions {
			batch.Queue(`UPDATE menus SET sort_order = $2, updated_at = NOW() WHERE id = $1`, p.ID, p.Order)
		}
		results := tx.SendBatch(ctx, batch)
		for _, p := range positions {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return err
			}
			if tag.RowsAffected() == 0 {
				_ = results.Close()
				return fmt.Errorf("%w: menu %d not found", shared.ErrNotFound, p.ID)
			}
		}
		return results.Close()
	})
	return db.MapError("menu", err)
}
