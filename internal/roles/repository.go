package roles

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

const selectRole = `
SELECT r.id, r.name, r.slug, COALESCE(r.description, ''), r.is_super_role, r.is_active,
       r.created_at, r.updated_at,
       (SELECT COUNT(*) FROM users u WHERE u.role_id = r.id)
FROM roles r`

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Slug, &role.Description, &role.IsSuperRole,
		&role.IsActive, &role.CreatedAt, &role.UpdatedAt, &role.UserCount)
	return role, err
}

// List returns roles whose name or slug matches params.Query.
func (r *Repository) List(ctx context.Context, params shared.ListParams) ([]Role, int, error) {
	where := ""
	args := []any{}
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		where = ` WHERE r.name ILIKE $1 OR r.slug ILIKE $1`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles r`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	meta := shared.NewPageMeta(params, total)

	query := selectRole + where + ` ORDER BY r.id`
	if meta.Limit > 0 {
		args = append(args, meta.Limit, meta.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	roles := make([]Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, err
		}
		roles = append(roles, role)
	}
	return roles, total, rows.Err()
}

// Get fetches a role with its permissions and menus.
func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, selectRole+` WHERE r.id = $1`, id))
	if err != nil {
		return Role{}, db.MapError("role", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT p.id, p.name, p.action
FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = $1 ORDER BY p.action`, id)
	if err != nil {
		return Role{}, err
	}
	role.Permissions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (PermissionRef, error) {
		var p PermissionRef
		err := row.Scan(&p.ID, &p.Name, &p.Action)
		return p, err
	})
	if err != nil {
		return Role{}, err
	}

	rows, err = r.pool.Query(ctx, `
SELECT m.id, m.name, m.slug
FROM role_menus rm JOIN menus m ON m.id = rm.menu_id
WHERE rm.role_id = $1 ORDER BY m.sort_order, m.id`, id)
	if err != nil {
		return Role{}, err
	}
	role.Menus, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (MenuRef, error) {
		var m MenuRef
		err := row.Scan(&m.ID, &m.Name, &m.Slug)
		return m, err
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// Create inserts a role and its assignments in one transaction.
func (r *Repository) Create(ctx context.Context, role Role, permissionIDs, menuIDs []int64) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
INSERT INTO roles (name, slug, description, is_super_role, is_active)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
RETURNING id`, role.Name, role.Slug, role.Description, role.IsSuperRole, role.IsActive).Scan(&id)
		if err != nil {
			return err
		}
		return replaceAssignments(ctx, tx, id, permissionIDs, menuIDs)
	})
	if err != nil {
		return 0, db.MapError("role", err)
	}
	return id, nil
}

// Update rewrites a role. Nil id slices leave the matching assignments as they are.
func (r *Repository) Update(ctx context.Context, role Role, permissionIDs, menuIDs []int64) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE roles SET name = $2, slug = $3, description = NULLIF($4, ''), is_active = $5, updated_at = NOW()
WHERE id = $1`, role.ID, role.Name, role.Slug, role.Description, role.IsActive)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return replaceAssignments(ctx, tx, role.ID, permissionIDs, menuIDs)
	})
	return db.MapError("role", err)
}

func replaceAssignments(ctx context.Context, tx pgx.Tx, roleID int64, permissionIDs, menuIDs []int64) error {
	if permissionIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		if len(permissionIDs) > 0 {
			_, err := tx.Exec(ctx, `
INSERT INTO role_permissions (role_id, permission_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING`, roleID, permissionIDs)
			if err != nil {
				return err
			}
		}
	}
	if menuIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM role_menus WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		if len(menuIDs) > 0 {
			_, err := tx.Exec(ctx, `
INSERT INTO role_menus (role_id, menu_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING`, roleID, menuIDs)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete removes a role. Roles still assigned to users are kept by the
// foreign key and reported as a conflict.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return db.MapError("role", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: role not found", shared.ErrNotFound)
	}
	return nil
}
