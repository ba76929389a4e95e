package rbac

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaid/paisaid-cms/internal/platform/db"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// PGStore implements RoleStore and the permission catalogue using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// FindRoleForUser loads the role that owns the user and its permission actions.
func (s *PGStore) FindRoleForUser(ctx context.Context, userID int64) (*Role, error) {
	var role Role
	err := s.pool.QueryRow(ctx, `
SELECT r.id, r.name, r.slug, r.is_super_role
FROM users u
JOIN roles r ON r.id = u.role_id
WHERE u.id = $1`, userID).Scan(&role.ID, &role.Name, &role.Slug, &role.IsSuperRole)
	if err != nil {
		return nil, db.MapError("role", err)
	}
	rows, err := s.pool.Query(ctx, `
SELECT p.id, p.action
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = $1
ORDER BY p.action`, role.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Action); err != nil {
			return nil, err
		}
		role.Permissions = append(role.Permissions, p)
	}
	return &role, rows.Err()
}

const selectPermission = `SELECT id, name, action, COALESCE(description, ''), is_active, resource_id, created_at, updated_at FROM permissions`

func scanPermission(row pgx.Row, p *Permission) error {
	return row.Scan(&p.ID, &p.Name, &p.Action, &p.Description, &p.IsActive, &p.ResourceID, &p.CreatedAt, &p.UpdatedAt)
}

// ListPermissions returns permissions matching params.Query ordered by action.
func (s *PGStore) ListPermissions(ctx context.Context, params shared.ListParams) ([]Permission, int, error) {
	where := ""
	args := []any{}
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		where = ` WHERE name ILIKE $1 OR action ILIKE $1`
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	meta := shared.NewPageMeta(params, total)

	query := selectPermission + where + ` ORDER BY action`
	if meta.Limit > 0 {
		args = append(args, meta.Limit, meta.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	perms := make([]Permission, 0)
	for rows.Next() {
		var p Permission
		if err := scanPermission(rows, &p); err != nil {
			return nil, 0, err
		}
		perms = append(perms, p)
	}
	return perms, total, rows.Err()
}

// GetPermission fetches a permission by ID with the roles granted it.
func (s *PGStore) GetPermission(ctx context.Context, id int64) (Permission, error) {
	var p Permission
	if err := scanPermission(s.pool.QueryRow(ctx, selectPermission+` WHERE id = $1`, id), &p); err != nil {
		return Permission{}, db.MapError("permission", err)
	}
	rows, err := s.pool.Query(ctx, `
SELECT r.id, r.name, r.slug
FROM role_permissions rp
JOIN roles r ON r.id = rp.role_id
WHERE rp.permission_id = $1
ORDER BY r.name`, id)
	if err != nil {
		return Permission{}, err
	}
	p.Roles, err = pgx.CollectRows(rows, pgx.RowToStructByPos[RoleRef])
	if err != nil {
		return Permission{}, err
	}
	return p, nil
}

// CreatePermission inserts a permission and grants it to roleIDs in one transaction.
func (s *PGStore) CreatePermission(ctx context.Context, p Permission, roleIDs []int64) (Permission, error) {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
INSERT INTO permissions (name, action, description, is_active, resource_id) VALUES ($1, $2, NULLIF($3, ''), $4, $5)
RETURNING id, created_at, updated_at`, p.Name, p.Action, p.Description, p.IsActive, p.ResourceID).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return err
		}
		return grantRoles(ctx, tx, p.ID, roleIDs)
	})
	if err != nil {
		return Permission{}, db.MapError("permission", err)
	}
	return p, nil
}

// UpdatePermission rewrites a permission. A non-empty roleIDs replaces its
// role grants; an empty one leaves them untouched.
func (s *PGStore) UpdatePermission(ctx context.Context, p Permission, roleIDs []int64) (Permission, error) {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
UPDATE permissions SET name = $2, action = $3, description = NULLIF($4, ''), is_active = $5, resource_id = $6, updated_at = NOW()
WHERE id = $1
RETURNING created_at, updated_at`, p.ID, p.Name, p.Action, p.Description, p.IsActive, p.ResourceID).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return err
		}
		if len(roleIDs) == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, p.ID); err != nil {
			return err
		}
		return grantRoles(ctx, tx, p.ID, roleIDs)
	})
	if err != nil {
		return Permission{}, db.MapError("permission", err)
	}
	return p, nil
}

func grantRoles(ctx context.Context, tx pgx.Tx, permissionID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
INSERT INTO role_permissions (role_id, permission_id)
SELECT UNNEST($1::bigint[]), $2
ON CONFLICT DO NOTHING`, roleIDs, permissionID)
	return err
}

// DeletePermission removes a permission and its role assignments.
func (s *PGStore) DeletePermission(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return db.MapError("permission", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: permission not found", shared.ErrNotFound)
	}
	return nil
}

// BulkDeletePermissions removes every listed permission and reports how many existed.
func (s *PGStore) BulkDeletePermissions(ctx context.Context, ids []int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM permissions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, db.MapError("permission", err)
	}
	return tag.RowsAffected(), nil
}
