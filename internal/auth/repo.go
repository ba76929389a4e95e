package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaid/paisaid-cms/internal/platform/db"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	ListRoleMenus(ctx context.Context, roleID int64) ([]MenuItem, error)
	ListAllMenus(ctx context.Context) ([]MenuItem, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectUser = `
SELECT u.id, u.username, u.name, COALESCE(u.email, ''), u.password_hash, u.is_active,
       u.role_id, r.name, r.slug, r.is_super_role, u.last_login_at, u.created_at
FROM users u
JOIN roles r ON r.id = u.role_id`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.IsActive,
		&u.RoleID, &u.RoleName, &u.RoleSlug, &u.IsSuperRole, &u.LastLoginAt, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.username = $1`, username))
	if err != nil {
		return nil, db.MapError("user", err)
	}
	return user, nil
}

// FindByID fetches a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
	if err != nil {
		return nil, db.MapError("user", err)
	}
	return user, nil
}

// UpdateLastLogin stamps the last activity time.
func (r *PGRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.MapError("user", pgx.ErrNoRows)
	}
	return nil
}

// ListRoleMenus returns active menus granted to a role ordered for display.
func (r *PGRepository) ListRoleMenus(ctx context.Context, roleID int64) ([]MenuItem, error) {
	return r.queryMenus(ctx, `
SELECT m.id, m.name, m.slug, COALESCE(m.path, ''), COALESCE(m.icon, ''), m.parent_id, m.sort_order
FROM menus m
JOIN role_menus rm ON rm.menu_id = m.id
WHERE rm.role_id = $1 AND m.is_active
ORDER BY m.sort_order, m.id`, roleID)
}

// ListAllMenus returns every active menu ordered for display.
func (r *PGRepository) ListAllMenus(ctx context.Context) ([]MenuItem, error) {
	return r.queryMenus(ctx, `
SELECT id, name, slug, COALESCE(path, ''), COALESCE(icon, ''), parent_id, sort_order
FROM menus
WHERE is_active
ORDER BY sort_order, id`)
}

func (r *PGRepository) queryMenus(ctx context.Context, query string, args ...any) ([]MenuItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	menus := make([]MenuItem, 0)
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.Path, &m.Icon, &m.ParentID, &m.Order); err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
