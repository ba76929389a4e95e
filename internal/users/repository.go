package users

import (
	"context"
	"fmt"
	"strconv"
	"time"

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

const selectUser = `
SELECT u.id, u.username, u.name, COALESCE(u.email, ''), u.phone, COALESCE(u.address, ''),
       u.gender, u.dob, u.is_active, r.id, r.name, u.last_login_at, u.created_at, u.updated_at
FROM users u
JOIN roles r ON r.id = u.role_id`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Phone, &u.Address,
		&u.Gender, &u.DOB, &u.IsActive, &u.Role.ID, &u.Role.Name, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// List returns users matching params.Query on username, name or email.
func (r *Repository) List(ctx context.Context, params shared.ListParams) ([]User, int, error) {
	where := ""
	args := []any{}
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		where = ` WHERE u.username ILIKE $1 OR u.name ILIKE $1 OR u.email ILIKE $1`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	meta := shared.NewPageMeta(params, total)

	query := selectUser + where + ` ORDER BY u.created_at DESC, u.id DESC`
	if meta.Limit > 0 {
		args = append(args, meta.Limit, meta.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Get fetches a user by ID.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
	if err != nil {
		return User{}, db.MapError("user", err)
	}
	return u, nil
}

// RoleExists reports whether the role can be assigned.
func (r *Repository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID).Scan(&ok)
	return ok, err
}

// Create inserts a user with an already hashed password.
func (r *Repository) Create(ctx context.Context, u User, passwordHash string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (username, name, email, phone, address, gender, dob, password_hash, is_active, role_id)
VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7, $8, $9, $10)
RETURNING id`, u.Username, u.Name, u.Email, u.Phone, u.Address, u.Gender, u.DOB, passwordHash, u.IsActive, u.Role.ID).Scan(&id)
	if err != nil {
		return 0, db.MapError("user", err)
	}
	return id, nil
}

// Update rewrites a user's profile. An empty passwordHash keeps the password.
func (r *Repository) Update(ctx context.Context, u User, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET username = $2, name = $3, email = NULLIF($4, ''), phone = $5, address = NULLIF($6, ''),
       gender = $7, dob = $8, is_active = $9, role_id = $10,
       password_hash = COALESCE(NULLIF($11, ''), password_hash), updated_at = NOW()
WHERE id = $1`, u.ID, u.Username, u.Name, u.Email, u.Phone, u.Address, u.Gender, u.DOB, u.IsActive, u.Role.ID, passwordHash)
	if err != nil {
		return db.MapError("user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user not found", shared.ErrNotFound)
	}
	return nil
}

// SetPassword replaces the password hash.
func (r *Repository) SetPassword(ctx context.Context, id int64, passwordHash string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, passwordHash, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user not found", shared.ErrNotFound)
	}
	return nil
}

// Delete removes a user. Users who authored posts are kept by the foreign key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return db.MapError("user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user not found", shared.ErrNotFound)
	}
	return nil
}
