package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads audit_logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const timelineSelect = `SELECT a.id, a.occurred_at, a.actor_id, COALESCE(u.username, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id`

func timelineWhere(f TimelineFilters) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.From.IsZero() {
		add("a.occurred_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("a.occurred_at < $%d", f.To)
	}
	if f.ActorID > 0 {
		add("a.actor_id = $%d", f.ActorID)
	}
	if f.Entity != "" {
		add("a.entity = $%d", f.Entity)
	}
	if f.Action != "" {
		add("a.action = $%d", f.Action)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Window returns up to limit rows starting at offset, newest first.
func (r *Repository) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	where, args := timelineWhere(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY a.occurred_at DESC, a.id DESC LIMIT $%d OFFSET $%d", timelineSelect, where, len(args)-1, len(args))
	return r.query(ctx, query, args...)
}

// All returns every matching row, newest first.
func (r *Repository) All(ctx context.Context, f TimelineFilters) ([]TimelineRow, error) {
	where, args := timelineWhere(f)
	return r.query(ctx, timelineSelect+where+" ORDER BY a.occurred_at DESC, a.id DESC", args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var tr TimelineRow
		var meta []byte
		if err := row.Scan(&tr.ID, &tr.At, &tr.ActorID, &tr.Actor, &tr.Action, &tr.Entity, &tr.EntityID, &meta); err != nil {
			return tr, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &tr.Meta); err != nil {
				return tr, fmt.Errorf("audit: decode meta: %w", err)
			}
		}
		return tr, nil
	})
}
