package master

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Repository reads master data from PostgreSQL. Soft-deleted rows are never returned.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListProvinces returns provinces whose name matches params.Query, each with its districts.
func (r *Repository) ListProvinces(ctx context.Context, params shared.ListParams) ([]Province, int, error) {
	where := ` WHERE p.deleted_at IS NULL`
	args := []any{}
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		where += ` AND p.province_name ILIKE $1`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM provinces p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	meta := shared.NewPageMeta(params, total)

	query := `SELECT p.id, p.province_code, p.province_name, COALESCE(p.name_eng, '') FROM provinces p` + where + ` ORDER BY p.province_code`
	if meta.Limit > 0 {
		args = append(args, meta.Limit, meta.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	provinces, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Province, error) {
		var p Province
		err := row.Scan(&p.ID, &p.Code, &p.Name, &p.NameEng)
		return p, err
	})
	if err != nil || len(provinces) == 0 {
		return provinces, total, err
	}

	ids := make([]int64, len(provinces))
	index := make(map[int64]int, len(provinces))
	for i, p := range provinces {
		ids[i] = p.ID
		index[p.ID] = i
	}
	rows, err = r.pool.Query(ctx, `
SELECT id, district_code, district_name, COALESCE(name_eng, ''), province_id
FROM districts
WHERE province_id = ANY($1) AND deleted_at IS NULL
ORDER BY district_code`, ids)
	if err != nil {
		return nil, 0, err
	}
	districts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (District, error) {
		var d District
		err := row.Scan(&d.ID, &d.Code, &d.Name, &d.NameEng, &d.ProvinceID)
		return d, err
	})
	if err != nil {
		return nil, 0, err
	}
	for _, d := range districts {
		i := index[d.ProvinceID]
		provinces[i].Districts = append(provinces[i].Districts, d)
	}
	return provinces, total, nil
}

// ListDistricts returns districts matching filter, each with its province.
func (r *Repository) ListDistricts(ctx context.Context, filter DistrictFilter) ([]District, int, error) {
	where := ` WHERE d.deleted_at IS NULL`
	args := []any{}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where += ` AND d.district_name ILIKE $` + strconv.Itoa(len(args))
	}
	if filter.ProvinceID > 0 {
		args = append(args, filter.ProvinceID)
		where += ` AND d.province_id = $` + strconv.Itoa(len(args))
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM districts d`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	meta := shared.NewPageMeta(filter.ListParams, total)

	query := `
SELECT d.id, d.district_code, d.district_name, COALESCE(d.name_eng, ''), d.province_id,
       p.province_code, p.province_name, COALESCE(p.name_eng, '')
FROM districts d
JOIN provinces p ON p.id = d.province_id` + where + ` ORDER BY d.district_code`
	if meta.Limit > 0 {
		args = append(args, meta.Limit, meta.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	districts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (District, error) {
		var d District
		p := &Province{}
		err := row.Scan(&d.ID, &d.Code, &d.Name, &d.NameEng, &d.ProvinceID, &p.Code, &p.Name, &p.NameEng)
		p.ID = d.ProvinceID
		d.Province = p
		return d, err
	})
	if err != nil {
		return nil, 0, err
	}
	return districts, total, nil
}
