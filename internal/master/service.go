package master

import (
	"context"
	"fmt"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// DefaultProvinceLimit applies when a province listing names no limit.
const DefaultProvinceLimit = 10

// Reader loads master data.
type Reader interface {
	ListProvinces(ctx context.Context, params shared.ListParams) ([]Province, int, error)
	ListDistricts(ctx context.Context, filter DistrictFilter) ([]District, int, error)
}

// Service serves the read-only master catalogue.
type Service struct {
	repo Reader
}

// NewService builds Service instance.
func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

// ListProvinces returns a page of provinces. Provinces are always paginated.
func (s *Service) ListProvinces(ctx context.Context, params shared.ListParams) ([]Province, shared.PageMeta, error) {
	if params.Limit == 0 {
		params.Limit = DefaultProvinceLimit
	}
	items, total, err := s.repo.ListProvinces(ctx, params)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("master: list provinces: %w", err)
	}
	return items, shared.NewPageMeta(params, total), nil
}

// ListDistricts returns districts. A zero limit returns every match on one page.
func (s *Service) ListDistricts(ctx context.Context, filter DistrictFilter) ([]District, shared.PageMeta, error) {
	items, total, err := s.repo.ListDistricts(ctx, filter)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("master: list districts: %w", err)
	}
	return items, shared.NewPageMeta(filter.ListParams, total), nil
}
