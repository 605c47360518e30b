package service

import (
	"context"

	"countryatlas/internal/model"
	"countryatlas/internal/repository"
)

// CountryService serves the cached country records.
type CountryService struct {
	repo repository.CountryRepository
}

func NewCountryService(repo repository.CountryRepository) *CountryService {
	return &CountryService{repo: repo}
}

func (cs *CountryService) List(ctx context.Context, filter repository.Filter) ([]model.Country, error) {
	return cs.repo.List(ctx, filter)
}

func (cs *CountryService) GetByName(ctx context.Context, name string) (model.Country, error) {
	return cs.repo.GetByName(ctx, name)
}

func (cs *CountryService) DeleteByName(ctx context.Context, name string) error {
	return cs.repo.DeleteByName(ctx, name)
}

// Status reports the cache size and the last successful refresh time.
func (cs *CountryService) Status(ctx context.Context) (model.StatusResponse, error) {
	count, err := cs.repo.Count(ctx)
	if err != nil {
		return model.StatusResponse{}, err
	}
	status, err := cs.repo.Status(ctx)
	if err != nil {
		return model.StatusResponse{}, err
	}
	return model.StatusResponse{
		TotalCountries: count,
		RefreshedAt:    status.RefreshedAt,
	}, nil
}
