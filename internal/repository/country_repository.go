package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"countryatlas/internal/model"
)

// ErrNotFound is returned when no country matches the requested name.
var ErrNotFound = errors.New("country not found")

// Sort values accepted by List.
const (
	SortGDPDesc = "gdp_desc"
	SortGDPAsc  = "gdp_asc"
	SortName    = "name"
)

// Filter narrows and orders a List call. Empty fields are ignored;
// an empty Sort preserves storage order.
type Filter struct {
	Region   string
	Currency string
	Sort     string
}

// ValidSort reports whether s is an accepted sort key.
func ValidSort(s string) bool {
	switch s {
	case "", SortGDPDesc, SortGDPAsc, SortName:
		return true
	}
	return false
}

type CountryRepository interface {
	// UpsertAll writes the whole refresh batch and the refresh timestamp
	// in a single transaction. Either every record lands or none do.
	UpsertAll(ctx context.Context, records []model.Country, refreshedAt time.Time) error

	List(ctx context.Context, filter Filter) ([]model.Country, error)
	GetByName(ctx context.Context, name string) (model.Country, error)
	DeleteByName(ctx context.Context, name string) error
	TopByGDP(ctx context.Context, limit int) ([]model.Country, error)

	Count(ctx context.Context) (int64, error)
	Status(ctx context.Context) (model.AppStatus, error)
}

type gormCountryRepository struct {
	db *gorm.DB
}

func NewGormCountryRepository(db *gorm.DB) CountryRepository {
	return &gormCountryRepository{db: db}
}

// upsert assignment columns: everything a refresh recomputes.
var refreshColumns = []string{
	"capital", "region", "population", "currency_code",
	"exchange_rate", "estimated_gdp", "flag_url", "last_refreshed_at",
}

func (r *gormCountryRepository) UpsertAll(ctx context.Context, records []model.Country, refreshedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(records) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns(refreshColumns),
			}).Create(&records).Error
			if err != nil {
				return err
			}
		}

		status := model.AppStatus{ID: 1, RefreshedAt: &refreshedAt}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_refreshed_at"}),
		}).Create(&status).Error
	})
}

func (r *gormCountryRepository) List(ctx context.Context, filter Filter) ([]model.Country, error) {
	query := r.db.WithContext(ctx).Model(&model.Country{})

	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.Currency != "" {
		query = query.Where("currency_code = ?", filter.Currency)
	}

	switch filter.Sort {
	case SortGDPDesc:
		query = query.Order("estimated_gdp DESC")
	case SortGDPAsc:
		query = query.Order("estimated_gdp ASC")
	case SortName:
		query = query.Order("name ASC")
	}

	var countries []model.Country
	if err := query.Find(&countries).Error; err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *gormCountryRepository) GetByName(ctx context.Context, name string) (model.Country, error) {
	var country model.Country
	err := r.db.WithContext(ctx).
		Where("lower(name) = lower(?)", name).
		First(&country).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Country{}, ErrNotFound
	}
	if err != nil {
		return model.Country{}, err
	}
	return country, nil
}

func (r *gormCountryRepository) DeleteByName(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).
		Where("lower(name) = lower(?)", name).
		Delete(&model.Country{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormCountryRepository) TopByGDP(ctx context.Context, limit int) ([]model.Country, error) {
	var countries []model.Country
	err := r.db.WithContext(ctx).
		Where("estimated_gdp IS NOT NULL").
		Order("estimated_gdp DESC").
		Limit(limit).
		Find(&countries).Error
	if err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *gormCountryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Country{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *gormCountryRepository) Status(ctx context.Context) (model.AppStatus, error) {
	var status model.AppStatus
	err := r.db.WithContext(ctx).First(&status, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AppStatus{ID: 1}, nil
	}
	if err != nil {
		return model.AppStatus{}, err
	}
	return status, nil
}
