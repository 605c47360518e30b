package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Country is the canonical per-country record built by a refresh:
// catalog attributes from restcountries.com joined with the USD exchange
// rate for the country's currency, plus the derived GDP estimate.
type Country struct {
	ID           uint                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name         string              `gorm:"column:name;size:255;not null;uniqueIndex" json:"name"`
	Capital      *string             `gorm:"column:capital;size:255" json:"capital"`
	Region       *string             `gorm:"column:region;size:255;index" json:"region"`
	Population   int64               `gorm:"column:population;not null" json:"population"`
	CurrencyCode *string             `gorm:"column:currency_code;size:10;index" json:"currency_code"`
	ExchangeRate decimal.NullDecimal `gorm:"column:exchange_rate;type:numeric" json:"exchange_rate"`
	EstimatedGDP decimal.NullDecimal `gorm:"column:estimated_gdp;type:numeric;index" json:"estimated_gdp"`
	FlagURL      *string             `gorm:"column:flag_url;size:512" json:"flag_url"`
	RefreshedAt  time.Time           `gorm:"column:last_refreshed_at" json:"last_refreshed_at"`
}

func (Country) TableName() string {
	return "countries"
}

// AppStatus is a singleton row recording the last successful refresh.
// It is overwritten in the same transaction as the country upsert batch.
type AppStatus struct {
	ID          uint       `gorm:"column:id;primaryKey" json:"-"`
	RefreshedAt *time.Time `gorm:"column:last_refreshed_at" json:"last_refreshed_at"`
}

func (AppStatus) TableName() string {
	return "app_status"
}

// StatusResponse is the payload of GET /status.
type StatusResponse struct {
	TotalCountries int64      `json:"total_countries"`
	RefreshedAt    *time.Time `json:"last_refreshed_at"`
}
