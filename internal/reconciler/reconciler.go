// Package reconciler joins the country catalog with the exchange-rate
// table and derives the estimated GDP for each retained country.
package reconciler

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"countryatlas/internal/drivers"
	"countryatlas/internal/model"
)

// ErrInvalidComputationInput is returned by EstimateGDP when the inputs
// fall outside its domain (non-positive rate, negative population).
var ErrInvalidComputationInput = errors.New("invalid GDP computation input")

// Reconciler merges raw catalog entries with a rate table.
//
// Join policy: the currency code is matched exactly, case-sensitive, as
// received from the source. An entry whose code is absent from the rate
// table is retained with a null rate and null GDP. An entry with no
// currency at all is retained with a zero GDP.
type Reconciler struct {
	multiplier int64
	logger     *logrus.Logger
}

func New(gdpMultiplier int64, logger *logrus.Logger) *Reconciler {
	return &Reconciler{multiplier: gdpMultiplier, logger: logger}
}

// Merge produces one canonical record per retained catalog entry.
// Entries with an empty name or no population are skipped. Every record
// in the batch carries the same refreshedAt timestamp.
func (r *Reconciler) Merge(raw []drivers.RawCountry, rates map[string]decimal.Decimal, refreshedAt time.Time) []model.Country {
	records := make([]model.Country, 0, len(raw))
	skipped := 0

	for _, entry := range raw {
		if entry.Name == "" || entry.Population == nil {
			skipped++
			continue
		}

		record := model.Country{
			Name:        entry.Name,
			Capital:     entry.Capital,
			Region:      entry.Region,
			Population:  *entry.Population,
			FlagURL:     entry.FlagURL,
			RefreshedAt: refreshedAt,
		}

		switch {
		case entry.CurrencyCode == nil:
			record.EstimatedGDP = nullDecimalFrom(decimal.Zero)
		default:
			record.CurrencyCode = entry.CurrencyCode
			rate, ok := rates[*entry.CurrencyCode]
			if !ok {
				// Rate table miss: keep the record, leave rate and GDP null.
				break
			}
			record.ExchangeRate = nullDecimalFrom(rate)
			gdp, err := r.EstimateGDP(*entry.Population, rate)
			if err != nil {
				r.logger.WithFields(logrus.Fields{
					"country": entry.Name,
					"rate":    rate,
				}).Warn("GDP unavailable for country")
				break
			}
			record.EstimatedGDP = nullDecimalFrom(gdp)
		}

		records = append(records, record)
	}

	if skipped > 0 {
		r.logger.WithField("skipped", skipped).Info("Skipped catalog entries with missing name or population")
	}
	return records
}

// EstimateGDP computes population * multiplier / rate in decimal
// arithmetic. It returns ErrInvalidComputationInput instead of dividing
// by a non-positive rate or scaling a negative population.
func (r *Reconciler) EstimateGDP(population int64, rate decimal.Decimal) (decimal.Decimal, error) {
	if population < 0 || rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, ErrInvalidComputationInput
	}
	gdp := decimal.NewFromInt(population).
		Mul(decimal.NewFromInt(r.multiplier)).
		Div(rate)
	return gdp, nil
}

func nullDecimalFrom(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
