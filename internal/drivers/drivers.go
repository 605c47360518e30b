// Package drivers defines the contracts shared by the upstream data source
// clients and the error types the refresh pipeline distinguishes them by.
package drivers

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// RawCountry is one catalog entry as delivered by the country source,
// normalized to the fields the reconciler consumes. CurrencyCode is nil
// when the source lists no currency for the country.
type RawCountry struct {
	Name         string
	Capital      *string
	Region       *string
	Population   *int64
	CurrencyCode *string
	FlagURL      *string
}

// CountryCatalog fetches the raw country catalog.
type CountryCatalog interface {
	Name() string
	FetchAll(ctx context.Context) ([]RawCountry, error)
}

// RateTable fetches the exchange-rate table keyed by currency code.
type RateTable interface {
	Name() string
	FetchLatest(ctx context.Context) (map[string]decimal.Decimal, error)
}

// UnavailableError reports a network failure or non-success response
// from an upstream source.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// InvalidDataError reports a payload that was received but could not be
// parsed or failed semantic validation.
type InvalidDataError struct {
	Source string
	Err    error
}

func (e *InvalidDataError) Error() string {
	return fmt.Sprintf("%s returned invalid data: %v", e.Source, e.Err)
}

func (e *InvalidDataError) Unwrap() error { return e.Err }
