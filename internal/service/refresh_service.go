package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"countryatlas/internal/drivers"
	"countryatlas/internal/reconciler"
	"countryatlas/internal/render"
	"countryatlas/internal/repository"
)

// ErrRefreshInProgress is returned when a refresh is requested while
// another one is still running. Requests are rejected, not queued.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// ErrPersistFailed wraps a storage error during the refresh batch write.
// The store keeps its previous contents when this is returned.
var ErrPersistFailed = errors.New("persisting refresh batch failed")

const renderTopCount = 5

// RefreshResult summarizes one completed refresh. Warning is set when
// the data refresh succeeded but the summary image could not be written.
type RefreshResult struct {
	RefreshID      string    `json:"refresh_id"`
	TotalCountries int64     `json:"total_countries"`
	RefreshedAt    time.Time `json:"refreshed_at"`
	Warning        string    `json:"warning,omitempty"`
}

// SummaryRenderer writes the post-refresh summary artifact.
type SummaryRenderer interface {
	Render(summary render.Summary) error
}

// RefreshPublisher announces completed refreshes to downstream consumers.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, result RefreshResult) error
}

// StatusNotifier pushes refresh results to connected live-status clients.
type StatusNotifier interface {
	Broadcast(payload any)
}

// RefreshService runs the fetch -> reconcile -> persist -> render
// pipeline. Only one refresh may be in flight at a time.
type RefreshService struct {
	catalog    drivers.CountryCatalog
	rates      drivers.RateTable
	reconciler *reconciler.Reconciler
	repo       repository.CountryRepository
	renderer   SummaryRenderer
	publisher  RefreshPublisher
	notifier   StatusNotifier
	logger     *logrus.Logger

	inFlight atomic.Bool
}

func NewRefreshService(
	catalog drivers.CountryCatalog,
	rates drivers.RateTable,
	rec *reconciler.Reconciler,
	repo repository.CountryRepository,
	renderer SummaryRenderer,
	publisher RefreshPublisher,
	notifier StatusNotifier,
	logger *logrus.Logger,
) *RefreshService {
	return &RefreshService{
		catalog:    catalog,
		rates:      rates,
		reconciler: rec,
		repo:       repo,
		renderer:   renderer,
		publisher:  publisher,
		notifier:   notifier,
		logger:     logger,
	}
}

// Refresh executes one end-to-end refresh. Fetch, reconcile, and persist
// failures abort the operation with the store untouched; a render failure
// surfaces as a warning on an otherwise successful result.
func (rs *RefreshService) Refresh(ctx context.Context) (RefreshResult, error) {
	if !rs.inFlight.CompareAndSwap(false, true) {
		return RefreshResult{}, ErrRefreshInProgress
	}
	defer rs.inFlight.Store(false)

	refreshID := uuid.NewString()
	refreshedAt := time.Now().UTC()
	log := rs.logger.WithField("refresh_id", refreshID)
	log.Info("Starting refresh")

	// Both fetches run concurrently; either failure aborts before
	// reconciliation so partial data never reaches the store.
	var (
		raw       []drivers.RawCountry
		rateTable map[string]decimal.Decimal
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		raw, err = rs.catalog.FetchAll(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		rateTable, err = rs.rates.FetchLatest(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		log.WithError(err).Error("Refresh aborted during fetch")
		return RefreshResult{}, err
	}

	records := rs.reconciler.Merge(raw, rateTable, refreshedAt)

	if err := rs.repo.UpsertAll(ctx, records, refreshedAt); err != nil {
		log.WithError(err).Error("Refresh aborted during persist")
		return RefreshResult{}, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	total, err := rs.repo.Count(ctx)
	if err != nil {
		total = int64(len(records))
	}

	result := RefreshResult{
		RefreshID:      refreshID,
		TotalCountries: total,
		RefreshedAt:    refreshedAt,
	}

	if err := rs.renderSummary(ctx, total, refreshedAt); err != nil {
		log.WithError(err).Warn("Summary image generation failed")
		result.Warning = "summary image generation failed"
	}

	if rs.publisher != nil {
		if err := rs.publisher.PublishRefresh(ctx, result); err != nil {
			log.WithError(err).Warn("Refresh event publish failed")
		}
	}
	if rs.notifier != nil {
		rs.notifier.Broadcast(result)
	}

	log.WithField("countries", total).Info("Refresh completed")
	return result, nil
}

func (rs *RefreshService) renderSummary(ctx context.Context, total int64, refreshedAt time.Time) error {
	if rs.renderer == nil {
		return nil
	}
	top, err := rs.repo.TopByGDP(ctx, renderTopCount)
	if err != nil {
		return err
	}
	return rs.renderer.Render(render.Summary{
		TotalCountries: total,
		RefreshedAt:    refreshedAt,
		TopByGDP:       top,
	})
}
