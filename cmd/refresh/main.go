// Command refresh runs one refresh cycle against the configured
// database and exits. Useful for cron-driven refreshes without the API.
package main

import (
	"context"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"countryatlas/configs"
	"countryatlas/internal/events"
	"countryatlas/internal/logging"
	"countryatlas/internal/reconciler"
	"countryatlas/internal/render"
	"countryatlas/internal/repository"
	"countryatlas/internal/service"

	"countryatlas/internal/drivers/openerapi"
	"countryatlas/internal/drivers/restcountries"
)

func main() {
	cfg := configs.AppLoad()
	logger := logging.NewLogger()

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	countryRepo := repository.NewGormCountryRepository(db)

	var publisher service.RefreshPublisher
	if p := events.NewPublisher(cfg.Kafka, logger); p != nil {
		publisher = p
		defer p.Close()
	}

	refreshService := service.NewRefreshService(
		restcountries.NewClient(cfg.Countries, logger),
		openerapi.NewClient(cfg.Rates, logger),
		reconciler.New(cfg.GDPMultiplier, logger),
		countryRepo,
		render.NewRenderer(cfg.ImagePath, logger),
		publisher,
		nil,
		logger,
	)

	result, err := refreshService.Refresh(context.Background())
	if err != nil {
		logger.WithError(err).Fatal("Refresh failed")
	}
	if result.Warning != "" {
		logger.WithField("warning", result.Warning).Warn("Refresh completed with warning")
		return
	}
	logger.WithField("countries", result.TotalCountries).Info("Refresh completed")
}
