package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"countryatlas/configs"
	"countryatlas/internal/events"
	"countryatlas/internal/handler"
	"countryatlas/internal/logging"
	"countryatlas/internal/reconciler"
	"countryatlas/internal/render"
	"countryatlas/internal/repository"
	"countryatlas/internal/router"
	"countryatlas/internal/service"
	"countryatlas/internal/ws"

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

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before serving")
	flag.Parse()

	if *migrateFlag {
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get sql.DB: %v", err)
		}
		if err := goose.SetDialect("sqlite3"); err != nil {
			log.Fatalf("Goose: failed to set dialect: %v", err)
		}
		log.Println("Running database migrations...")
		if err := goose.Up(sqlDB, "migrations"); err != nil {
			log.Fatalf("Goose migration failed: %v", err)
		}
	}

	countryRepo := repository.NewGormCountryRepository(db)
	countryService := service.NewCountryService(countryRepo)

	hub := ws.NewHub(logger)
	publisher := events.NewPublisher(cfg.Kafka, logger)
	renderer := render.NewRenderer(cfg.ImagePath, logger)

	refreshService := service.NewRefreshService(
		restcountries.NewClient(cfg.Countries, logger),
		openerapi.NewClient(cfg.Rates, logger),
		reconciler.New(cfg.GDPMultiplier, logger),
		countryRepo,
		renderer,
		publisherOrNil(publisher),
		hub,
		logger,
	)

	countryHandler := handler.NewCountryHandler(countryService, refreshService, hub, cfg.ImagePath)

	routerConfig := &router.Config{
		CountryHandler: countryHandler,
	}

	router := router.NewRouter(routerConfig)

	router.Run(fmt.Sprintf(":%s", cfg.ServerPort))
}

// publisherOrNil keeps a disabled publisher from becoming a non-nil
// interface holding a nil pointer.
func publisherOrNil(p *events.Publisher) service.RefreshPublisher {
	if p == nil {
		return nil
	}
	return p
}
