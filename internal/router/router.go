package router

import (
	"github.com/gin-gonic/gin"

	"countryatlas/internal/handler"
)

type Config struct {
	CountryHandler *handler.CountryHandler
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()

	registerCountryRoutes(router, cfg.CountryHandler)

	return router
}
